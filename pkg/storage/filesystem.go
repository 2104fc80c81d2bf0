package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// StdinRef reads the document from standard input.
const StdinRef = "-"

// FileSystemStorage implements Store using the local filesystem
type FileSystemStorage struct {
	rootDir  string
	maxBytes int64
	stdin    io.Reader
}

// NewFileSystemStorage creates a new filesystem-based store
func NewFileSystemStorage(cfg Config) (*FileSystemStorage, error) {
	if cfg.MaxBytes < 0 {
		return nil, fmt.Errorf("max bytes must not be negative, got %d", cfg.MaxBytes)
	}
	if cfg.Root != "" {
		info, err := os.Stat(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat root directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("root %s is not a directory", cfg.Root)
		}
	}
	return &FileSystemStorage{rootDir: cfg.Root, maxBytes: cfg.MaxBytes, stdin: os.Stdin}, nil
}

// WithStdin replaces the reader used for StdinRef.
func (s *FileSystemStorage) WithStdin(r io.Reader) *FileSystemStorage {
	s.stdin = r
	return s
}

// Path returns the filesystem path a ref resolves to.
func (s *FileSystemStorage) Path(ref string) string {
	if ref == StdinRef || filepath.IsAbs(ref) || s.rootDir == "" {
		return ref
	}
	return filepath.Join(s.rootDir, ref)
}

// Load implements Store.Load. Files ending in .zst or .gz are decompressed.
func (s *FileSystemStorage) Load(ctx context.Context, ref string) (*Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ref == "" {
		return nil, fmt.Errorf("%w: empty ref", ErrNotFound)
	}

	var src io.Reader
	if ref == StdinRef {
		src = s.stdin
	} else {
		f, err := os.Open(s.Path(ref))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
			}
			return nil, fmt.Errorf("failed to open %s: %w", ref, err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", ref, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, ref)
		}
		src = f
	}

	r, closer, err := decompressor(ref, src)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", ref, err)
	}
	defer closer()

	data, err := s.readAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return NewBlob(ref, data), nil
}

func (s *FileSystemStorage) readAll(r io.Reader) ([]byte, error) {
	if s.maxBytes == 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, s.maxBytes)
	}
	return data, nil
}

// decompressor picks a reader by file extension.
func decompressor(ref string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".zst", ".zstd":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	}
	return r, func() {}, nil
}
