package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/platinummonkey/palletdiff/pkg/metadata"
)

var (
	// ErrNotFound is returned when a ref does not name a readable file.
	ErrNotFound = errors.New("metadata source not found")
	// ErrTooLarge is returned when a source exceeds the configured limit
	// after decompression.
	ErrTooLarge = errors.New("metadata source too large")
)

// Store loads raw metadata documents.
type Store interface {
	Load(ctx context.Context, ref string) (*Blob, error)
}

// Blob is one loaded, decompressed metadata document.
type Blob struct {
	Ref  string
	Data []byte
	// Digest is the hex blake2b-256 of Data.
	Digest string
}

// NewBlob wraps data and computes its digest.
func NewBlob(ref string, data []byte) *Blob {
	sum := blake2b.Sum256(data)
	return &Blob{Ref: ref, Data: data, Digest: hex.EncodeToString(sum[:])}
}

// Decode parses the document.
func (b *Blob) Decode() (*metadata.Metadata, error) {
	md, err := metadata.Decode(b.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", b.Ref, err)
	}
	return md, nil
}

// Config for the filesystem store and the runtime cache
type Config struct {
	// Root resolves relative refs. Empty means the working directory.
	Root string
	// MaxBytes caps a decompressed document. Zero disables the check.
	MaxBytes int64

	CacheSize int
	CacheTTL  time.Duration
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		MaxBytes:  64 * 1024 * 1024, // 64MB
		CacheSize: 16,
		CacheTTL:  10 * time.Minute,
	}
}
