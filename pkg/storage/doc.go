// Package storage loads metadata documents and caches their reductions.
//
// FileSystemStorage resolves refs against an optional root directory, reads
// "-" from standard input, and transparently decompresses .zst and .gz files.
// Every loaded Blob carries a blake2b-256 digest of its decompressed bytes,
// which RuntimeCache uses as its key:
//
//	store, err := storage.NewFileSystemStorage(storage.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	blob, err := store.Load(ctx, "polkadot-9430.json.zst")
//	if err != nil {
//		return err
//	}
//	md, err := blob.Decode()
package storage
