// Package cli provides the palletdiff command-line interface.
//
// # Commands
//
// diff: list changes between two metadata documents and print the verdict
//
//	palletdiff diff old.json new.json
//	palletdiff diff --format json old.json.zst new.json.zst
//	palletdiff diff --watch runtime/old.json runtime/new.json
//
// check: print only the verdict block, for CI gates
//
//	palletdiff check old.json new.json || echo "release needs review"
//
// reduce: print the canonical model of one document
//
//	palletdiff reduce --module System polkadot.json
//
// info: describe a document without reducing it
//
//	palletdiff info kusama.json.gz
//
// rawdiff: compare two documents as plain JSON trees
//
//	palletdiff rawdiff old.json new.json
//
// # Exit Codes
//
//	0  safe, or a non-comparing command succeeded
//	1  error
//	2  incompatible changes
//	3  transaction version bump required
//
// # Configuration
//
// Every command accepts --config, --log-level, --format, --no-color and
// --verbose. Flags override the config file, which is overridden by
// PALLETDIFF_* environment variables. See package config.
package cli
