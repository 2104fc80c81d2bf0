// Package metadata decodes versioned runtime metadata documents.
//
// A runtime exposes its metadata as a SCALE encoded value prefixed with a
// magic number and a version discriminant. This package consumes the JSON
// serialization of that value and exposes one typed body per supported
// schema:
//
//	V12, V13  legacy, index based; types are source-level strings
//	V14, V15  registry based; types are ids into a PortableRegistry
//
// Anything older than V12 cannot be normalized and is rejected with
// ErrUnsupportedVersion rather than decoded into a partial value.
package metadata
