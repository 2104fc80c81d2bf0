// Package reduced normalizes every supported metadata schema into one
// version independent Runtime model.
//
// Registry schemas (V14, V15) resolve call, event and error enums through the
// portable type registry and key items by their declared variant index.
// Legacy schemas (V12, V13) key items by list position and derive type
// digests from the items themselves.
//
//	md, err := metadata.Decode(data)
//	if err != nil {
//		return err
//	}
//	rt, err := reduced.Reduce(md, reduced.WithLogger(logger))
//
// Documentation is carried but never takes part in Equal.
package reduced
