// Package registry resolves display names and structural digests for types
// in a portable type registry.
//
// A Resolver turns a type id into a name such as "Vec<AccountId32>" and falls
// back to a caller supplied hint when the registry cannot name the type.
//
// A Hasher digests the shape of a type. Field, variant and type names do not
// participate; field order, variant order, declared variant indices, array
// lengths and primitive kinds do. Cycles are cut with a fixed marker and
// a short list of volatile aggregate types (RuntimeCall and friends) hash by
// name only so that adding a module leaves unrelated digests unchanged.
package registry
