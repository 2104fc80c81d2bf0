package metadata

import "fmt"

// LegacyMetadata is the body of the index based schemas (V12, V13). Items are
// pre-decoded and reference types by their source-level names.
type LegacyMetadata struct {
	Modules   []LegacyModule  `json:"modules"`
	Extrinsic LegacyExtrinsic `json:"extrinsic"`
}

type LegacyModule struct {
	Name      string           `json:"name"`
	Storage   *LegacyStorage   `json:"storage"`
	Calls     []LegacyCall     `json:"calls"`
	Event     []LegacyEvent    `json:"event"`
	Constants []LegacyConstant `json:"constants"`
	Errors    []LegacyError    `json:"errors"`
	Index     uint8            `json:"index"`
}

type LegacyCall struct {
	Name          string           `json:"name"`
	Arguments     []LegacyArgument `json:"arguments"`
	Documentation []string         `json:"documentation,omitempty"`
}

type LegacyArgument struct {
	Name string `json:"name"`
	Ty   string `json:"ty"`
}

// LegacyEvent arguments are positional type names.
type LegacyEvent struct {
	Name          string   `json:"name"`
	Arguments     []string `json:"arguments"`
	Documentation []string `json:"documentation,omitempty"`
}

type LegacyConstant struct {
	Name          string   `json:"name"`
	Ty            string   `json:"ty"`
	Value         Bytes    `json:"value"`
	Documentation []string `json:"documentation,omitempty"`
}

type LegacyError struct {
	Name          string   `json:"name"`
	Documentation []string `json:"documentation,omitempty"`
}

type LegacyStorage struct {
	Prefix  string               `json:"prefix"`
	Entries []LegacyStorageEntry `json:"entries"`
}

type LegacyStorageEntry struct {
	Name          string            `json:"name"`
	Modifier      string            `json:"modifier"`
	Ty            LegacyStorageType `json:"ty"`
	Default       Bytes             `json:"default"`
	Documentation []string          `json:"documentation,omitempty"`
}

// LegacyStorageType is a closed union. NMap only exists from V13 on.
type LegacyStorageType struct {
	Plain     *string          `json:"Plain,omitempty"`
	Map       *LegacyMap       `json:"Map,omitempty"`
	DoubleMap *LegacyDoubleMap `json:"DoubleMap,omitempty"`
	NMap      *LegacyNMap      `json:"NMap,omitempty"`
}

type LegacyMap struct {
	Hasher string `json:"hasher"`
	Key    string `json:"key"`
	Value  string `json:"value"`
	Unused bool   `json:"unused"`
}

type LegacyDoubleMap struct {
	Hasher     string `json:"hasher"`
	Key1       string `json:"key1"`
	Key2       string `json:"key2"`
	Value      string `json:"value"`
	Key2Hasher string `json:"key2_hasher"`
}

type LegacyNMap struct {
	Keys    []string `json:"keys"`
	Hashers []string `json:"hashers"`
	Value   string   `json:"value"`
}

type LegacyExtrinsic struct {
	Version          uint8    `json:"version"`
	SignedExtensions []string `json:"signed_extensions"`
}

func (m *LegacyMetadata) validate(version uint32) error {
	if version >= 13 {
		return nil
	}
	for _, mod := range m.Modules {
		if mod.Storage == nil {
			continue
		}
		for _, entry := range mod.Storage.Entries {
			if entry.Ty.NMap != nil {
				return fmt.Errorf("%w: V%d storage %s.%s uses NMap, introduced in V13",
					ErrMalformed, version, mod.Name, entry.Name)
			}
		}
	}
	return nil
}
