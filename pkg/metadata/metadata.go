package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MagicNumber prefixes every encoded runtime metadata value ("meta", little endian).
const MagicNumber uint32 = 0x6174656d

const (
	// OldestSupportedVersion is the first legacy schema that can be normalized.
	OldestSupportedVersion uint32 = 12
	// LatestSupportedVersion is the newest registry schema understood by the decoder.
	LatestSupportedVersion uint32 = 15
)

var (
	// ErrUnsupportedVersion is returned for schema versions that cannot be normalized.
	ErrUnsupportedVersion = errors.New("unsupported metadata version")
	// ErrInvalidMagic is returned when the envelope does not start with MagicNumber.
	ErrInvalidMagic = errors.New("invalid metadata magic number")
	// ErrMalformed is returned when the document does not match any known layout.
	ErrMalformed = errors.New("malformed metadata")
)

// Family groups wire schemas that share a layout.
type Family int

const (
	// FamilyLegacy covers the index based schemas (V12, V13) with string types.
	FamilyLegacy Family = iota
	// FamilyRegistry covers the schemas backed by a portable type registry (V14, V15).
	FamilyRegistry
)

func (f Family) String() string {
	return []string{"legacy", "registry"}[f]
}

// FamilyOf returns the family a supported version belongs to.
func FamilyOf(version uint32) Family {
	if version >= 14 {
		return FamilyRegistry
	}
	return FamilyLegacy
}

// Metadata is a decoded runtime metadata value. Exactly one of the version
// fields is set, matching Version.
type Metadata struct {
	Version uint32
	V12     *LegacyMetadata
	V13     *LegacyMetadata
	V14     *RegistryMetadata
	V15     *RegistryMetadata
}

// Family returns the schema family of the decoded value.
func (m *Metadata) Family() Family {
	return FamilyOf(m.Version)
}

// Legacy returns the legacy schema body, or nil for registry schemas.
func (m *Metadata) Legacy() *LegacyMetadata {
	switch m.Version {
	case 12:
		return m.V12
	case 13:
		return m.V13
	}
	return nil
}

// Registry returns the registry schema body, or nil for legacy schemas.
func (m *Metadata) Registry() *RegistryMetadata {
	switch m.Version {
	case 14:
		return m.V14
	case 15:
		return m.V15
	}
	return nil
}

func (m *Metadata) body() any {
	switch m.Version {
	case 12:
		return m.V12
	case 13:
		return m.V13
	case 14:
		return m.V14
	case 15:
		return m.V15
	}
	return nil
}

// MarshalJSON encodes the value in the prefixed array form.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	body := m.body()
	if body == nil {
		return nil, fmt.Errorf("%w: V%d", ErrUnsupportedVersion, m.Version)
	}
	return json.Marshal([]any{
		MagicNumber,
		map[string]any{fmt.Sprintf("V%d", m.Version): body},
	})
}

// Decode parses the JSON serialization of a prefixed runtime metadata value.
//
// Both the array envelope `[magic, {"V14": {...}}]` and the object envelope
// `{"magicNumber": magic, "metadata": {"v14": {...}}}` are accepted.
func Decode(data []byte) (*Metadata, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	var magic uint32
	var body json.RawMessage

	switch data[0] {
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(data, &parts); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: expected [magic, metadata], got %d elements", ErrMalformed, len(parts))
		}
		if err := json.Unmarshal(parts[0], &magic); err != nil {
			return nil, fmt.Errorf("%w: magic number: %v", ErrMalformed, err)
		}
		body = parts[1]
	case '{':
		var envelope struct {
			MagicNumber uint32          `json:"magicNumber"`
			Metadata    json.RawMessage `json:"metadata"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		magic, body = envelope.MagicNumber, envelope.Metadata
	default:
		return nil, fmt.Errorf("%w: unexpected leading %q", ErrMalformed, data[0])
	}

	if magic != MagicNumber {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, magic)
	}

	var variants map[string]json.RawMessage
	if err := json.Unmarshal(body, &variants); err != nil {
		return nil, fmt.Errorf("%w: metadata body: %v", ErrMalformed, err)
	}
	if len(variants) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one version variant, got %d", ErrMalformed, len(variants))
	}

	var key string
	var raw json.RawMessage
	for k, v := range variants {
		key, raw = k, v
	}

	version, err := parseVersionKey(key)
	if err != nil {
		return nil, err
	}
	return decodeVersion(version, raw)
}

func parseVersionKey(key string) (uint32, error) {
	if len(key) < 2 || (key[0] != 'V' && key[0] != 'v') {
		return 0, fmt.Errorf("%w: unknown version variant %q", ErrMalformed, key)
	}
	n, err := strconv.ParseUint(key[1:], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown version variant %q", ErrMalformed, key)
	}
	return uint32(n), nil
}

func decodeVersion(version uint32, raw json.RawMessage) (*Metadata, error) {
	if version < OldestSupportedVersion || version > LatestSupportedVersion {
		return nil, fmt.Errorf("%w: V%d (supported V%d..V%d)",
			ErrUnsupportedVersion, version, OldestSupportedVersion, LatestSupportedVersion)
	}

	m := &Metadata{Version: version}
	switch FamilyOf(version) {
	case FamilyLegacy:
		var legacy LegacyMetadata
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, fmt.Errorf("%w: V%d body: %v", ErrMalformed, version, err)
		}
		if err := legacy.validate(version); err != nil {
			return nil, err
		}
		if version == 12 {
			m.V12 = &legacy
		} else {
			m.V13 = &legacy
		}
	case FamilyRegistry:
		var reg RegistryMetadata
		if err := json.Unmarshal(raw, &reg); err != nil {
			return nil, fmt.Errorf("%w: V%d body: %v", ErrMalformed, version, err)
		}
		if version == 14 {
			m.V14 = &reg
		} else {
			m.V15 = &reg
		}
	}
	return m, nil
}

// ModuleNames lists module names in declaration order.
func (m *Metadata) ModuleNames() []string {
	var names []string
	if legacy := m.Legacy(); legacy != nil {
		for _, mod := range legacy.Modules {
			names = append(names, mod.Name)
		}
	}
	if reg := m.Registry(); reg != nil {
		for _, p := range reg.Pallets {
			names = append(names, p.Name)
		}
	}
	return names
}

// String summarizes the value, e.g. "V14 (32 modules)".
func (m *Metadata) String() string {
	return fmt.Sprintf("V%d (%d modules: %s)", m.Version, len(m.ModuleNames()), strings.Join(m.ModuleNames(), ", "))
}
