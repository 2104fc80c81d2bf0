package metadata

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Bytes is an opaque SCALE encoded value (constant values, storage defaults).
// It decodes from either a 0x-prefixed hex string or an array of numbers and
// always encodes as a hex string.
type Bytes []byte

// String returns the 0x-prefixed hex form.
func (b Bytes) String() string {
	return "0x" + hex.EncodeToString(b)
}

// Equal reports whether both values hold the same bytes.
func (b Bytes) Equal(other Bytes) bool {
	return bytes.Equal(b, other)
}

// MarshalJSON implements json.Marshaler.
func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// MarshalYAML implements yaml.Marshaler.
func (b Bytes) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*b = nil
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		decoded, err := ParseHex(s)
		if err != nil {
			return err
		}
		*b = decoded
		return nil
	case '[':
		var values []uint16
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("bytes array: %w", err)
		}
		out := make([]byte, len(values))
		for i, v := range values {
			if v > 0xff {
				return fmt.Errorf("bytes array: element %d out of range: %d", i, v)
			}
			out[i] = byte(v)
		}
		*b = out
		return nil
	}
	return fmt.Errorf("bytes: unexpected JSON %q", data)
}

// ParseHex decodes a hex string with an optional 0x prefix.
func ParseHex(s string) (Bytes, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("bytes hex: %w", err)
	}
	return out, nil
}
