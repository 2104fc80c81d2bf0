package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Bytes
		wantErr bool
	}{
		{name: "hex string", input: `"0x0102ff"`, want: Bytes{1, 2, 255}},
		{name: "hex without prefix", input: `"0a"`, want: Bytes{10}},
		{name: "number array", input: `[1, 2, 255]`, want: Bytes{1, 2, 255}},
		{name: "empty array", input: `[]`, want: Bytes{}},
		{name: "null", input: `null`, want: nil},
		{name: "out of range", input: `[256]`, wantErr: true},
		{name: "bad hex", input: `"0xzz"`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Bytes
			err := json.Unmarshal([]byte(tt.input), &b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, b)
		})
	}
}

func TestBytes_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Bytes{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, `"0xdead"`, string(data))

	assert.True(t, Bytes{1}.Equal(Bytes{1}))
	assert.False(t, Bytes{1}.Equal(Bytes{2}))
}
