package fs

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{"version":2,"items":[{"id":"a","content":"line\n\nthree","left":300,"top":30,"updatedAt":1709632800123,"expanded":false}]}`

func TestSerializers(t *testing.T) {
	for ext, ser := range DefaultSerializers() {
		t.Run(ext, func(t *testing.T) {
			assert.Equal(t, ext, ser.Ext())

			data, err := ser.Encode([]byte(payload))
			require.NoError(t, err)

			back, err := ser.Decode(data)
			require.NoError(t, err)
			assert.JSONEq(t, payload, string(back))
		})
	}
}

func TestYAMLIsReadable(t *testing.T) {
	data, err := YAMLSerializer{}.Encode([]byte(payload))
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: 2")
	assert.Contains(t, string(data), "items:")
	assert.False(t, strings.HasPrefix(string(data), "{"))
}

func TestYAMLHandEdits(t *testing.T) {
	doc := `
version: 2
items:
  - id: a
    content: hello
    left: 40
    top: 60
    1: numeric key
`
	out, err := YAMLSerializer{}.Decode([]byte(doc))
	require.NoError(t, err)

	var env struct {
		Version int              `json:"version"`
		Items   []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(out, &env))
	assert.Equal(t, 2, env.Version)
	require.Len(t, env.Items, 1)
	assert.Equal(t, "hello", env.Items[0]["content"])
	assert.Equal(t, "numeric key", env.Items[0]["1"])
}

func TestSerializerErrors(t *testing.T) {
	_, err := JSONSerializer{}.Decode([]byte("{nope"))
	assert.Error(t, err)
	_, err = JSONSerializer{}.Encode([]byte("{nope"))
	assert.Error(t, err)
	_, err = YAMLSerializer{}.Decode([]byte("a: [unclosed"))
	assert.Error(t, err)

	_, err = SerializerFor("toml")
	assert.Error(t, err)
	s, err := SerializerFor(FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, ".yaml", s.Ext())
}
