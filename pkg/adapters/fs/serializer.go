package fs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Serializer converts the JSON payloads the board stores to and from an
// on-disk format.
type Serializer interface {
	// Ext is the file extension, with the dot.
	Ext() string
	// Encode turns a JSON payload into file content.
	Encode(payload []byte) ([]byte, error)
	// Decode turns file content back into a JSON payload.
	Decode(data []byte) ([]byte, error)
}

// Format names an on-disk format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultSerializers returns every supported serializer keyed by extension.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json": JSONSerializer{},
		".yaml": YAMLSerializer{},
		".yml":  YAMLSerializer{ext: ".yml"},
	}
}

// SerializerFor returns the serializer used to write format.
func SerializerFor(format Format) (Serializer, error) {
	switch format {
	case "", FormatJSON:
		return JSONSerializer{}, nil
	case FormatYAML, "yml":
		return YAMLSerializer{}, nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// --- JSON Serializer ---

// JSONSerializer stores payloads as indented JSON.
type JSONSerializer struct{}

func (JSONSerializer) Ext() string { return ".json" }

func (JSONSerializer) Encode(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (JSONSerializer) Decode(data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid json")
	}
	return data, nil
}

// --- YAML Serializer ---

// YAMLSerializer stores payloads as YAML, which is friendlier to hand edits
// and line diffs.
type YAMLSerializer struct {
	ext string
}

func (s YAMLSerializer) Ext() string {
	if s.ext != "" {
		return s.ext
	}
	return ".yaml"
}

func (YAMLSerializer) Encode(payload []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return yaml.Marshal(v)
}

func (YAMLSerializer) Decode(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return json.Marshal(normalize(v))
}

// normalize converts map[any]any, which encoding/json rejects, into
// map[string]any.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = normalize(val)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range x {
			x[i] = normalize(val)
		}
		return x
	}
	return v
}
