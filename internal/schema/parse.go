package schema

import (
	"bytes"
	"encoding/json"

	"github.com/localnerve/jam-build-contentdb/internal/types"
	"gopkg.in/yaml.v3"
)

// Parse decodes a collection schema from JSON or YAML and validates it.
func Parse(data []byte) (*Collection, error) {
	var c Collection
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &c); err != nil {
			return nil, types.SchemaErrorf("", "", "decode json: %v", err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &c); err != nil {
			return nil, types.SchemaErrorf("", "", "decode yaml: %v", err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Encode renders the schema in its stored JSON form.
func (c *Collection) Encode() ([]byte, error) {
	return json.Marshal(c)
}
