package config

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Port is a default-port override as written in a configuration file. It decodes
// from either a number or a string in every format, so `port = 4243` and
// `port = "4243"` are the same. The value is never validated here: anything that
// is not a port number falls back to endpoint.DefaultPort at resolution time.
type Port string

// UnmarshalYAML accepts any scalar.
func (p *Port) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("port must be a scalar, line %d", node.Line)
	}
	*p = Port(node.Value)
	return nil
}

// UnmarshalJSON accepts strings, numbers and null.
func (p *Port) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Port(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.Wrap(err, "port must be a number or a string")
		}
		*p = Port(n.String())
	}
	return nil
}

// UnmarshalTOML accepts strings and integers in any TOML integer notation.
// Other scalars keep their text and fall back to the default port.
func (p *Port) UnmarshalTOML(value *unstable.Node) error {
	switch value.Kind {
	case unstable.Integer:
		text := strings.ReplaceAll(string(value.Data), "_", "")
		if n, err := strconv.ParseInt(text, 0, 64); err == nil {
			text = strconv.FormatInt(n, 10)
		}
		*p = Port(text)
	case unstable.String, unstable.Float, unstable.Bool:
		*p = Port(value.Data)
	default:
		return errors.Errorf("port must be a number or a string, got %s", value.Kind)
	}
	return nil
}
