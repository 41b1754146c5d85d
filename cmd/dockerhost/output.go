package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/animalet/dockerhost-go/pkg/config"
	"github.com/animalet/dockerhost-go/pkg/endpoint"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
	formatEnv  outputFormat = "env"
)

func (f outputFormat) valid() bool {
	switch f {
	case formatText, formatJSON, formatYAML, formatEnv:
		return true
	}
	return false
}

func write(w io.Writer, d *endpoint.Descriptor, format outputFormat) error {
	var out []byte
	switch format {
	case formatText:
		out = []byte(d.String() + "\n")
	case formatJSON:
		b, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to render descriptor as JSON")
		}
		out = append(b, '\n')
	case formatYAML:
		b, err := yaml.Marshal(d)
		if err != nil {
			return errors.Wrap(err, "failed to render descriptor as YAML")
		}
		out = b
	case formatEnv:
		for _, kv := range exports(d) {
			name, value, _ := strings.Cut(kv, "=")
			out = append(out, "export "+name+"="+shellQuote(value)+"\n"...)
		}
	default:
		return errors.Errorf("unknown output format %q", format)
	}

	_, err := w.Write(out)
	return errors.Wrap(err, "failed to write output")
}

func exports(d *endpoint.Descriptor) []string {
	env := config.Environ(d, config.DefaultEnvVars)
	if d.TLS() {
		env = append(env, "DOCKER_TLS_VERIFY=1")
	}
	return env
}

// shellQuote single-quotes s for POSIX shells, so the output is safe to eval.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
