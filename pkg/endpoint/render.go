package endpoint

import (
	"encoding/json"
)

// view is the wire rendering of a Descriptor.
type view struct {
	Host      string    `json:"host" yaml:"host"`
	URI       string    `json:"uri" yaml:"uri"`
	BindURI   string    `json:"bind_uri" yaml:"bind_uri"`
	Address   string    `json:"address" yaml:"address"`
	Port      int       `json:"port" yaml:"port"`
	CertPath  string    `json:"cert_path,omitempty" yaml:"cert_path,omitempty"`
	Transport Transport `json:"transport" yaml:"transport"`
	TLS       bool      `json:"tls" yaml:"tls"`
}

func (d *Descriptor) view() view {
	return view{
		Host:      d.host,
		URI:       d.uri.String(),
		BindURI:   d.bindURI.String(),
		Address:   d.address,
		Port:      d.port,
		CertPath:  d.certPath,
		Transport: d.transport,
		TLS:       d.TLS(),
	}
}

// MarshalJSON renders the descriptor as a JSON object.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.view())
}

// MarshalYAML implements yaml.Marshaler.
func (d *Descriptor) MarshalYAML() (any, error) {
	return d.view(), nil
}
