// Package endpoint resolves a Docker-style daemon endpoint into an immutable Descriptor.
// An endpoint is either a Unix socket URI (unix:///var/run/docker.sock) or a network
// address in host[:port] form, optionally prefixed with a scheme (tcp://host:2376).
//
// Resolution is pure: it never reads the environment. Use the config package to gather
// inputs from the process environment or a configuration file.
package endpoint

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPort is the port used when neither the endpoint nor the override carries one.
	DefaultPort = 2375
	// DefaultHost is the address used when the endpoint has no host part.
	DefaultHost = "localhost"
	// DefaultUnixEndpoint is the daemon socket used on platforms that default to a local socket.
	DefaultUnixEndpoint = "unix:///var/run/docker.sock"

	unixPrefix = "unix://"
	schemeSep  = "://"
)

// Transport identifies the connection mechanism a Descriptor was built for.
type Transport string

const (
	TCP  Transport = "tcp"
	UNIX Transport = "unix"
)

// Descriptor is the resolved, canonical description of how to reach a daemon.
// It is a value: it owns nothing and is safe to share between goroutines.
type Descriptor struct {
	host      string
	uri       url.URL
	bindURI   url.URL
	address   string
	port      int
	certPath  string
	transport Transport
}

// Input holds the raw resolution inputs.
type Input struct {
	// Endpoint is the daemon endpoint, required.
	Endpoint string
	// CertPath points at TLS client material. Empty means absent.
	CertPath string
	// PortOverride replaces DefaultPort for endpoints without a port. Ignored unless numeric.
	PortOverride string
}

// Resolve resolves endpoint and certPath without a default port override.
func Resolve(endpoint, certPath string) (*Descriptor, error) {
	return Input{Endpoint: endpoint, CertPath: certPath}.Resolve()
}

// Resolve builds the Descriptor for the input. It fails only when the endpoint has no
// usable host[:port] shape; malformed ports fall back to the default port.
func (in Input) Resolve() (*Descriptor, error) {
	if in.Endpoint == "" {
		return nil, invalidEndpoint(in.Endpoint, "endpoint is empty")
	}

	if strings.HasPrefix(in.Endpoint, unixPrefix) {
		return resolveSocket(in)
	}
	return resolveNetwork(in)
}

func resolveSocket(in Input) (*Descriptor, error) {
	u, err := url.Parse(in.Endpoint)
	if err != nil {
		return nil, invalidEndpoint(in.Endpoint, err.Error())
	}
	// The URIs must read back as the literal endpoint; "unix://" or an unescaped
	// space would otherwise be silently rewritten.
	if u.String() != in.Endpoint {
		return nil, invalidEndpoint(in.Endpoint, fmt.Sprintf("socket URI is not in canonical form, expected %q", u.String()))
	}

	return &Descriptor{
		host:      in.Endpoint,
		uri:       *u,
		bindURI:   *u,
		address:   DefaultHost,
		port:      0,
		certPath:  in.CertPath,
		transport: UNIX,
	}, nil
}

func resolveNetwork(in Input) (*Descriptor, error) {
	stripped := in.Endpoint
	if i := strings.LastIndex(stripped, schemeSep); i >= 0 {
		stripped = stripped[i+len(schemeSep):]
	}
	// tcp://host:2376/ names the same daemon as tcp://host:2376.
	stripped = strings.TrimRight(stripped, "/")

	host, portText, err := splitHostPort(stripped)
	if err != nil {
		return nil, invalidEndpoint(in.Endpoint, err.Error())
	}

	port, ok := parsePort(portText)
	if !ok {
		port = DefaultPortFor(in.PortOverride)
	}

	address := host
	if address == "" {
		address = DefaultHost
	}

	scheme := "http"
	if in.CertPath != "" {
		scheme = "https"
	}

	hostPort := net.JoinHostPort(address, strconv.Itoa(port))
	uri, err := url.Parse(scheme + schemeSep + hostPort)
	if err != nil {
		return nil, invalidEndpoint(in.Endpoint, err.Error())
	}
	// Characters such as '/', '?' or '@' in the host move part of it out of the authority.
	if uri.Host != hostPort {
		return nil, invalidEndpoint(in.Endpoint, fmt.Sprintf("host %q is not a valid URI authority", address))
	}
	bindURI, err := url.Parse(string(TCP) + schemeSep + hostPort)
	if err != nil {
		return nil, invalidEndpoint(in.Endpoint, err.Error())
	}

	return &Descriptor{
		host:      hostPort,
		uri:       *uri,
		bindURI:   *bindURI,
		address:   address,
		port:      port,
		certPath:  in.CertPath,
		transport: TCP,
	}, nil
}

// DefaultPortFor returns override when it is a valid port number, DefaultPort otherwise.
func DefaultPortFor(override string) int {
	if port, ok := parsePort(override); ok {
		return port
	}
	return DefaultPort
}

// DefaultEndpoint returns the endpoint to use when none was configured.
func DefaultEndpoint(p Platform, portOverride string) string {
	if p.DefaultsToLocalSocket() {
		return DefaultUnixEndpoint
	}
	return DefaultHost + ":" + strconv.Itoa(DefaultPortFor(portOverride))
}

// Host returns address:port for TCP endpoints and the raw endpoint for Unix sockets.
// It can be fed back into Resolve.
func (d *Descriptor) Host() string {
	return d.host
}

// URI returns the REST URI of the daemon.
func (d *Descriptor) URI() *url.URL {
	u := d.uri
	return &u
}

// BindURI returns the TLS-independent URI used for binding ports or setting DOCKER_HOST.
func (d *Descriptor) BindURI() *url.URL {
	u := d.bindURI
	return &u
}

// Address returns the daemon host name or IP.
func (d *Descriptor) Address() string {
	return d.address
}

// Port returns the daemon TCP port, 0 for Unix sockets.
func (d *Descriptor) Port() int {
	return d.port
}

// CertPath returns the TLS client certificate path, empty when none was given.
func (d *Descriptor) CertPath() string {
	return d.certPath
}

func (d *Descriptor) Transport() Transport {
	return d.transport
}

// TLS reports whether REST calls go over https.
func (d *Descriptor) TLS() bool {
	return d.uri.Scheme == "https"
}

func (d *Descriptor) String() string {
	return d.host
}
