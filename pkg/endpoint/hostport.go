package endpoint

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const maxPort = 65535

// splitHostPort splits s into host and port text. It accepts "host", "host:port",
// "[v6]" and "[v6]:port". A bare address with several colons is an IPv6 literal
// without a port. Only the shape is checked here; the port text is not validated.
func splitHostPort(s string) (host, port string, err error) {
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return "", "", errors.Errorf("missing ']' in address %q", s)
		}
		inner, rest := s[1:end], s[end+1:]
		if strings.ContainsAny(inner, "[]") {
			return "", "", errors.Errorf("unexpected bracket in address %q", s)
		}
		switch {
		case rest == "":
			return inner, "", nil
		case rest[0] == ':' && !strings.ContainsAny(rest[1:], "[]"):
			return inner, rest[1:], nil
		default:
			return "", "", errors.Errorf("unexpected %q after ']' in address %q", rest, s)
		}
	}

	if strings.ContainsAny(s, "[]") {
		return "", "", errors.Errorf("unexpected bracket in address %q", s)
	}

	switch strings.Count(s, ":") {
	case 0:
		return s, "", nil
	case 1:
		i := strings.IndexByte(s, ':')
		return s[:i], s[i+1:], nil
	default:
		return s, "", nil
	}
}

// parsePort reports the port number in s, or false if s is empty, not made of
// digits or out of the 1-65535 range.
func parsePort(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > maxPort {
		return 0, false
	}
	return port, true
}
