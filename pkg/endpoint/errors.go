package endpoint

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidEndpoint matches every *InvalidEndpointError via errors.Is.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// InvalidEndpointError reports an endpoint that cannot be decomposed into a
// Unix socket URI or a host[:port] address.
type InvalidEndpointError struct {
	Endpoint string
	Reason   string
}

func invalidEndpoint(endpoint, reason string) error {
	return &InvalidEndpointError{Endpoint: endpoint, Reason: reason}
}

func (e *InvalidEndpointError) Error() string {
	return fmt.Sprintf("invalid endpoint %q: %s", e.Endpoint, e.Reason)
}

func (e *InvalidEndpointError) Is(target error) bool {
	return target == ErrInvalidEndpoint
}
