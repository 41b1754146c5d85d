// Package snapshot deep-copies configuration values so that callers of the config
// package never share slices, maps or pointers with the loaded file.
package snapshot

import (
	"github.com/pkg/errors"
	"github.com/tiendc/go-deepcopy"
)

// Copy returns a deep copy of *src, or nil for a nil src.
func Copy[T any](src *T) (*T, error) {
	if src == nil {
		return nil, nil
	}

	var dst T
	if err := deepcopy.Copy(&dst, *src); err != nil {
		return nil, errors.Wrapf(err, "failed to deep copy %T", src)
	}
	return &dst, nil
}

// MustCopy is Copy for values whose types are known to be copyable. It panics on failure.
func MustCopy[T any](src *T) *T {
	dst, err := Copy(src)
	if err != nil {
		panic("failed to take configuration snapshot: " + err.Error())
	}
	return dst
}
