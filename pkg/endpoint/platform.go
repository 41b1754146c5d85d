package endpoint

import "runtime"

// Platform answers the only question resolution asks of the operating system.
type Platform interface {
	// DefaultsToLocalSocket reports whether the daemon listens on DefaultUnixEndpoint
	// when no endpoint is configured.
	DefaultsToLocalSocket() bool
}

// OS is a Platform named after a GOOS value.
type OS string

func (o OS) DefaultsToLocalSocket() bool {
	return o == "linux"
}

// CurrentPlatform returns the platform this binary runs on.
func CurrentPlatform() Platform {
	return OS(runtime.GOOS)
}
