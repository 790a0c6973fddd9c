package types

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a study that cannot run as configured: an unknown
	// option, a sample count below one, or a domain inconsistent with its
	// distribution. It is never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrProviderCommunication marks a quadrature provider that could not be
	// reached or that answered with a malformed rule. It is fatal to the
	// current sample-count iteration only.
	ErrProviderCommunication = errors.New("quadrature provider communication error")
)

// ConfigErrorf returns an error wrapping ErrConfiguration.
func ConfigErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// ProviderErrorf returns an error wrapping ErrProviderCommunication.
func ProviderErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProviderCommunication, fmt.Sprintf(format, args...))
}
