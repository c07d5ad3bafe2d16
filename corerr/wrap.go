package corerr

import "fmt"

// Wrap attaches kind to a contextual message, preserving cause (if any)
// so errors.Is still finds both kind and cause through the chain.
func Wrap(kind error, cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		return fmt.Errorf("%s: %w: %w", msg, kind, cause)
	}
	return fmt.Errorf("%s: %w", msg, kind)
}

// Configuration wraps cause (may be nil) as an ErrConfiguration.
func Configuration(cause error, format string, args ...any) error {
	return Wrap(ErrConfiguration, cause, format, args...)
}

// Integrity wraps cause (may be nil) as an ErrIntegrity.
func Integrity(cause error, format string, args ...any) error {
	return Wrap(ErrIntegrity, cause, format, args...)
}

// Driver wraps cause (may be nil) as an ErrDriver.
func Driver(cause error, format string, args ...any) error {
	return Wrap(ErrDriver, cause, format, args...)
}

// Type wraps cause (may be nil) as an ErrType.
func Type(cause error, format string, args ...any) error {
	return Wrap(ErrType, cause, format, args...)
}

// Lifecycle wraps cause (may be nil) as an ErrLifecycle.
func Lifecycle(cause error, format string, args ...any) error {
	return Wrap(ErrLifecycle, cause, format, args...)
}
