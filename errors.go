package geoform

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the three failure kinds.
var (
	ErrConfiguration   = errors.New("geoform: configuration error")
	ErrInvalidArgument = errors.New("geoform: invalid argument")
	ErrFetch           = errors.New("geoform: fetch failed")
)

// ConfigurationError lists required settings that were missing at startup.
type ConfigurationError struct {
	Missing []string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return "missing required configuration: " + strings.Join(e.Missing, ", ")
	}
	if e.Err != nil {
		return "invalid configuration: " + e.Err.Error()
	}
	return "invalid configuration"
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ArgumentError is returned when a caller passes an unusable argument.
type ArgumentError struct {
	Message string
}

// InvalidArgument builds an ArgumentError.
func InvalidArgument(format string, args ...any) error {
	return &ArgumentError{Message: fmt.Sprintf(format, args...)}
}

func (e *ArgumentError) Error() string { return e.Message }

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// FetchError wraps any failure to load a list from the country API.
//
// Op names the list ("countries" or "states"). Status is the HTTP status when
// one was received; it is kept for logs and never rendered.
type FetchError struct {
	Op     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	msg := "Unknown error"
	if e.Err != nil && e.Err.Error() != "" {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("Failed to fetch %s: %s", e.Op, msg)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// IsConfiguration checks if err is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsInvalidArgument checks if err is an invalid argument error.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsFetch checks if err is a fetch error.
func IsFetch(err error) bool {
	return errors.Is(err, ErrFetch)
}

// MessageOf derives the user-facing message for err. Errors without a
// message, and nil, fall back to fallback.
func MessageOf(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// Info wraps MessageOf into an ErrorInfo.
func Info(err error, fallback string) *ErrorInfo {
	return &ErrorInfo{Message: MessageOf(err, fallback)}
}
