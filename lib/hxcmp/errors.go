package hxcmp

import (
	"errors"
	"fmt"
)

// Sentinel errors for component operations.
var (
	ErrNotFound         = errors.New("hxcmp: resource not found")
	ErrBadRequest       = errors.New("hxcmp: bad request")
	ErrMethodNotAllowed = errors.New("hxcmp: method not allowed")
	ErrDecryptFailed    = errors.New("hxcmp: parameter decryption failed")
	ErrSignatureInvalid = errors.New("hxcmp: signature verification failed")
	ErrInvalidFormat    = errors.New("hxcmp: invalid parameter format")
	ErrHydrationFailed  = errors.New("hxcmp: hydration failed")
)

// BadInput reports unusable request input from a handler. The registry's
// default OnError answers it with 400.
func BadInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecryptionError checks if err is a decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid)
}

// IsBadRequest checks if err came from malformed props or input.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidFormat) || IsDecryptionError(err)
}
