package cookie

import (
	"errors"
	"fmt"
)

var (
	// ErrNoKeys indicates a signed cookie was requested but the jar has no keys.
	ErrNoKeys = errors.New("keys required for signed cookies")

	// ErrInvalidSignature indicates the signature cookie does not match any key.
	ErrInvalidSignature = errors.New("cookie signature verification failed")

	// ErrCookieNotFound indicates the requested cookie doesn't exist in the request.
	ErrCookieNotFound = errors.New("cookie not found in request")

	// ErrInsecureCookie indicates a Secure cookie was set on a plain-text connection.
	ErrInsecureCookie = errors.New("cannot send secure cookie over unencrypted connection")

	// ErrInvalidName indicates the cookie name contains forbidden characters.
	ErrInvalidName = errors.New("invalid cookie name")
)

// ErrCookieTooLarge is returned when a serialized cookie exceeds the size limit.
type ErrCookieTooLarge struct {
	Name string
	Size int
	Max  int
}

func (e ErrCookieTooLarge) Error() string {
	return fmt.Sprintf("cookie %q size %d exceeds maximum %d bytes", e.Name, e.Size, e.Max)
}
