package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/onion"
)

type requestIDContextKey struct{}

// RequestIDConfig configures the RequestID middleware.
type RequestIDConfig struct {
	// Skip bypasses the middleware when it returns true.
	Skip func(c *onion.Context) bool
	// Generator creates new IDs. Defaults to UUID v4.
	Generator func() string
	// HeaderName is read when UseExisting is set and always written.
	// Defaults to "X-Request-ID".
	HeaderName string
	// UseExisting keeps an ID sent by the client.
	UseExisting bool
}

// RequestID assigns every request a UUID, exposes it with GetRequestID and
// echoes it in the X-Request-ID response header.
func RequestID() onion.Middleware {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig is RequestID with custom settings.
func RequestIDWithConfig(cfg RequestIDConfig) onion.Middleware {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}
	if cfg.Generator == nil {
		cfg.Generator = func() string {
			return uuid.New().String()
		}
	}

	return func(c *onion.Context, next onion.Next) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return next()
		}

		var id string
		if cfg.UseExisting {
			id = c.Get(cfg.HeaderName)
		}
		if id == "" {
			id = cfg.Generator()
		}

		c.SetValue(requestIDContextKey{}, id)
		c.Set(cfg.HeaderName, id)
		return next()
	}
}

// GetRequestID returns the ID assigned by RequestID. ctx is the
// *onion.Context, or any context derived from it when the app runs with
// ambient context.
func GetRequestID(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDContextKey{}).(string); ok {
		return id, true
	}
	if c, ok := onion.FromContext(ctx); ok {
		id, ok := c.Value(requestIDContextKey{}).(string)
		return id, ok
	}
	return "", false
}
