package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/onion"
	"github.com/dmitrymomot/onion/core/logger"
)

// Liveness answers GET and HEAD requests for path with "ALIVE" without
// running the rest of the chain. No dependency checks are made.
//
//	app.Use(middleware.Liveness("/health/live"))
func Liveness(path string) onion.Middleware {
	return probe(path, func(c *onion.Context) error {
		c.SetBody("ALIVE")
		return nil
	})
}

// Ping answers requests for path with 204 No Content.
func Ping(path string) onion.Middleware {
	return probe(path, func(c *onion.Context) error {
		c.SetStatus(http.StatusNoContent)
		return nil
	})
}

// Readiness answers requests for path with "READY" when every check
// passes, or 503 Service Unavailable on the first failing check.
// Checks receive the request Context, so they stop when the client goes away.
//
//	app.Use(middleware.Readiness("/health/ready", log, db.PingContext, cache.Ping))
func Readiness(path string, log *slog.Logger, checks ...func(context.Context) error) onion.Middleware {
	if log == nil {
		log = logger.Discard()
	}
	return probe(path, func(c *onion.Context) error {
		for _, check := range checks {
			if err := check(c); err != nil {
				log.ErrorContext(c, "readiness check failed", logger.Component("health"), logger.Error(err))
				return onion.ErrServiceUnavailable.WithError(err)
			}
		}
		c.SetBody("READY")
		return nil
	})
}

func probe(path string, fn func(c *onion.Context) error) onion.Middleware {
	return func(c *onion.Context, next onion.Next) error {
		if c.Path() != path {
			return next()
		}
		if m := c.Method(); m != http.MethodGet && m != http.MethodHead {
			return next()
		}
		return fn(c)
	}
}
