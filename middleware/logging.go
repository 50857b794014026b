package middleware

import (
	"log/slog"
	"slices"
	"time"

	"github.com/dmitrymomot/onion"
	"github.com/dmitrymomot/onion/core/logger"
)

// LoggingConfig configures the Logging middleware.
type LoggingConfig struct {
	// Skip bypasses the middleware when it returns true.
	Skip func(c *onion.Context) bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// LogLevel is used for successful, fast requests. Defaults to Info.
	LogLevel slog.Level

	// LogHeaders adds request headers, redacting SensitiveHeaders.
	LogHeaders bool

	SensitiveHeaders []string

	// SlowRequestThreshold raises fast-path records to Warn. Defaults to 5s.
	SlowRequestThreshold time.Duration

	// Component defaults to "http".
	Component string
}

// Logging logs one record per request after the rest of the chain ran.
// Server errors log at Error, client errors and slow requests at Warn.
func Logging() onion.Middleware {
	return LoggingWithConfig(LoggingConfig{})
}

// LoggingWithLogger is Logging with a specific logger.
func LoggingWithLogger(log *slog.Logger) onion.Middleware {
	return LoggingWithConfig(LoggingConfig{Logger: log})
}

// LoggingWithConfig is Logging with custom settings.
func LoggingWithConfig(cfg LoggingConfig) onion.Middleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SensitiveHeaders == nil {
		cfg.SensitiveHeaders = []string{
			"Authorization",
			"Cookie",
			"X-Api-Key",
			"X-Auth-Token",
			"X-Csrf-Token",
		}
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}
	if cfg.Component == "" {
		cfg.Component = "http"
	}

	return func(c *onion.Context, next onion.Next) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return next()
		}

		start := time.Now()
		err := next()
		duration := time.Since(start)

		status := c.Status()
		if err != nil {
			status = onion.ErrorStatus(err)
		}

		requestID, _ := GetRequestID(c)
		attrs := []slog.Attr{
			logger.Component(cfg.Component),
			logger.Event("request"),
			logger.Method(c.Method()),
			logger.Path(c.Path()),
			logger.StatusCode(status),
			logger.BytesOut(c.Length()),
			logger.Latency(duration),
			logger.ClientIP(c.IP()),
			logger.UserAgent(c.Get("User-Agent")),
			logger.RequestID(requestID),
		}

		if cfg.LogHeaders {
			headers := make(map[string]any, len(c.Header()))
			for key, values := range c.Header() {
				switch {
				case slices.Contains(cfg.SensitiveHeaders, key):
					headers[key] = "[REDACTED]"
				case len(values) == 1:
					headers[key] = values[0]
				default:
					headers[key] = values
				}
			}
			attrs = append(attrs, slog.Any("request_headers", headers))
		}

		level := cfg.LogLevel
		switch {
		case status >= 500:
			level = slog.LevelError
			attrs = append(attrs, logger.Error(err))
		case status >= 400:
			level = slog.LevelWarn
		case duration > cfg.SlowRequestThreshold:
			level = slog.LevelWarn
			attrs = append(attrs, slog.Bool("slow_request", true))
		}

		cfg.Logger.LogAttrs(c, level, "HTTP request completed", attrs...)
		return err
	}
}
