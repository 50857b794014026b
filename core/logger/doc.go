// Package logger builds slog loggers and provides attribute helpers for
// request logging.
//
//	log := logger.New(
//		logger.WithProduction("api"),
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//
//	log.Info("request completed",
//		logger.Method(c.Method()),
//		logger.Path(c.Path()),
//		logger.StatusCode(c.Status()),
//		logger.Latency(time.Since(start)),
//	)
//
// Attribute helpers return an empty slog.Attr for empty input, which
// handlers skip, so optional values need no nil checks.
package logger
