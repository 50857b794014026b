package server

import "time"

const (
	// DefaultReadTimeout bounds reading the whole request.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout bounds writing the response.
	DefaultWriteTimeout = 15 * time.Second

	// DefaultIdleTimeout bounds keep-alive idle time.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 30 * time.Second

	DefaultMaxHeaderBytes = 1 << 20 // 1 MB
)
