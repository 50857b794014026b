package server

import "errors"

var (
	ErrMissingAddress       = errors.New("server address is required")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrHTTPServer           = errors.New("HTTP server error")
	ErrHTTPShutdown         = errors.New("HTTP shutdown error")
	ErrShutdownTimeout      = errors.New("server shutdown timed out")
	ErrFailedLoadCert       = errors.New("failed to load certificate")
)
