package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/dmitrymomot/onion/core/logger"
)

// RunFast serves a fasthttp handler until ctx is canceled. It shares the
// listener, timeouts and shutdown handling of Run.
func (s *Server) RunFast(ctx context.Context, handler fasthttp.RequestHandler) error {
	ln, err := s.listen()
	if err != nil {
		return err
	}

	srv := &fasthttp.Server{
		Handler:            handler,
		Name:               "onion",
		ReadTimeout:        s.readTimeout,
		WriteTimeout:       s.writeTimeout,
		IdleTimeout:        s.idleTimeout,
		TLSConfig:          s.tlsConfig,
		MaxRequestBodySize: fasthttp.DefaultMaxRequestBodySize,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "starting fasthttp server", logger.Component("server"), slog.String("addr", ln.Addr().String()))
		if srv.TLSConfig != nil {
			errCh <- srv.ServeTLS(ln, "", "")
			return
		}
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.stopped()
		if err != nil {
			return errors.Join(ErrHTTPServer, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down fasthttp server gracefully", slog.Duration("timeout", s.shutdown))
	done := make(chan error, 1)
	go func() { done <- srv.Shutdown() }()

	defer s.stopped()
	select {
	case err := <-done:
		<-errCh
		if err != nil {
			return errors.Join(ErrHTTPShutdown, err)
		}
		s.logger.Info("server shutdown complete")
		return nil
	case <-time.After(s.shutdown):
		return ErrShutdownTimeout
	}
}
