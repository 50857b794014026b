// Package server runs HTTP handlers with production timeouts and graceful
// shutdown. Both net/http handlers (Run) and fasthttp handlers (RunFast)
// are supported.
//
//	srv := server.New(":8080", server.WithLogger(log))
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	if err := srv.Run(ctx, app); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// Run blocks until ctx is canceled, then waits up to the shutdown timeout
// for in-flight requests. Settings can also come from Config via
// NewFromConfig.
package server
