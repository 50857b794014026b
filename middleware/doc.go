// Package middleware provides onion middleware for common cross-cutting
// concerns.
//
//	app := onion.New()
//	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer, "api")
//
//	app.Use(middleware.RequestID()).
//		Use(middleware.Logging()).
//		Use(middleware.ResponseTime()).
//		Use(metrics.Middleware()).
//		Use(middleware.MetricsEndpoint("/metrics", prometheus.DefaultGatherer))
//
// Middleware with options follow the same shape: a default constructor and
// a WithConfig variant taking a config struct whose zero fields fall back
// to defaults. Values a middleware stores are read back with a getter
// such as GetRequestID.
//
// HTTPHandler mounts any net/http handler at the end of a chain. Liveness,
// Readiness and Ping answer health probes on a fixed path and pass every
// other request on.
package middleware
