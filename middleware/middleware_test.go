package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/onion"
	"github.com/dmitrymomot/onion/middleware"
)

// testLogHandler captures log entries for testing
type testLogHandler struct {
	mu      sync.Mutex
	entries []map[string]any
}

func (h *testLogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	entry := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "" {
			entry[a.Key] = a.Value.Any()
		}
		return true
	})
	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()
	return nil
}

func (h *testLogHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *testLogHandler) WithGroup(string) slog.Handler      { return h }

func serve(app *onion.App, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)
	return w
}

func ok(c *onion.Context, next onion.Next) error {
	c.SetBody("ok")
	return nil
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates_uuid", func(t *testing.T) {
		t.Parallel()
		var captured string
		app := onion.New(onion.WithSilent(true))
		app.Use(middleware.RequestID()).Use(func(c *onion.Context, next onion.Next) error {
			id, found := middleware.GetRequestID(c)
			assert.True(t, found)
			captured = id
			return ok(c, next)
		})

		w := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, captured, 36)
		assert.Equal(t, captured, w.Header().Get("X-Request-ID"))
	})

	t.Run("uses_existing_header", func(t *testing.T) {
		t.Parallel()
		app := onion.New()
		app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{UseExisting: true})).Use(ok)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "client-id")
		w := serve(app, r)
		assert.Equal(t, "client-id", w.Header().Get("X-Request-ID"))
	})

	t.Run("custom_generator_and_header", func(t *testing.T) {
		t.Parallel()
		app := onion.New()
		app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			HeaderName: "X-Trace",
			Generator:  func() string { return "fixed" },
		})).Use(ok)

		w := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "fixed", w.Header().Get("X-Trace"))
	})

	t.Run("skip", func(t *testing.T) {
		t.Parallel()
		app := onion.New()
		app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Skip: func(c *onion.Context) bool { return c.Path() == "/health" },
		})).Use(ok)

		w := serve(app, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Empty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("ambient_context_lookup", func(t *testing.T) {
		t.Parallel()
		app := onion.New(onion.WithAmbientContext(true))
		var found string
		app.Use(middleware.RequestID()).Use(func(c *onion.Context, next onion.Next) error {
			found, _ = middleware.GetRequestID(c.Req().Context())
			return ok(c, next)
		})

		w := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, w.Header().Get("X-Request-ID"), found)
		assert.NotEmpty(t, found)
	})
}

func TestLogging(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		h := &testLogHandler{}
		app := onion.New()
		app.Use(middleware.LoggingWithLogger(slog.New(h))).Use(ok)

		serve(app, httptest.NewRequest(http.MethodGet, "/hello?x=1", nil))

		require.Len(t, h.entries, 1)
		e := h.entries[0]
		assert.Equal(t, "INFO", e["level"])
		assert.Equal(t, "HTTP request completed", e["msg"])
		assert.Equal(t, "GET", e["method"])
		assert.Equal(t, "/hello", e["path"])
		assert.EqualValues(t, 200, e["status_code"])
		assert.EqualValues(t, 2, e["bytes_out"])
	})

	t.Run("not_found_is_warn", func(t *testing.T) {
		t.Parallel()
		h := &testLogHandler{}
		app := onion.New()
		app.Use(middleware.LoggingWithLogger(slog.New(h)))

		serve(app, httptest.NewRequest(http.MethodGet, "/missing", nil))

		require.Len(t, h.entries, 1)
		assert.Equal(t, "WARN", h.entries[0]["level"])
		assert.EqualValues(t, 404, h.entries[0]["status_code"])
	})

	t.Run("error_is_logged_with_error_status", func(t *testing.T) {
		t.Parallel()
		h := &testLogHandler{}
		app := onion.New(onion.WithSilent(true))
		app.Use(middleware.LoggingWithLogger(slog.New(h))).Use(func(c *onion.Context, next onion.Next) error {
			return errors.New("db down")
		})

		w := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		require.Len(t, h.entries, 1)
		assert.Equal(t, "ERROR", h.entries[0]["level"])
		assert.EqualValues(t, 500, h.entries[0]["status_code"])
		assert.NotNil(t, h.entries[0]["error"])
	})

	t.Run("sensitive_headers_redacted", func(t *testing.T) {
		t.Parallel()
		h := &testLogHandler{}
		app := onion.New()
		app.Use(middleware.LoggingWithConfig(middleware.LoggingConfig{
			Logger:     slog.New(h),
			LogHeaders: true,
		})).Use(ok)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer secret")
		r.Header.Set("Accept", "text/plain")
		serve(app, r)

		require.Len(t, h.entries, 1)
		headers, isMap := h.entries[0]["request_headers"].(map[string]any)
		require.True(t, isMap)
		assert.Equal(t, "[REDACTED]", headers["Authorization"])
		assert.Equal(t, "text/plain", headers["Accept"])
	})
}

func TestResponseTime(t *testing.T) {
	t.Parallel()

	app := onion.New()
	app.Use(middleware.ResponseTime()).Use(ok)

	w := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, strings.HasSuffix(w.Header().Get("X-Response-Time"), "ms"))
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := middleware.NewMetrics(reg, "test")

	app := onion.New(onion.WithSilent(true))
	app.Use(middleware.MetricsEndpoint("/metrics", reg)).
		Use(m.Middleware()).
		Use(func(c *onion.Context, next onion.Next) error {
			if c.Path() == "/fail" {
				return errors.New("boom")
			}
			if c.Path() == "/ok" {
				c.SetBody("ok")
			}
			return nil
		})

	serve(app, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(app, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(app, httptest.NewRequest(http.MethodGet, "/missing", nil))
	serve(app, httptest.NewRequest(http.MethodPost, "/fail", nil))

	expected := `
# HELP test_http_requests_total Total HTTP requests by method and status class.
# TYPE test_http_requests_total counter
test_http_requests_total{method="GET",status="2xx"} 2
test_http_requests_total{method="GET",status="4xx"} 1
test_http_requests_total{method="POST",status="5xx"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_http_requests_total"))

	w := serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
	assert.Contains(t, w.Body.String(), "test_http_requests_in_flight")
}

func TestHTTPHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantBody   string
		wantType   string
		wantLength string
	}{
		{
			name: "json_body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"id":1}`))
			},
			wantStatus: http.StatusCreated,
			wantBody:   `{"id":1}`,
			wantType:   "application/json",
			wantLength: "8",
		},
		{
			name: "implicit_ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("plain"))
			},
			wantStatus: http.StatusOK,
			wantBody:   "plain",
			wantType:   "application/octet-stream",
			wantLength: "5",
		},
		{
			name: "status_only",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
			},
			wantStatus: http.StatusAccepted,
			wantBody:   "",
			wantType:   "",
			wantLength: "0",
		},
		{
			name:       "nothing_written",
			handler:    func(w http.ResponseWriter, r *http.Request) {},
			wantStatus: http.StatusOK,
			wantBody:   "",
			wantType:   "",
			wantLength: "0",
		},
		{
			name: "no_content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			wantStatus: http.StatusNoContent,
			wantBody:   "",
			wantType:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := onion.New()
			app.Use(func(c *onion.Context, next onion.Next) error {
				err := next()
				c.Set("X-Outer", "seen")
				return err
			}).Use(middleware.HTTPHandler(tt.handler))

			w := serve(app, httptest.NewRequest(http.MethodPost, "/", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			assert.Equal(t, tt.wantType, w.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantLength, w.Header().Get("Content-Length"))
			assert.Equal(t, "seen", w.Header().Get("X-Outer"))
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection refused")
	var dbDown bool
	var mu sync.Mutex

	app := onion.New(onion.WithSilent(true))
	app.Use(middleware.Liveness("/health/live")).
		Use(middleware.Ping("/ping")).
		Use(middleware.Readiness("/health/ready", slog.New(&testLogHandler{}),
			func(ctx context.Context) error { return ctx.Err() },
			func(context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				if dbDown {
					return dbErr
				}
				return nil
			},
		)).
		Use(ok)

	tests := []struct {
		name   string
		method string
		path   string
		down   bool
		status int
		body   string
	}{
		{name: "liveness", method: http.MethodGet, path: "/health/live", status: http.StatusOK, body: "ALIVE"},
		{name: "ping", method: http.MethodGet, path: "/ping", status: http.StatusNoContent, body: ""},
		{name: "ready", method: http.MethodGet, path: "/health/ready", status: http.StatusOK, body: "READY"},
		{name: "not_ready", method: http.MethodGet, path: "/health/ready", down: true, status: http.StatusServiceUnavailable, body: "Service Unavailable"},
		{name: "post_falls_through", method: http.MethodPost, path: "/health/live", status: http.StatusOK, body: "ok"},
		{name: "other_path", method: http.MethodGet, path: "/", status: http.StatusOK, body: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mu.Lock()
			dbDown = tt.down
			mu.Unlock()

			w := serve(app, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}
