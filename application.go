package onion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/valyala/fasthttp"

	"github.com/dmitrymomot/onion/core/cookie"
	"github.com/dmitrymomot/onion/core/logger"
	"github.com/dmitrymomot/onion/core/server"
)

// App holds the middleware list and application settings. Register
// middleware with Use, then serve the App as an http.Handler, through
// FastHTTPHandler, or with Listen.
//
//	app := onion.New()
//	app.Use(func(c *onion.Context, next onion.Next) error {
//		c.SetBody("Hello")
//		return nil
//	})
//	http.ListenAndServe(":8080", app)
type App struct {
	Env             string
	Keys            []string
	Proxy           bool
	SubdomainOffset int
	ProxyIPHeader   string
	MaxIPsCount     int
	Silent          bool

	// Context, Request and Response hold defaults visible through Value
	// on every per-request object of the matching kind.
	Context  *Template
	Request  *Template
	Response *Template

	mu            sync.RWMutex
	middleware    []Middleware
	compose       ComposeFunc
	handler       Handler
	listeners     []ErrorListener
	logger        *slog.Logger
	ambient       bool
	cookieOptions []cookie.JarOption
}

// New creates an App with default settings.
func New(opts ...Option) *App {
	app := &App{
		Env:             "development",
		SubdomainOffset: 2,
		ProxyIPHeader:   "X-Forwarded-For",
		Context:         newTemplate(),
		Request:         newTemplate(),
		Response:        newTemplate(),
		compose:         Compose,
		logger:          logger.New(),
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// NewFromConfig creates an App from cfg. opts are applied after the config.
func NewFromConfig(cfg Config, opts ...Option) *App {
	configOpts := []Option{
		WithEnv(cfg.Env),
		WithProxy(cfg.Proxy),
		WithSubdomainOffset(cfg.SubdomainOffset),
		WithProxyIPHeader(cfg.ProxyIPHeader),
		WithMaxIPsCount(cfg.MaxIPsCount),
		WithAmbientContext(cfg.AmbientContext),
		WithSilent(cfg.Silent),
		WithCookieOptions(cfg.Cookie.JarOptions()...),
	}
	if len(cfg.Keys) > 0 {
		configOpts = append(configOpts, WithKeys(cfg.Keys...))
	}
	return New(append(configOpts, opts...)...)
}

// Use appends mw to the middleware list. A nil mw panics.
func (app *App) Use(mw Middleware) *App {
	if mw == nil {
		panic(fmt.Errorf("%w: middleware must be a function", ErrInvalidMiddleware))
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	app.middleware = append(app.middleware, mw)
	app.handler = nil
	return app
}

// Middleware returns a copy of the registered middleware.
func (app *App) Middleware() []Middleware {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return append([]Middleware(nil), app.middleware...)
}

// Callback composes the middleware registered so far into an
// http.Handler. Middleware added later is not part of the returned handler.
func (app *App) Callback() http.Handler {
	h := app.composed()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.serve(h, r, newResponseWriter(w, r.Context()))
	})
}

// ServeHTTP implements http.Handler. The chain is composed on first use
// and recomposed after Use.
func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	app.serve(app.composed(), r, newResponseWriter(w, r.Context()))
}

// FastHTTPHandler returns a fasthttp handler running the same chain.
func (app *App) FastHTTPHandler() fasthttp.RequestHandler {
	return func(fctx *fasthttp.RequestCtx) {
		r, err := convertRequest(fctx)
		t := newFasthttpTransport(fctx)
		if err != nil {
			app.HandleError(err)
			t.SetStatusCode(http.StatusInternalServerError)
			_ = t.End([]byte(StatusText(http.StatusInternalServerError)))
			return
		}
		app.serve(app.composed(), r, t)
	}
}

// Listen serves the App on addr until ctx is canceled.
func (app *App) Listen(ctx context.Context, addr string, opts ...server.Option) error {
	opts = append([]server.Option{server.WithLogger(app.logger)}, opts...)
	return server.New(addr, opts...).Run(ctx, app)
}

// ListenFast is Listen on the fasthttp engine.
func (app *App) ListenFast(ctx context.Context, addr string, opts ...server.Option) error {
	opts = append([]server.Option{server.WithLogger(app.logger)}, opts...)
	return server.New(addr, opts...).RunFast(ctx, app.FastHTTPHandler())
}

func (app *App) composed() Handler {
	app.mu.RLock()
	h := app.handler
	app.mu.RUnlock()
	if h != nil {
		return h
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	if app.handler == nil {
		app.handler = app.compose(append([]Middleware(nil), app.middleware...))
	}
	return app.handler
}

type releaser interface {
	release()
}

func (app *App) serve(h Handler, r *http.Request, t Transport) {
	c := app.CreateContext(r, t)
	if app.ambient {
		c.req = r.WithContext(withContext(r.Context(), c))
		c.Request.req = c.req
	}
	app.handleRequest(c, h)
	if rel, ok := t.(releaser); ok {
		rel.release()
	}
}

// CreateContext builds the Context, Request and Response for one request
// and links them together.
func (app *App) CreateContext(r *http.Request, t Transport) *Context {
	c := &Context{
		locals:      locals{tmpl: app.Context},
		App:         app,
		State:       make(map[string]any),
		OriginalURL: r.URL.RequestURI(),
		Respond:     true,
		req:         r,
		res:         t,
	}
	req := &Request{
		locals:      locals{tmpl: app.Request},
		app:         app,
		req:         r,
		OriginalURL: c.OriginalURL,
	}
	res := &Response{
		locals: locals{tmpl: app.Response},
		app:    app,
		res:    t,
	}

	c.Request, c.Response = req, res
	req.response, res.request = res, req
	req.ctx, res.ctx = c, c
	return c
}

// handleRequest runs h for c and finalizes the response.
func (app *App) handleRequest(c *Context, h Handler) {
	c.res.SetStatusCode(http.StatusNotFound)
	c.res.OnFinish(c.OnError)

	if err := h(c, nil); err != nil {
		c.OnError(err)
		return
	}
	if err := respond(c); err != nil && !c.HeaderSent() {
		c.OnError(err)
	}
}

// ToJSON returns the public settings of the App.
func (app *App) ToJSON() map[string]any {
	return map[string]any{
		"subdomainOffset": app.SubdomainOffset,
		"proxy":           app.Proxy,
		"env":             app.Env,
	}
}

// MarshalJSON implements json.Marshaler using ToJSON.
func (app *App) MarshalJSON() ([]byte, error) {
	return json.Marshal(app.ToJSON())
}
