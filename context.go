package onion

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/onion/core/cookie"
)

// Context is the per-request object every middleware receives. It owns the
// Request and Response of one request and forwards the most used
// operations of both (see context_delegates.go).
//
// Context implements context.Context on top of the inbound request context,
// so it can be passed to any API that takes a context.
type Context struct {
	locals

	App      *App
	Request  *Request
	Response *Response

	// State is a namespace for passing data between middleware.
	State map[string]any

	// OriginalURL is the request URI as received.
	OriginalURL string

	// Respond disables response finalization when false, leaving the
	// transport to the middleware.
	Respond bool

	req     *http.Request
	res     Transport
	cookies *cookie.Jar
}

// Deadline delegates to the request context.
func (c *Context) Deadline() (time.Time, bool) {
	return c.req.Context().Deadline()
}

// Done delegates to the request context.
func (c *Context) Done() <-chan struct{} {
	return c.req.Context().Done()
}

// Err delegates to the request context.
func (c *Context) Err() error {
	return c.req.Context().Err()
}

// Value returns a context-local value, then an App.Context default, then
// a value of the request context.
func (c *Context) Value(key any) any {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return c.req.Context().Value(key)
}

// SetValue stores a context-local value.
func (c *Context) SetValue(key, val any) {
	c.set(key, val)
}

// Req returns the underlying *http.Request.
func (c *Context) Req() *http.Request {
	return c.req
}

// Res returns the raw Transport.
func (c *Context) Res() Transport {
	return c.res
}

// Cookies returns the request cookie jar. Signed cookies use App.Keys.
func (c *Context) Cookies() *cookie.Jar {
	if c.cookies == nil {
		opts := []cookie.JarOption{
			cookie.WithKeys(c.App.Keys...),
			cookie.WithSecureRequest(c.Request.Secure()),
		}
		c.cookies = cookie.NewJar(c.req, c.res.Header(), append(opts, c.App.cookieOptions...)...)
	}
	return c.cookies
}

// Throw aborts the current middleware with an HTTPError. The composer
// recovers it and the error handler renders it.
//
//	c.Throw(http.StatusForbidden, "access denied")
func (c *Context) Throw(status int, message ...string) {
	panic(NewHTTPError(status, message...))
}

// Assert calls Throw when ok is false.
func (c *Context) Assert(ok bool, status int, message ...string) {
	if !ok {
		c.Throw(status, message...)
	}
}

// ToJSON returns a serializable snapshot of the context.
func (c *Context) ToJSON() map[string]any {
	return map[string]any{
		"request":     c.Request.ToJSON(),
		"response":    c.Response.ToJSON(),
		"app":         c.App.ToJSON(),
		"originalUrl": c.OriginalURL,
		"req":         "<original http.Request>",
		"res":         "<original Transport>",
	}
}
