package onion

import "context"

type ambientKey struct{}

func withContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, ambientKey{}, c)
}

// FromContext returns the Context of the request ctx belongs to. It only
// finds one when the App runs with WithAmbientContext or the chain
// includes App.AmbientContext.
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(ambientKey{}).(*Context)
	return c, ok && c != nil
}

// CurrentContext is FromContext restricted to contexts of this App.
func (app *App) CurrentContext(ctx context.Context) *Context {
	c, ok := FromContext(ctx)
	if !ok || c.App != app {
		return nil
	}
	return c
}

// AmbientContext returns middleware that makes the Context reachable with
// FromContext for the rest of the chain, for apps that did not enable it
// globally.
func (app *App) AmbientContext() Middleware {
	return func(c *Context, next Next) error {
		if _, ok := FromContext(c.req.Context()); ok {
			return next()
		}
		prev := c.req
		c.req = prev.WithContext(withContext(prev.Context(), c))
		c.Request.req = c.req
		defer func() {
			c.req = prev
			c.Request.req = prev
		}()
		return next()
	}
}
