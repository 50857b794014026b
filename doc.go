// Package onion is a small HTTP middleware core built around onion-style
// control flow. An App holds an ordered middleware list; every request
// runs the whole list, each middleware deciding when to call the rest of
// the chain and doing its own work on the way in and on the way out.
//
//	app := onion.New()
//
//	app.Use(func(c *onion.Context, next onion.Next) error {
//		start := time.Now()
//		err := next()
//		c.Set("X-Response-Time", time.Since(start).String())
//		return err
//	})
//
//	app.Use(func(c *onion.Context, next onion.Next) error {
//		c.SetBody(map[string]string{"hello": "world"})
//		return nil
//	})
//
//	app.Listen(ctx, ":8080")
//
// # Context
//
// Each request gets a Context that owns a Request and a Response.
// Frequently used members of both are available on the Context itself:
// c.Path(), c.Query(), c.Accepts("json") read the request, while
// c.SetStatus, c.SetBody, c.Set and c.Redirect shape the response.
// c.State carries data between middleware.
//
// # Responses
//
// Nothing is written while the chain runs. When the chain returns, the
// body left in the Context is written according to its kind: string,
// []byte, io.Reader (streamed) or any other value (JSON). Setting
// c.Respond to false leaves the transport to the middleware.
//
// # Errors
//
// A middleware fails by returning an error or panicking; c.Throw and
// c.Assert panic with an HTTPError. Errors not handled by an outer
// middleware are rendered as plain text with the status taken from the
// error (500 by default). Messages of client errors are exposed, messages
// of server errors are replaced with the status text. App.OnError
// subscribes to every handled error.
//
// # Packages
//
//	github.com/dmitrymomot/onion/core/config  - environment and YAML configuration loading
//	github.com/dmitrymomot/onion/core/cookie  - per-request cookie jar with signed cookies
//	github.com/dmitrymomot/onion/core/logger  - slog construction and attribute helpers
//	github.com/dmitrymomot/onion/core/server  - net/http and fasthttp servers with graceful shutdown
//	github.com/dmitrymomot/onion/middleware   - request ID, logging, metrics, timing and health middleware
package onion
