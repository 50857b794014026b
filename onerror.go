package onion

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/onion/core/logger"
)

// ErrorListener receives every error the application handles.
// c is nil for errors reported outside a request.
type ErrorListener func(err error, c *Context)

// OnError renders err as the response. It is the single sink for chain
// failures and transport errors and is safe to call more than once: once
// headers are out it only reports the error.
func (c *Context) OnError(err error) {
	if err == nil {
		return
	}

	res := c.Response
	if res.HeaderSent() || !res.Writable() {
		c.App.emitError(fmt.Errorf("%w: %w", ErrHeadersSent, err), c)
		return
	}

	c.App.emitError(err, c)

	h := c.res.Header()
	for k := range h {
		delete(h, k)
	}

	var hr headerer
	if errors.As(err, &hr) {
		for k, vs := range hr.ResponseHeaders() {
			for _, v := range vs {
				h.Add(k, v)
			}
		}
	}

	status := ErrorStatus(err)
	msg := StatusText(status)
	var ex exposer
	if errors.As(err, &ex) && ex.Exposed() {
		msg = err.Error()
	}

	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(msg)))
	c.res.SetStatusCode(status)
	res.explicitStatus = true
	res.message = ""
	res.body, res.hasBody = msg, true

	// A failed write reaches the listeners through the transport's finish hook.
	_ = c.res.End([]byte(msg))
}

// ErrorStatus returns the status the error handler responds with for err:
// the error's own StatusCode when valid, 404 for fs.ErrNotExist, else 500.
func ErrorStatus(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		if s := sc.StatusCode(); s >= 100 && s <= 999 && StatusText(s) != "" {
			return s
		}
		return http.StatusInternalServerError
	}
	if errors.Is(err, fs.ErrNotExist) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// OnError subscribes fn to handled errors. Subscribing replaces the
// default logging listener.
func (app *App) OnError(fn ErrorListener) *App {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.listeners = append(app.listeners, fn)
	return app
}

// HandleError reports err to the error listeners outside of any request.
// A nil err is a programming error and panics.
func (app *App) HandleError(err error) {
	if err == nil {
		panic(fmt.Errorf("%w: nil", ErrNonError))
	}
	app.emitError(err, nil)
}

func (app *App) emitError(err error, c *Context) {
	app.mu.RLock()
	listeners := app.listeners
	app.mu.RUnlock()

	if len(listeners) == 0 {
		app.logError(err, c)
		return
	}
	for _, fn := range listeners {
		fn(err, c)
	}
}

// logError is the default listener. Client errors and exposed errors are
// not logged.
func (app *App) logError(err error, c *Context) {
	if app.Silent {
		return
	}
	if ErrorStatus(err) == http.StatusNotFound {
		return
	}
	var ex exposer
	if errors.As(err, &ex) && ex.Exposed() {
		return
	}

	attrs := []any{logger.Error(err)}
	if c != nil {
		attrs = append(attrs, logger.Method(c.Method()), logger.Path(c.Path()))
	}
	var pe PanicError
	if errors.As(err, &pe) {
		attrs = append(attrs, logger.Trace(indent(string(pe.Stack()))))
	}
	app.logger.Error("request failed", attrs...)
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
