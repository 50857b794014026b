package middleware

import (
	"bytes"
	"net/http"

	"github.com/dmitrymomot/onion"
)

// HTTPHandler mounts a net/http handler as the end of the chain. Its
// output is buffered into the Context, so later middleware still sees and
// may change the status, headers and body.
func HTTPHandler(h http.Handler) onion.Middleware {
	return func(c *onion.Context, next onion.Next) error {
		w := &bufferedWriter{res: c.Response}
		h.ServeHTTP(w, c.Req())
		w.flush()
		return nil
	}
}

// bufferedWriter stages a handler's output on an onion Response.
type bufferedWriter struct {
	res         *onion.Response
	buf         bytes.Buffer
	status      int
	wroteHeader bool
}

func (w *bufferedWriter) Header() http.Header {
	return w.res.Header()
}

func (w *bufferedWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = status
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	return w.buf.Write(b)
}

func (w *bufferedWriter) flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	w.res.SetStatus(w.status)
	if onion.IsEmptyStatus(w.status) {
		return
	}
	if w.buf.Len() > 0 {
		w.res.SetBody(w.buf.Bytes())
		return
	}
	// An empty write still replaces the status fallback body.
	typed := w.res.Has("Content-Type")
	w.res.SetBody([]byte{})
	if !typed {
		w.res.Remove("Content-Type")
	}
}
