package onion

import (
	"context"
	"io"
	"net/http"
	"sync"
)

// Transport is the raw per-request output handle. Headers are staged in
// Header() until the first write; End and Pipe perform the terminal write.
type Transport interface {
	// Header returns the staged response headers.
	Header() http.Header
	// StatusCode returns the status that will be or was sent.
	StatusCode() int
	// SetStatusCode stages the response status.
	SetStatusCode(code int)
	// HeadersSent reports whether the status line and headers were written.
	HeadersSent() bool
	// Writable reports whether the transport can still accept a write.
	Writable() bool
	// FlushHeaders writes the staged status and headers immediately.
	FlushHeaders()
	// End writes body (may be nil) and finishes the response.
	End(body []byte) error
	// Pipe copies r to the client and finishes the response.
	Pipe(r io.Reader) error
	// OnFinish registers fn to run once when the response finishes.
	// fn receives the terminal I/O error, or nil on a clean finish.
	OnFinish(fn func(err error))
}

// responseWriter adapts http.ResponseWriter to Transport and tracks
// response state.
type responseWriter struct {
	http.ResponseWriter
	done <-chan struct{}

	mu        sync.Mutex
	status    int
	written   bool
	ended     bool
	finished  bool
	listeners []func(error)
}

// NewTransport wraps w for the request r. The transport stops being
// writable once r's context is canceled (client gone).
func NewTransport(w http.ResponseWriter, r *http.Request) Transport {
	return newResponseWriter(w, r.Context())
}

func newResponseWriter(w http.ResponseWriter, ctx context.Context) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		done:           ctx.Done(),
		status:         http.StatusOK,
	}
}

func (w *responseWriter) StatusCode() int {
	return w.status
}

func (w *responseWriter) SetStatusCode(code int) {
	if !w.written {
		w.status = code
	}
}

func (w *responseWriter) HeadersSent() bool {
	return w.written
}

func (w *responseWriter) Writable() bool {
	if w.ended {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.writeHeader()
}

func (w *responseWriter) writeHeader() {
	if !w.written {
		w.written = true
		w.ResponseWriter.WriteHeader(w.status)
	}
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.writeHeader()
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) FlushHeaders() {
	w.writeHeader()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseWriter) End(body []byte) error {
	if w.ended {
		return ErrNotWritable
	}
	w.ended = true
	w.writeHeader()

	var err error
	if len(body) > 0 {
		_, err = w.ResponseWriter.Write(body)
	}
	w.finish(err)
	return err
}

func (w *responseWriter) Pipe(r io.Reader) error {
	if w.ended {
		return ErrNotWritable
	}
	w.ended = true
	w.writeHeader()

	_, err := io.Copy(w.ResponseWriter, r)
	w.finish(err)
	return err
}

func (w *responseWriter) OnFinish(fn func(err error)) {
	w.mu.Lock()
	if !w.finished {
		w.listeners = append(w.listeners, fn)
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()
	fn(nil)
}

// Unwrap returns the underlying http.ResponseWriter for http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// finish runs the completion listeners exactly once.
func (w *responseWriter) finish(err error) {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return
	}
	w.finished = true
	listeners := w.listeners
	w.listeners = nil
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(err)
	}
}

// release finishes the response if the chain never ended it.
func (w *responseWriter) release() {
	w.finish(nil)
}
