package onion

import (
	"io"
	"net/http"
	"sync"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// fasthttpTransport adapts fasthttp.RequestCtx to Transport. fasthttp sends
// the response after the handler returns, so End and Pipe only stage the
// final status, headers and body on the RequestCtx.
type fasthttpTransport struct {
	ctx    *fasthttp.RequestCtx
	header http.Header
	status int

	mu        sync.Mutex
	committed bool
	ended     bool
	piped     bool
	finished  bool
	listeners []func(error)
}

func newFasthttpTransport(ctx *fasthttp.RequestCtx) *fasthttpTransport {
	return &fasthttpTransport{
		ctx:    ctx,
		header: make(http.Header),
		status: http.StatusOK,
	}
}

func (t *fasthttpTransport) Header() http.Header {
	return t.header
}

func (t *fasthttpTransport) StatusCode() int {
	return t.status
}

func (t *fasthttpTransport) SetStatusCode(code int) {
	if !t.committed {
		t.status = code
	}
}

func (t *fasthttpTransport) HeadersSent() bool {
	return t.committed
}

func (t *fasthttpTransport) Writable() bool {
	return !t.ended
}

func (t *fasthttpTransport) FlushHeaders() {
	t.commit()
}

// commit copies the staged status and headers onto the fasthttp response.
func (t *fasthttpTransport) commit() {
	if t.committed {
		return
	}
	t.committed = true

	t.ctx.SetStatusCode(t.status)
	for key, values := range t.header {
		t.ctx.Response.Header.Del(key)
		for _, v := range values {
			t.ctx.Response.Header.Add(key, v)
		}
	}
}

func (t *fasthttpTransport) End(body []byte) error {
	if t.ended {
		return ErrNotWritable
	}
	t.ended = true
	t.commit()

	if len(body) > 0 {
		t.ctx.SetBody(body)
	} else {
		t.ctx.Response.ResetBody()
	}
	t.finish(nil)
	return nil
}

// Pipe hands r to fasthttp, which drains it after the handler returns.
// The response finishes when fasthttp closes the stream.
func (t *fasthttpTransport) Pipe(r io.Reader) error {
	if t.ended {
		return ErrNotWritable
	}
	t.ended = true
	t.piped = true
	t.commit()

	t.ctx.SetBodyStream(&finishingReader{r: r, t: t}, -1)
	return nil
}

// finishingReader remembers the first read error of a piped body and
// finishes the transport with it when fasthttp closes the stream.
type finishingReader struct {
	r   io.Reader
	t   *fasthttpTransport
	err error
}

func (f *finishingReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err != nil && err != io.EOF && f.err == nil {
		f.err = err
	}
	return n, err
}

// Close does not close the wrapped reader; the body's own finish listener does.
func (f *finishingReader) Close() error {
	f.t.finish(f.err)
	return nil
}

func (t *fasthttpTransport) OnFinish(fn func(err error)) {
	t.mu.Lock()
	if !t.finished {
		t.listeners = append(t.listeners, fn)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	fn(nil)
}

func (t *fasthttpTransport) finish(err error) {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	listeners := t.listeners
	t.listeners = nil
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(err)
	}
}

// release finishes the response unless the body stream now belongs to fasthttp.
func (t *fasthttpTransport) release() {
	if t.piped {
		return
	}
	t.finish(nil)
}

// convertRequest builds the net/http view of a fasthttp request.
func convertRequest(ctx *fasthttp.RequestCtx) (*http.Request, error) {
	r := new(http.Request)
	if err := fasthttpadaptor.ConvertRequest(ctx, r, true); err != nil {
		return nil, err
	}
	return r, nil
}
