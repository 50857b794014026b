package onion_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/onion"
)

func TestResponse_Status(t *testing.T) {
	t.Parallel()

	t.Run("set_and_message", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.SetStatus(http.StatusTeapot)
		assert.Equal(t, http.StatusTeapot, c.Status())
		assert.Equal(t, "I'm a teapot", c.Message())

		c.SetMessage("short and stout")
		assert.Equal(t, "short and stout", c.Message())

		c.SetStatus(http.StatusOK)
		assert.Equal(t, "OK", c.Message())
	})

	t.Run("invalid_code_panics", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		for _, code := range []int{0, 99, 1000} {
			err := recoverError(func() { c.SetStatus(code) })
			assert.ErrorIs(t, err, onion.ErrInvalidStatus, "code %d", code)
		}
	})

	t.Run("unregistered_code_is_allowed", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.SetStatus(799)
		assert.Equal(t, 799, c.Status())
		assert.Empty(t, c.Message())
	})

	t.Run("empty_status_clears_body", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.SetBody("hello")
		require.True(t, c.Has("Content-Type"))

		c.SetStatus(http.StatusNoContent)
		assert.Nil(t, c.Body())
		assert.False(t, c.Has("Content-Type"))
		assert.False(t, c.Has("Content-Length"))
	})

	t.Run("ignored_after_headers_sent", func(t *testing.T) {
		t.Parallel()
		c, w := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.SetStatus(http.StatusAccepted)
		c.FlushHeaders()
		assert.True(t, c.HeaderSent())

		c.SetStatus(http.StatusInternalServerError)
		c.Set("X-Late", "1")
		assert.Equal(t, http.StatusAccepted, c.Status())
		assert.False(t, c.Has("X-Late"))
		assert.Equal(t, http.StatusAccepted, w.Code)
	})
}

func TestResponse_Body(t *testing.T) {
	t.Parallel()

	newCtx := func() *onion.Context {
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		return c
	}

	t.Run("nil_forces_no_content", func(t *testing.T) {
		t.Parallel()
		c := newCtx()
		c.SetStatus(http.StatusOK)
		c.Set("Content-Type", "text/plain")
		c.SetBody(nil)
		assert.Equal(t, http.StatusNoContent, c.Status())
		assert.False(t, c.Has("Content-Type"))
	})

	t.Run("nil_with_json_type", func(t *testing.T) {
		t.Parallel()
		c := newCtx()
		c.SetStatus(http.StatusOK)
		c.SetType("json")
		c.SetBody(nil)
		assert.Equal(t, http.StatusOK, c.Status())
		assert.Equal(t, "null", c.Body())
	})

	t.Run("implicit_ok", func(t *testing.T) {
		t.Parallel()
		c := newCtx()
		c.Res().SetStatusCode(http.StatusNotFound)
		c.SetBody("found after all")
		assert.Equal(t, http.StatusOK, c.Status())
	})

	t.Run("explicit_status_kept", func(t *testing.T) {
		t.Parallel()
		c := newCtx()
		c.SetStatus(http.StatusCreated)
		c.SetBody(map[string]int{"id": 1})
		assert.Equal(t, http.StatusCreated, c.Status())
	})

	t.Run("string", func(t *testing.T) {
		t.Parallel()
		c := newCtx()
		c.SetBody("hello")
		assert.Equal(t, "text/plain; charset=utf-8", c.Response.Get("Content-Type"))
		assert.Equal(t, "5", c.Response.Get("Content-Length"))
		assert.EqualValues(t, 5, c.Length())
	})

	t.Run("html_string", func(t *testing.T) {
		t.Parallel()
		c := newCtx()
		c.SetBody("  <h1>Hi</h1>")
		assert.Equal(t, "text/html", c.Type())
	})

	t.Run("keeps_explicit_type", func(t *testing.T) {
		t.Parallel()
		c := newCtx()
		c.SetType("xml")
		c.SetBody("<a/>")
		assert.Equal(t, "application/xml", c.Type())
	})

	t.Run("bytes", func(t *testing.T) {
		t.Parallel()
		c := newCtx()
		c.SetBody([]byte{1, 2, 3})
		assert.Equal(t, "application/octet-stream", c.Type())
		assert.EqualValues(t, 3, c.Length())
	})

	t.Run("stream", func(t *testing.T) {
		t.Parallel()
		c := newCtx()
		c.SetBody("abc")
		c.SetBody(strings.NewReader("streamed"))
		assert.Equal(t, "text/plain", c.Type())
		assert.False(t, c.Has("Content-Length"))
		assert.EqualValues(t, 0, c.Length())
	})

	t.Run("replaced_stream_drops_length", func(t *testing.T) {
		t.Parallel()
		c := newCtx()
		pos := 0
		c.SetBody(chunkReader{chunks: []string{"ab"}, pos: &pos})
		c.Set("Content-Length", "2")
		assert.NotPanics(t, func() {
			c.SetBody(chunkReader{chunks: []string{"cd"}, pos: &pos})
		})
		assert.False(t, c.Has("Content-Length"))
	})

	t.Run("same_stream_keeps_length", func(t *testing.T) {
		t.Parallel()
		c := newCtx()
		r := strings.NewReader("streamed")
		c.SetBody(r)
		c.Set("Content-Length", "8")
		c.SetBody(r)
		assert.Equal(t, "8", c.Response.Get("Content-Length"))
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		c := newCtx()
		c.SetBody(map[string]int{"a": 1})
		assert.Equal(t, "application/json", c.Type())
		assert.False(t, c.Has("Content-Length"))
		assert.EqualValues(t, 7, c.Length())
		assert.Equal(t, "json", c.Response.Is("json", "html"))
	})
}

func TestResponse_Headers(t *testing.T) {
	t.Parallel()

	t.Run("set_multiple_values", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.Set("Link", "<a>", "<b>")
		assert.Equal(t, []string{"<a>", "<b>"}, c.Response.Header().Values("Link"))

		c.SetHeaders(http.Header{"X-A": {"1"}, "X-B": {"2"}})
		assert.Equal(t, "1", c.Response.Get("X-A"))
		assert.Equal(t, "2", c.Response.Get("X-B"))
	})

	t.Run("vary", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.Vary("Accept")
		c.Vary("Accept-Encoding, accept")
		assert.Equal(t, "Accept, Accept-Encoding", c.Response.Get("Vary"))

		c.Vary("*")
		assert.Equal(t, "*", c.Response.Get("Vary"))
		c.Vary("Origin")
		assert.Equal(t, "*", c.Response.Get("Vary"))
	})

	t.Run("etag", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.SetEtag("abc")
		assert.Equal(t, `"abc"`, c.Etag())
		c.SetEtag(`W/"weak"`)
		assert.Equal(t, `W/"weak"`, c.Etag())
	})

	t.Run("last_modified", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, c.LastModified().IsZero())

		ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
		c.SetLastModified(ts)
		assert.Equal(t, "Mon, 06 May 2024 07:08:09 GMT", c.Response.Get("Last-Modified"))
		assert.True(t, ts.Equal(c.LastModified()))
	})

	t.Run("type", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.SetType(".png")
		assert.Equal(t, "image/png", c.Type())
		c.SetType("text/html")
		assert.Equal(t, "text/html; charset=utf-8", c.Response.Get("Content-Type"))
		c.SetType("no-such-type")
		assert.False(t, c.Has("Content-Type"))
	})

	t.Run("zero_length", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.SetBody("")
		assert.Equal(t, "0", c.Response.Get("Content-Length"))
		c.SetLength(-1)
		assert.Equal(t, "0", c.Response.Get("Content-Length"))
	})

	t.Run("length_respects_transfer_encoding", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.Set("Transfer-Encoding", "chunked")
		c.SetLength(10)
		assert.False(t, c.Has("Content-Length"))
	})
}

func TestResponse_Redirect(t *testing.T) {
	t.Parallel()

	t.Run("plain_text", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", "application/json")
		c, _ := newContext(onion.New(), r)
		c.Redirect("/login")

		assert.Equal(t, http.StatusFound, c.Status())
		assert.Equal(t, "/login", c.Response.Get("Location"))
		assert.Equal(t, "text/plain", c.Type())
		assert.Equal(t, "Redirecting to /login.", c.Body())
	})

	t.Run("html", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", "text/html")
		c, _ := newContext(onion.New(), r)
		c.Redirect("/a?b=1&c=2")

		assert.Equal(t, "text/html", c.Type())
		assert.Equal(t, `Redirecting to <a href="/a?b=1&amp;c=2">/a?b=1&amp;c=2</a>.`, c.Body())
	})

	t.Run("back_uses_referrer", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Referer", "/previous")
		c, _ := newContext(onion.New(), r)
		c.Redirect("back", "/fallback")
		assert.Equal(t, "/previous", c.Response.Get("Location"))
	})

	t.Run("back_uses_alt", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.Redirect("back", "/fallback")
		assert.Equal(t, "/fallback", c.Response.Get("Location"))
	})

	t.Run("back_defaults_to_root", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.Redirect("back")
		assert.Equal(t, "/", c.Response.Get("Location"))
	})

	t.Run("keeps_redirect_status", func(t *testing.T) {
		t.Parallel()
		c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
		c.SetStatus(http.StatusMovedPermanently)
		c.Redirect("https://example.org/new path")
		assert.Equal(t, http.StatusMovedPermanently, c.Status())
		assert.Equal(t, "https://example.org/new%20path", c.Response.Get("Location"))
	})
}

func TestResponse_Attachment(t *testing.T) {
	t.Parallel()

	c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
	c.Attachment()
	assert.Equal(t, "attachment", c.Response.Get("Content-Disposition"))

	c.Attachment("reports/2024/summary.pdf")
	assert.Equal(t, "attachment; filename=summary.pdf", c.Response.Get("Content-Disposition"))
	assert.Equal(t, "application/pdf", c.Type())
}

func TestResponse_ToJSON(t *testing.T) {
	t.Parallel()

	c, _ := newContext(onion.New(), httptest.NewRequest(http.MethodGet, "/", nil))
	c.SetStatus(http.StatusAccepted)
	c.Set("X-Id", "1")

	out := c.Response.ToJSON()
	assert.Equal(t, http.StatusAccepted, out["status"])
	assert.Equal(t, "Accepted", out["message"])
	assert.Equal(t, "1", out["header"].(http.Header).Get("X-Id"))
}

type trackingReader struct {
	io.Reader
	closed bool
}

func (r *trackingReader) Close() error {
	r.closed = true
	return nil
}

// chunkReader has a value receiver and an uncomparable field.
type chunkReader struct {
	chunks []string
	pos    *int
}

func (r chunkReader) Read(p []byte) (int, error) {
	if *r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[*r.pos])
	*r.pos++
	return n, nil
}
