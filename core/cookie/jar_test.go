package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/onion/core/cookie"
)

// replay copies the Set-Cookie headers of h into a new request.
func replay(t *testing.T, h http.Header) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range (&http.Response{Header: h}).Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestJar_Unsigned(t *testing.T) {
	t.Parallel()

	t.Run("set_and_get", func(t *testing.T) {
		t.Parallel()
		h := http.Header{}
		jar := cookie.NewJar(httptest.NewRequest(http.MethodGet, "/", nil), h)
		require.NoError(t, jar.Set("theme", "dark", cookie.WithMaxAge(60)))

		line := h.Get("Set-Cookie")
		assert.Contains(t, line, "theme=dark")
		assert.Contains(t, line, "Max-Age=60")
		assert.Contains(t, line, "HttpOnly")

		got, err := cookie.NewJar(replay(t, h), http.Header{}).Get("theme")
		require.NoError(t, err)
		assert.Equal(t, "dark", got)
	})

	t.Run("missing_cookie", func(t *testing.T) {
		t.Parallel()
		jar := cookie.NewJar(httptest.NewRequest(http.MethodGet, "/", nil), http.Header{})
		_, err := jar.Get("nope")
		assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
	})

	t.Run("secure_over_http_is_refused", func(t *testing.T) {
		t.Parallel()
		jar := cookie.NewJar(httptest.NewRequest(http.MethodGet, "/", nil), http.Header{})
		err := jar.Set("id", "1", cookie.WithSecure(true))
		assert.ErrorIs(t, err, cookie.ErrInsecureCookie)
	})

	t.Run("secure_over_https_is_allowed", func(t *testing.T) {
		t.Parallel()
		h := http.Header{}
		jar := cookie.NewJar(httptest.NewRequest(http.MethodGet, "/", nil), h, cookie.WithSecureRequest(true))
		require.NoError(t, jar.Set("id", "1", cookie.WithSecure(true)))
		assert.Contains(t, h.Get("Set-Cookie"), "Secure")
	})

	t.Run("delete_expires_cookie", func(t *testing.T) {
		t.Parallel()
		h := http.Header{}
		jar := cookie.NewJar(httptest.NewRequest(http.MethodGet, "/", nil), h)
		require.NoError(t, jar.Delete("theme"))
		assert.Contains(t, h.Get("Set-Cookie"), "Max-Age=0")
	})

	t.Run("overwrite_replaces_previous_header", func(t *testing.T) {
		t.Parallel()
		h := http.Header{}
		jar := cookie.NewJar(httptest.NewRequest(http.MethodGet, "/", nil), h)
		require.NoError(t, jar.Set("a", "1"))
		require.NoError(t, jar.Set("b", "2"))
		require.NoError(t, jar.Set("a", "3", cookie.WithOverwrite(true)))

		values := h.Values("Set-Cookie")
		require.Len(t, values, 2)
		assert.True(t, strings.HasPrefix(values[0], "b=2"))
		assert.True(t, strings.HasPrefix(values[1], "a=3"))
	})

	t.Run("too_large", func(t *testing.T) {
		t.Parallel()
		jar := cookie.NewJar(httptest.NewRequest(http.MethodGet, "/", nil), http.Header{}, cookie.WithMaxSize(32))
		err := jar.Set("big", strings.Repeat("x", 64))
		var tooLarge cookie.ErrCookieTooLarge
		require.ErrorAs(t, err, &tooLarge)
		assert.Equal(t, "big", tooLarge.Name)
	})
}

func TestJar_Signed(t *testing.T) {
	t.Parallel()

	t.Run("round_trip", func(t *testing.T) {
		t.Parallel()
		h := http.Header{}
		jar := cookie.NewJar(httptest.NewRequest(http.MethodGet, "/", nil), h, cookie.WithKeys("k1"))
		require.NoError(t, jar.Set("user", "42"))
		assert.Len(t, h.Values("Set-Cookie"), 2)

		got, err := cookie.NewJar(replay(t, h), http.Header{}, cookie.WithKeys("k1")).Get("user")
		require.NoError(t, err)
		assert.Equal(t, "42", got)
	})

	t.Run("tampered_value", func(t *testing.T) {
		t.Parallel()
		h := http.Header{}
		jar := cookie.NewJar(httptest.NewRequest(http.MethodGet, "/", nil), h, cookie.WithKeys("k1"))
		require.NoError(t, jar.Set("user", "42"))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range (&http.Response{Header: h}).Cookies() {
			if c.Name == "user" {
				c.Value = "1"
			}
			r.AddCookie(c)
		}
		_, err := cookie.NewJar(r, http.Header{}, cookie.WithKeys("k1")).Get("user")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})

	t.Run("rotated_key_resigns", func(t *testing.T) {
		t.Parallel()
		h := http.Header{}
		old := cookie.NewJar(httptest.NewRequest(http.MethodGet, "/", nil), h, cookie.WithKeys("old"))
		require.NoError(t, old.Set("user", "42"))

		out := http.Header{}
		got, err := cookie.NewJar(replay(t, h), out, cookie.WithKeys("new", "old")).Get("user")
		require.NoError(t, err)
		assert.Equal(t, "42", got)
		assert.Contains(t, out.Get("Set-Cookie"), "user.sig=")
	})

	t.Run("signed_without_keys", func(t *testing.T) {
		t.Parallel()
		jar := cookie.NewJar(httptest.NewRequest(http.MethodGet, "/", nil), http.Header{})
		err := jar.Set("user", "42", cookie.WithSigned(true))
		assert.ErrorIs(t, err, cookie.ErrNoKeys)
	})
}

func TestConfig_JarOptions(t *testing.T) {
	t.Parallel()

	cfg := cookie.DefaultConfig()
	cfg.Path = "/app"
	cfg.HttpOnly = false

	h := http.Header{}
	jar := cookie.NewJar(httptest.NewRequest(http.MethodGet, "/", nil), h, cfg.JarOptions()...)
	require.NoError(t, jar.Set("a", "b"))

	line := h.Get("Set-Cookie")
	assert.Contains(t, line, "Path=/app")
	assert.NotContains(t, line, "HttpOnly")
}
