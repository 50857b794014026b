package cookie

import (
	"net/http"
	"time"
)

// Options are the attributes of a single Set-Cookie.
type Options struct {
	Path     string
	Domain   string
	MaxAge   int
	Expires  time.Time
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
	// Signed adds a "<name>.sig" companion cookie and verifies it on Get.
	Signed bool
	// Overwrite drops earlier Set-Cookie headers for the same name.
	Overwrite bool
}

// Option mutates Options.
type Option func(*Options)

func WithPath(path string) Option {
	return func(o *Options) { o.Path = path }
}

func WithDomain(domain string) Option {
	return func(o *Options) { o.Domain = domain }
}

func WithMaxAge(seconds int) Option {
	return func(o *Options) { o.MaxAge = seconds }
}

func WithExpires(t time.Time) Option {
	return func(o *Options) { o.Expires = t }
}

func WithSecure(secure bool) Option {
	return func(o *Options) { o.Secure = secure }
}

func WithHTTPOnly(httpOnly bool) Option {
	return func(o *Options) { o.HttpOnly = httpOnly }
}

func WithSameSite(sameSite http.SameSite) Option {
	return func(o *Options) { o.SameSite = sameSite }
}

// WithSigned toggles HMAC signing; the jar signs by default when it has keys.
func WithSigned(signed bool) Option {
	return func(o *Options) { o.Signed = signed }
}

func WithOverwrite(overwrite bool) Option {
	return func(o *Options) { o.Overwrite = overwrite }
}

func applyOptions(base Options, opts []Option) Options {
	for _, opt := range opts {
		opt(&base)
	}
	return base
}
