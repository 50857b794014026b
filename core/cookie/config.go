package cookie

import "net/http"

// Config holds cookie defaults loadable from the environment.
type Config struct {
	Path     string        `env:"PATH" envDefault:"/" yaml:"path"`
	Domain   string        `env:"DOMAIN" yaml:"domain"`
	MaxAge   int           `env:"MAX_AGE" envDefault:"0" yaml:"max_age"`
	Secure   bool          `env:"SECURE" envDefault:"false" yaml:"secure"`
	HttpOnly bool          `env:"HTTP_ONLY" envDefault:"true" yaml:"http_only"`
	SameSite http.SameSite `env:"SAME_SITE" envDefault:"2" yaml:"same_site"` // SameSiteLaxMode
	MaxSize  int           `env:"MAX_SIZE" envDefault:"4096" yaml:"max_size"`
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxSize:  MaxCookieSize,
	}
}

// JarOptions converts the config into jar options.
func (c Config) JarOptions() []JarOption {
	return []JarOption{
		WithDefaults(
			WithPath(c.Path),
			WithDomain(c.Domain),
			WithMaxAge(c.MaxAge),
			WithSecure(c.Secure),
			WithHTTPOnly(c.HttpOnly),
			WithSameSite(c.SameSite),
		),
		WithMaxSize(c.MaxSize),
	}
}
