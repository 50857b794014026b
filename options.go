package onion

import (
	"log/slog"

	"github.com/dmitrymomot/onion/core/cookie"
)

// Config holds application settings loadable from the environment or a
// YAML file (see core/config).
type Config struct {
	Env             string        `env:"APP_ENV" envDefault:"development" yaml:"env"`
	Keys            []string      `env:"APP_KEYS" envSeparator:"," yaml:"keys"`
	Proxy           bool          `env:"APP_PROXY" envDefault:"false" yaml:"proxy"`
	SubdomainOffset int           `env:"APP_SUBDOMAIN_OFFSET" envDefault:"2" yaml:"subdomain_offset"`
	ProxyIPHeader   string        `env:"APP_PROXY_IP_HEADER" envDefault:"X-Forwarded-For" yaml:"proxy_ip_header"`
	MaxIPsCount     int           `env:"APP_MAX_IPS_COUNT" envDefault:"0" yaml:"max_ips_count"`
	AmbientContext  bool          `env:"APP_AMBIENT_CONTEXT" envDefault:"false" yaml:"ambient_context"`
	Silent          bool          `env:"APP_SILENT" envDefault:"false" yaml:"silent"`
	Cookie          cookie.Config `envPrefix:"COOKIE_" yaml:"cookie"`
}

// Option configures an App during creation.
type Option func(*App)

// WithEnv sets the environment name. Empty keeps the default.
func WithEnv(env string) Option {
	return func(app *App) {
		if env != "" {
			app.Env = env
		}
	}
}

// WithKeys sets the cookie signing keys.
func WithKeys(keys ...string) Option {
	return func(app *App) {
		app.Keys = keys
	}
}

// WithProxy trusts X-Forwarded-* headers.
func WithProxy(proxy bool) Option {
	return func(app *App) {
		app.Proxy = proxy
	}
}

// WithSubdomainOffset sets how many trailing host labels Subdomains skips.
func WithSubdomainOffset(n int) Option {
	return func(app *App) {
		if n >= 0 {
			app.SubdomainOffset = n
		}
	}
}

// WithProxyIPHeader sets the header carrying the client address chain.
func WithProxyIPHeader(header string) Option {
	return func(app *App) {
		if header != "" {
			app.ProxyIPHeader = header
		}
	}
}

// WithMaxIPsCount limits how many trailing proxy addresses IPs returns.
// Zero means unlimited.
func WithMaxIPsCount(n int) Option {
	return func(app *App) {
		if n >= 0 {
			app.MaxIPsCount = n
		}
	}
}

// WithCompose replaces the function that composes the middleware list.
func WithCompose(fn ComposeFunc) Option {
	return func(app *App) {
		if fn != nil {
			app.compose = fn
		}
	}
}

// WithAmbientContext makes the current Context retrievable with
// FromContext from any context derived from the request.
func WithAmbientContext(enabled bool) Option {
	return func(app *App) {
		app.ambient = enabled
	}
}

// WithSilent disables the default error logging.
func WithSilent(silent bool) Option {
	return func(app *App) {
		app.Silent = silent
	}
}

// WithLogger sets the logger used by the default error listener.
func WithLogger(l *slog.Logger) Option {
	return func(app *App) {
		if l != nil {
			app.logger = l
		}
	}
}

// WithCookieOptions sets jar options applied to every Context.Cookies jar.
func WithCookieOptions(opts ...cookie.JarOption) Option {
	return func(app *App) {
		app.cookieOptions = append(app.cookieOptions, opts...)
	}
}
