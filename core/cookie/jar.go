package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"
)

const (
	// MaxCookieSize is the maximum size for a cookie (4KB).
	MaxCookieSize = 4096
	// sigSuffix names the companion cookie holding a signature.
	sigSuffix = ".sig"
)

// Jar reads cookies from one request and stages Set-Cookie headers on its
// response headers.
type Jar struct {
	req      *http.Request
	header   http.Header
	keys     []string
	secure   bool
	defaults Options
	maxSize  int
}

// JarOption configures a Jar.
type JarOption func(*Jar)

// WithKeys sets the signing keys. The first key signs; all keys verify.
func WithKeys(keys ...string) JarOption {
	return func(j *Jar) {
		j.keys = slices.DeleteFunc(slices.Clone(keys), func(k string) bool { return k == "" })
	}
}

// WithSecureRequest marks the connection as encrypted, allowing Secure cookies.
func WithSecureRequest(secure bool) JarOption {
	return func(j *Jar) { j.secure = secure }
}

// WithDefaults sets the attributes applied before per-call options.
func WithDefaults(opts ...Option) JarOption {
	return func(j *Jar) { j.defaults = applyOptions(j.defaults, opts) }
}

// WithMaxSize overrides the Set-Cookie size limit.
func WithMaxSize(size int) JarOption {
	return func(j *Jar) {
		if size > 0 {
			j.maxSize = size
		}
	}
}

// NewJar creates a jar over r's cookies writing to header.
func NewJar(r *http.Request, header http.Header, opts ...JarOption) *Jar {
	j := &Jar{
		req:    r,
		header: header,
		defaults: Options{
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		maxSize: MaxCookieSize,
	}
	for _, opt := range opts {
		opt(j)
	}
	if len(j.keys) > 0 {
		j.defaults.Signed = true
	}
	return j
}

// Get returns the cookie value. Signed reads verify "<name>.sig"; a value
// signed with an older key is re-signed with the current one.
func (j *Jar) Get(name string, opts ...Option) (string, error) {
	o := applyOptions(j.defaults, opts)

	c, err := j.req.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	if !o.Signed {
		return c.Value, nil
	}
	if len(j.keys) == 0 {
		return "", ErrNoKeys
	}

	sig, err := j.req.Cookie(name + sigSuffix)
	if err != nil {
		return "", ErrInvalidSignature
	}
	idx := j.keyIndex(name+"="+c.Value, sig.Value)
	if idx < 0 {
		j.expire(name+sigSuffix, o)
		return "", ErrInvalidSignature
	}
	if idx > 0 {
		j.write(&http.Cookie{Name: name + sigSuffix, Value: j.sign(name + "=" + c.Value)}, o)
	}
	return c.Value, nil
}

// Set stages a Set-Cookie header, plus its signature when signing is on.
func (j *Jar) Set(name, value string, opts ...Option) error {
	o := applyOptions(j.defaults, opts)

	if name == "" || strings.ContainsAny(name, "=;, \t\r\n") {
		return ErrInvalidName
	}
	if o.Secure && !j.secure {
		return ErrInsecureCookie
	}
	if o.Signed && len(j.keys) == 0 {
		return ErrNoKeys
	}

	c := &http.Cookie{Name: name, Value: value}
	if value == "" {
		o.MaxAge = -1
		o.Expires = time.Unix(0, 0)
	}
	if err := j.write(c, o); err != nil {
		return err
	}
	if o.Signed {
		return j.write(&http.Cookie{Name: name + sigSuffix, Value: j.sign(name + "=" + value)}, o)
	}
	return nil
}

// Delete expires the cookie and its signature.
func (j *Jar) Delete(name string, opts ...Option) error {
	return j.Set(name, "", opts...)
}

func (j *Jar) expire(name string, o Options) {
	o.MaxAge = -1
	o.Expires = time.Unix(0, 0)
	_ = j.write(&http.Cookie{Name: name}, o)
}

func (j *Jar) write(c *http.Cookie, o Options) error {
	c.Path = o.Path
	c.Domain = o.Domain
	c.MaxAge = o.MaxAge
	c.Expires = o.Expires
	c.Secure = o.Secure
	c.HttpOnly = o.HttpOnly
	c.SameSite = o.SameSite

	line := c.String()
	if len(line) > j.maxSize {
		return ErrCookieTooLarge{Name: c.Name, Size: len(line), Max: j.maxSize}
	}

	if o.Overwrite {
		prefix := c.Name + "="
		kept := slices.DeleteFunc(j.header.Values("Set-Cookie"), func(v string) bool {
			return strings.HasPrefix(v, prefix)
		})
		j.header.Del("Set-Cookie")
		for _, v := range kept {
			j.header.Add("Set-Cookie", v)
		}
	}
	j.header.Add("Set-Cookie", line)
	return nil
}

func (j *Jar) sign(data string) string {
	return signWith(j.keys[0], data)
}

// keyIndex returns the index of the key that produced sig, or -1.
func (j *Jar) keyIndex(data, sig string) int {
	return slices.IndexFunc(j.keys, func(key string) bool {
		return subtle.ConstantTimeCompare([]byte(sig), []byte(signWith(key, data))) == 1
	})
}

func signWith(key, data string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
