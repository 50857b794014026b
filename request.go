package onion

import (
	"mime"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Socket describes the connection a request arrived on.
type Socket struct {
	RemoteAddr string
	LocalAddr  net.Addr
	Encrypted  bool
}

// Request is the request-facing half of a Context. It wraps the inbound
// *http.Request and caches derived values until a setter invalidates them.
type Request struct {
	locals

	app      *App
	ctx      *Context
	response *Response
	req      *http.Request

	// OriginalURL is the request URL before any middleware rewrote it.
	OriginalURL string

	accept   *Accepts
	socket   *Socket
	rawQuery string
	query    url.Values
}

// Context returns the owning Context.
func (r *Request) Context() *Context {
	return r.ctx
}

// Req returns the underlying *http.Request.
func (r *Request) Req() *http.Request {
	return r.req
}

// Value returns a request-local value, falling back to App.Request defaults.
func (r *Request) Value(key any) any {
	v, _ := r.lookup(key)
	return v
}

// SetValue stores a request-local value.
func (r *Request) SetValue(key, val any) {
	r.set(key, val)
}

// Header returns the request headers.
func (r *Request) Header() http.Header {
	return r.req.Header
}

// Headers is an alias of Header.
func (r *Request) Headers() http.Header {
	return r.req.Header
}

// URL returns the request URI (path and query).
func (r *Request) URL() string {
	return r.req.URL.RequestURI()
}

// SetURL rewrites the request URI.
func (r *Request) SetURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}
	r.req.URL = u
	r.req.RequestURI = raw
	return nil
}

// Method returns the request method.
func (r *Request) Method() string {
	return r.req.Method
}

// SetMethod overrides the request method.
func (r *Request) SetMethod(method string) {
	r.req.Method = method
}

// Path returns the request path.
func (r *Request) Path() string {
	return r.req.URL.Path
}

// SetPath rewrites the request path, keeping the query string.
func (r *Request) SetPath(path string) {
	if r.req.URL.Path == path {
		return
	}
	r.req.URL.Path = path
	r.req.URL.RawPath = ""
}

// Querystring returns the raw query string without the leading "?".
func (r *Request) Querystring() string {
	return r.req.URL.RawQuery
}

// SetQuerystring replaces the raw query string.
func (r *Request) SetQuerystring(qs string) {
	r.req.URL.RawQuery = qs
	r.query = nil
}

// Search returns the query string with a leading "?", or "".
func (r *Request) Search() string {
	if r.req.URL.RawQuery == "" {
		return ""
	}
	return "?" + r.req.URL.RawQuery
}

// SetSearch replaces the query string; a leading "?" is optional.
func (r *Request) SetSearch(search string) {
	r.SetQuerystring(strings.TrimPrefix(search, "?"))
}

// Query returns the parsed query string. The result is cached until the
// query string changes.
func (r *Request) Query() url.Values {
	raw := r.req.URL.RawQuery
	if r.query == nil || r.rawQuery != raw {
		q, _ := url.ParseQuery(raw)
		r.query, r.rawQuery = q, raw
	}
	return r.query
}

// SetQuery replaces the query string with the encoded values.
func (r *Request) SetQuery(v url.Values) {
	r.SetQuerystring(v.Encode())
}

// Origin returns protocol and host, e.g. "https://example.com".
func (r *Request) Origin() string {
	return r.Protocol() + "://" + r.Host()
}

// Href returns the full request URL.
func (r *Request) Href() string {
	if strings.HasPrefix(r.OriginalURL, "http://") || strings.HasPrefix(r.OriginalURL, "https://") {
		return r.OriginalURL
	}
	return r.Origin() + r.OriginalURL
}

// Protocol returns "https" or "http". X-Forwarded-Proto is trusted only
// when the application runs behind a proxy.
func (r *Request) Protocol() string {
	if r.Socket().Encrypted {
		return "https"
	}
	if !r.app.Proxy {
		return "http"
	}
	if proto := firstValue(r.Get("X-Forwarded-Proto")); proto != "" {
		return proto
	}
	return "http"
}

// Secure reports whether the request came over https.
func (r *Request) Secure() bool {
	return r.Protocol() == "https"
}

// Host returns the host with port. X-Forwarded-Host is trusted only when
// the application runs behind a proxy.
func (r *Request) Host() string {
	var host string
	if r.app.Proxy {
		host = r.Get("X-Forwarded-Host")
	}
	if host == "" {
		host = r.req.Host
	}
	return firstValue(host)
}

// Hostname returns the host without port.
func (r *Request) Hostname() string {
	host := r.Host()
	if host == "" {
		return ""
	}
	return (&url.URL{Host: host}).Hostname()
}

// Subdomains returns the subdomains in reverse order, skipping the
// application's SubdomainOffset. "tobi.ferrets.example.com" yields
// ["ferrets", "tobi"] with the default offset of 2.
func (r *Request) Subdomains() []string {
	hostname := r.Hostname()
	if hostname == "" || net.ParseIP(hostname) != nil {
		return []string{}
	}
	parts := strings.Split(hostname, ".")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	if r.app.SubdomainOffset >= len(parts) {
		return []string{}
	}
	return parts[r.app.SubdomainOffset:]
}

// IPs returns the client address chain from the proxy IP header when the
// application runs behind a proxy, limited to the last MaxIPsCount entries.
func (r *Request) IPs() []string {
	val := r.Get(r.app.ProxyIPHeader)
	if !r.app.Proxy || val == "" {
		return []string{}
	}
	ips := splitValues(val)
	if n := r.app.MaxIPsCount; n > 0 && len(ips) > n {
		ips = ips[len(ips)-n:]
	}
	return ips
}

// IP returns the client address.
func (r *Request) IP() string {
	if ips := r.IPs(); len(ips) > 0 {
		return ips[0]
	}
	addr := r.Socket().RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Socket returns the connection description.
func (r *Request) Socket() *Socket {
	if r.socket == nil {
		s := &Socket{
			RemoteAddr: r.req.RemoteAddr,
			Encrypted:  r.req.TLS != nil,
		}
		if addr, ok := r.req.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
			s.LocalAddr = addr
		}
		r.socket = s
	}
	return r.socket
}

// SetSocket replaces the connection description.
func (r *Request) SetSocket(s *Socket) {
	r.socket = s
}

// Idempotent reports whether the method is idempotent.
func (r *Request) Idempotent() bool {
	switch r.req.Method {
	case http.MethodGet, http.MethodHead, http.MethodPut,
		http.MethodDelete, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// Fresh reports whether the client cache is still valid for the response
// being built (conditional GET/HEAD).
func (r *Request) Fresh() bool {
	method := r.req.Method
	if method != http.MethodGet && method != http.MethodHead {
		return false
	}
	s := r.ctx.Status()
	if (s >= 200 && s < 300) || s == http.StatusNotModified {
		return fresh(r.req.Header, r.response.Header())
	}
	return false
}

// Stale is the inverse of Fresh.
func (r *Request) Stale() bool {
	return !r.Fresh()
}

// Get returns a request header. "Referer" and "Referrer" are interchangeable.
func (r *Request) Get(field string) string {
	switch strings.ToLower(field) {
	case "referer", "referrer":
		if v := r.req.Header.Get("Referer"); v != "" {
			return v
		}
		return r.req.Header.Get("Referrer")
	}
	return r.req.Header.Get(field)
}

// Type returns the request mime type without parameters.
func (r *Request) Type() string {
	ct := r.req.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return mediaType
}

// Length returns the parsed Content-Length, or -1 when unknown.
func (r *Request) Length() int64 {
	if v := r.req.Header.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return -1
}

// Is checks the request Content-Type against types ("json", "text/*",
// "+json", "application/json"). It returns the matching type, or "" when
// nothing matches or the request has no body. Without arguments it returns
// the request mime type.
func (r *Request) Is(types ...string) string {
	if !r.hasBody() {
		return ""
	}
	if len(types) == 0 {
		return r.Type()
	}
	return typeIs(r.Type(), types)
}

func (r *Request) hasBody() bool {
	return len(r.req.TransferEncoding) > 0 ||
		r.req.Header.Get("Transfer-Encoding") != "" ||
		r.Length() > 0 ||
		r.req.ContentLength > 0
}

// Accept returns the negotiator for this request.
func (r *Request) Accept() *Accepts {
	if r.accept == nil {
		r.accept = NewAccepts(r.req.Header)
	}
	return r.accept
}

// SetAccept replaces the negotiator.
func (r *Request) SetAccept(a *Accepts) {
	r.accept = a
}

// Accepts returns the best of the offered media types.
func (r *Request) Accepts(types ...string) string {
	return r.Accept().Type(types...)
}

// AcceptsEncodings returns the best of the offered encodings.
func (r *Request) AcceptsEncodings(encodings ...string) string {
	return r.Accept().Encoding(encodings...)
}

// AcceptsCharsets returns the best of the offered charsets.
func (r *Request) AcceptsCharsets(charsets ...string) string {
	return r.Accept().Charset(charsets...)
}

// AcceptsLanguages returns the best of the offered languages.
func (r *Request) AcceptsLanguages(langs ...string) string {
	return r.Accept().Language(langs...)
}

// ToJSON returns a serializable snapshot of the request.
func (r *Request) ToJSON() map[string]any {
	return map[string]any{
		"method": r.Method(),
		"url":    r.URL(),
		"header": r.Header(),
	}
}

var noCacheRe = regexp.MustCompile(`(?:^|,)\s*no-cache\s*(?:,|$)`)

// fresh checks conditional request headers against response validators.
func fresh(req, res http.Header) bool {
	modifiedSince := req.Get("If-Modified-Since")
	noneMatch := req.Get("If-None-Match")
	if modifiedSince == "" && noneMatch == "" {
		return false
	}
	if cc := req.Get("Cache-Control"); cc != "" && noCacheRe.MatchString(cc) {
		return false
	}

	if noneMatch != "" && noneMatch != "*" {
		etag := res.Get("ETag")
		if etag == "" {
			return false
		}
		matched := false
		for _, m := range splitValues(noneMatch) {
			if m == etag || m == "W/"+etag || "W/"+m == etag {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if modifiedSince != "" {
		lastModified := res.Get("Last-Modified")
		if lastModified == "" {
			return false
		}
		lm, err1 := http.ParseTime(lastModified)
		ms, err2 := http.ParseTime(modifiedSince)
		if err1 != nil || err2 != nil || lm.After(ms) {
			return false
		}
	}
	return true
}

// typeIs matches actual against the expected types and returns the
// matched expectation (or actual for wildcard expectations).
func typeIs(actual string, types []string) string {
	if actual == "" {
		return ""
	}
	for _, t := range types {
		expected := normalizeType(t)
		if expected == "" || !mimeMatch(expected, actual) {
			continue
		}
		if strings.HasPrefix(t, "+") || strings.Contains(t, "*") {
			return actual
		}
		return t
	}
	return ""
}

func normalizeType(t string) string {
	switch {
	case strings.HasPrefix(t, "+"):
		return "*/*" + t
	case t == "urlencoded":
		return "application/x-www-form-urlencoded"
	case t == "multipart":
		return "multipart/*"
	case strings.Contains(t, "/"):
		return t
	}
	ct := contentType(t)
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return mediaType
}

func mimeMatch(expected, actual string) bool {
	et, es, ok1 := strings.Cut(expected, "/")
	at, as, ok2 := strings.Cut(actual, "/")
	if !ok1 || !ok2 {
		return false
	}
	if et != "*" && et != at {
		return false
	}
	if strings.HasPrefix(es, "*+") {
		return len(es) <= len(as) && strings.HasSuffix(as, es[1:])
	}
	return es == "*" || es == as
}

// splitValues splits a comma separated header value and trims each entry.
func splitValues(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

// parseHTTPTime parses an HTTP date, returning the zero time on failure.
func parseHTTPTime(v string) time.Time {
	t, err := http.ParseTime(v)
	if err != nil {
		return time.Time{}
	}
	return t
}
