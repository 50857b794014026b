package onion

import (
	"net/http"
	"net/url"
	"time"
)

// Response delegates.

func (c *Context) Status() int { return c.Response.Status() }
func (c *Context) SetStatus(code int) { c.Response.SetStatus(code) }
func (c *Context) Message() string { return c.Response.Message() }
func (c *Context) SetMessage(msg string) { c.Response.SetMessage(msg) }
func (c *Context) Body() any { return c.Response.Body() }
func (c *Context) SetBody(val any) { c.Response.SetBody(val) }
func (c *Context) Length() int64 { return c.Response.Length() }
func (c *Context) SetLength(n int64) { c.Response.SetLength(n) }
func (c *Context) Type() string { return c.Response.Type() }
func (c *Context) SetType(typ string) { c.Response.SetType(typ) }
func (c *Context) LastModified() time.Time { return c.Response.LastModified() }
func (c *Context) SetLastModified(t time.Time) { c.Response.SetLastModified(t) }
func (c *Context) Etag() string { return c.Response.Etag() }
func (c *Context) SetEtag(etag string) { c.Response.SetEtag(etag) }
func (c *Context) HeaderSent() bool { return c.Response.HeaderSent() }
func (c *Context) Writable() bool { return c.Response.Writable() }

func (c *Context) Has(field string) bool { return c.Response.Has(field) }
func (c *Context) Set(field string, values ...string) { c.Response.Set(field, values...) }
func (c *Context) SetHeaders(h http.Header) { c.Response.SetHeaders(h) }
func (c *Context) Append(field string, values ...string) {
	c.Response.Append(field, values...)
}
func (c *Context) Remove(field string) { c.Response.Remove(field) }
func (c *Context) Vary(field string) { c.Response.Vary(field) }
func (c *Context) Attachment(filename ...string) { c.Response.Attachment(filename...) }
func (c *Context) Redirect(target string, alt ...string) { c.Response.Redirect(target, alt...) }
func (c *Context) FlushHeaders() { c.Response.FlushHeaders() }

// Request delegates.

func (c *Context) Querystring() string { return c.Request.Querystring() }
func (c *Context) SetQuerystring(qs string) { c.Request.SetQuerystring(qs) }
func (c *Context) Search() string { return c.Request.Search() }
func (c *Context) SetSearch(search string) { c.Request.SetSearch(search) }
func (c *Context) Method() string { return c.Request.Method() }
func (c *Context) SetMethod(method string) { c.Request.SetMethod(method) }
func (c *Context) Query() url.Values { return c.Request.Query() }
func (c *Context) SetQuery(v url.Values) { c.Request.SetQuery(v) }
func (c *Context) Path() string { return c.Request.Path() }
func (c *Context) SetPath(path string) { c.Request.SetPath(path) }
func (c *Context) URL() string { return c.Request.URL() }
func (c *Context) SetURL(raw string) error { return c.Request.SetURL(raw) }
func (c *Context) Accept() *Accepts { return c.Request.Accept() }
func (c *Context) SetAccept(a *Accepts) { c.Request.SetAccept(a) }
func (c *Context) Idempotent() bool { return c.Request.Idempotent() }
func (c *Context) Socket() *Socket { return c.Request.Socket() }
func (c *Context) Origin() string { return c.Request.Origin() }
func (c *Context) Href() string { return c.Request.Href() }
func (c *Context) Subdomains() []string { return c.Request.Subdomains() }
func (c *Context) Protocol() string { return c.Request.Protocol() }
func (c *Context) Host() string { return c.Request.Host() }
func (c *Context) Hostname() string { return c.Request.Hostname() }
func (c *Context) Secure() bool { return c.Request.Secure() }
func (c *Context) Stale() bool { return c.Request.Stale() }
func (c *Context) Fresh() bool { return c.Request.Fresh() }
func (c *Context) IPs() []string { return c.Request.IPs() }
func (c *Context) IP() string { return c.Request.IP() }
func (c *Context) Header() http.Header { return c.Request.Header() }
func (c *Context) Headers() http.Header { return c.Request.Headers() }
func (c *Context) Get(field string) string { return c.Request.Get(field) }
func (c *Context) Is(types ...string) string { return c.Request.Is(types...) }
func (c *Context) Accepts(types ...string) string {
	return c.Request.Accepts(types...)
}
func (c *Context) AcceptsEncodings(encodings ...string) string {
	return c.Request.AcceptsEncodings(encodings...)
}
func (c *Context) AcceptsCharsets(charsets ...string) string {
	return c.Request.AcceptsCharsets(charsets...)
}
func (c *Context) AcceptsLanguages(langs ...string) string {
	return c.Request.AcceptsLanguages(langs...)
}
