package onion

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Response is the response-facing half of a Context. It stages status,
// headers and body on the Transport until the finalizer writes them.
type Response struct {
	locals

	app     *App
	ctx     *Context
	request *Request
	res     Transport

	message          string
	body             any
	hasBody          bool
	explicitStatus   bool
	explicitNullBody bool
}

// Context returns the owning Context.
func (r *Response) Context() *Context {
	return r.ctx
}

// Transport returns the raw output handle.
func (r *Response) Transport() Transport {
	return r.res
}

// Value returns a response-local value, falling back to App.Response defaults.
func (r *Response) Value(key any) any {
	v, _ := r.lookup(key)
	return v
}

// SetValue stores a response-local value.
func (r *Response) SetValue(key, val any) {
	r.set(key, val)
}

// Header returns the staged response headers.
func (r *Response) Header() http.Header {
	return r.res.Header()
}

// Headers is an alias of Header.
func (r *Response) Headers() http.Header {
	return r.res.Header()
}

// Status returns the response status code.
func (r *Response) Status() int {
	return r.res.StatusCode()
}

// SetStatus sets the response status code. It panics with ErrInvalidStatus
// for codes outside 100..999; the panic surfaces as a chain error. Setting
// a status that forbids a body clears the current body.
func (r *Response) SetStatus(code int) {
	if r.HeaderSent() {
		return
	}
	if code < 100 || code > 999 {
		panic(fmt.Errorf("%w: %d", ErrInvalidStatus, code))
	}
	r.explicitStatus = true
	r.res.SetStatusCode(code)
	r.message = ""
	if r.hasBody && r.body != nil && IsEmptyStatus(code) {
		r.SetBody(nil)
	}
}

// Message returns the status message, defaulting to the reason phrase.
func (r *Response) Message() string {
	if r.message != "" {
		return r.message
	}
	return StatusText(r.Status())
}

// SetMessage overrides the status message.
func (r *Response) SetMessage(msg string) {
	r.message = msg
}

// Body returns the response body, or nil when unset.
func (r *Response) Body() any {
	return r.body
}

// SetBody sets the response body. Supported bodies are string, []byte,
// io.Reader (streamed) and any JSON-serializable value. nil records an
// explicit empty body.
//
// Unless a status was set explicitly, a nil body selects 204 and any other
// body selects 200. Content-Type is derived from the body when not set.
func (r *Response) SetBody(val any) {
	original := r.body
	r.body = val
	r.hasBody = val != nil

	if val == nil {
		if s := r.Status(); s != 0 && !IsEmptyStatus(s) {
			if r.Type() == "application/json" {
				r.body, r.hasBody = "null", true
				return
			}
			r.SetStatus(http.StatusNoContent)
		}
		r.explicitNullBody = true
		r.Remove("Content-Type")
		r.Remove("Content-Length")
		r.Remove("Transfer-Encoding")
		return
	}

	if !r.explicitStatus {
		r.SetStatus(http.StatusOK)
	}

	setType := !r.Has("Content-Type")

	switch v := val.(type) {
	case string:
		if setType {
			if htmlRe.MatchString(v) {
				r.SetType("html")
			} else {
				r.SetType("text")
			}
		}
		r.SetLength(int64(len(v)))
	case []byte:
		if setType {
			r.SetType("bin")
		}
		r.SetLength(int64(len(v)))
	case io.Reader:
		if closer, ok := v.(io.Closer); ok {
			r.res.OnFinish(func(error) { closer.Close() })
		}
		if original != nil && !sameBody(original, val) {
			r.Remove("Content-Length")
		}
		if setType {
			r.SetType("bin")
		}
	default:
		r.Remove("Content-Length")
		r.SetType("json")
	}
}

var htmlRe = regexp.MustCompile(`^\s*<`)

// sameBody reports whether a and b are the same body value. Values of
// uncomparable dynamic types are never the same.
func sameBody(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() {
		return false
	}
	return va.Equal(vb)
}

// Length returns the Content-Length header when present, otherwise the
// byte length of the body. Streams report 0.
func (r *Response) Length() int64 {
	if r.Has("Content-Length") {
		n, _ := strconv.ParseInt(r.Get("Content-Length"), 10, 64)
		return n
	}
	switch v := r.body.(type) {
	case nil, io.Reader:
		return 0
	case string:
		return int64(len(v))
	case []byte:
		return int64(len(v))
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return 0
		}
		return int64(len(b))
	}
}

// SetLength sets Content-Length unless n is negative or the body uses
// Transfer-Encoding.
func (r *Response) SetLength(n int64) {
	if n >= 0 && !r.Has("Transfer-Encoding") {
		r.Set("Content-Length", strconv.FormatInt(n, 10))
	}
}

// Type returns the response mime type without parameters.
func (r *Response) Type() string {
	ct := r.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mediaType, _, _ := strings.Cut(ct, ";")
	return strings.TrimSpace(mediaType)
}

// SetType sets Content-Type from a mime type, extension or short name
// ("json", "html", ".png"). Unknown types remove the header.
func (r *Response) SetType(typ string) {
	if ct := contentType(typ); ct != "" {
		r.Set("Content-Type", ct)
	} else {
		r.Remove("Content-Type")
	}
}

// Is checks the response type like Request.Is.
func (r *Response) Is(types ...string) string {
	if len(types) == 0 {
		return r.Type()
	}
	return typeIs(r.Type(), types)
}

// LastModified returns the Last-Modified header as time.
func (r *Response) LastModified() time.Time {
	return parseHTTPTime(r.Get("Last-Modified"))
}

// SetLastModified sets the Last-Modified header.
func (r *Response) SetLastModified(t time.Time) {
	if !t.IsZero() {
		r.Set("Last-Modified", t.UTC().Format(http.TimeFormat))
	}
}

// Etag returns the ETag header.
func (r *Response) Etag() string {
	return r.Get("ETag")
}

// SetEtag sets the ETag header, quoting the value when needed.
func (r *Response) SetEtag(etag string) {
	if !strings.HasPrefix(etag, `"`) && !strings.HasPrefix(etag, `W/"`) {
		etag = `"` + etag + `"`
	}
	r.Set("ETag", etag)
}

// HeaderSent reports whether headers were written to the client.
func (r *Response) HeaderSent() bool {
	return r.res.HeadersSent()
}

// Writable reports whether the transport still accepts a write.
func (r *Response) Writable() bool {
	return r.res.Writable()
}

// Get returns a response header.
func (r *Response) Get(field string) string {
	return r.res.Header().Get(field)
}

// Has reports whether a response header is set.
func (r *Response) Has(field string) bool {
	_, ok := r.res.Header()[http.CanonicalHeaderKey(field)]
	return ok
}

// Set sets a response header to one or more values.
func (r *Response) Set(field string, values ...string) {
	if r.HeaderSent() || len(values) == 0 {
		return
	}
	r.res.Header()[http.CanonicalHeaderKey(field)] = append([]string(nil), values...)
}

// SetHeaders sets every header in h.
func (r *Response) SetHeaders(h http.Header) {
	for k, vs := range h {
		r.Set(k, vs...)
	}
}

// Append adds values to a response header.
func (r *Response) Append(field string, values ...string) {
	if r.HeaderSent() {
		return
	}
	for _, v := range values {
		r.res.Header().Add(field, v)
	}
}

// Remove deletes a response header.
func (r *Response) Remove(field string) {
	if r.HeaderSent() {
		return
	}
	r.res.Header().Del(field)
}

// Vary adds field to the Vary header.
func (r *Response) Vary(field string) {
	if r.HeaderSent() {
		return
	}
	current := r.Get("Vary")
	if current == "*" {
		return
	}
	if field == "*" {
		r.Set("Vary", "*")
		return
	}
	existing := splitValues(current)
	for _, f := range splitValues(field) {
		found := false
		for _, e := range existing {
			if strings.EqualFold(e, f) {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, f)
		}
	}
	r.Set("Vary", strings.Join(existing, ", "))
}

// Redirect performs a 302 redirect to target unless a redirect status is
// already set. "back" redirects to the Referrer, then alt, then "/".
func (r *Response) Redirect(target string, alt ...string) {
	if target == "back" {
		target = r.request.Get("Referrer")
		if target == "" && len(alt) > 0 {
			target = alt[0]
		}
		if target == "" {
			target = "/"
		}
	}
	r.Set("Location", encodeURL(target))

	if !IsRedirectStatus(r.Status()) {
		r.SetStatus(http.StatusFound)
	}

	if r.request.Accepts("html") != "" {
		escaped := html.EscapeString(target)
		r.SetType("text/html; charset=utf-8")
		r.SetBody(`Redirecting to <a href="` + escaped + `">` + escaped + `</a>.`)
		return
	}
	r.SetType("text/plain; charset=utf-8")
	r.SetBody("Redirecting to " + target + ".")
}

// Attachment sets Content-Disposition to "attachment" with an optional
// filename, deriving Content-Type from the file extension.
func (r *Response) Attachment(filename ...string) {
	if len(filename) == 0 || filename[0] == "" {
		r.Set("Content-Disposition", "attachment")
		return
	}
	name := filepath.Base(filename[0])
	if ext := filepath.Ext(name); ext != "" {
		r.SetType(ext)
	}
	r.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
}

// FlushHeaders writes the staged status and headers immediately.
func (r *Response) FlushHeaders() {
	r.res.FlushHeaders()
}

// ToJSON returns a serializable snapshot of the response.
func (r *Response) ToJSON() map[string]any {
	return map[string]any{
		"status":  r.Status(),
		"message": r.Message(),
		"header":  r.Header(),
	}
}

// encodeURL percent-encodes characters not allowed in a URL while keeping
// existing escapes intact.
func encodeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return url.PathEscape(raw)
	}
	return u.String()
}
