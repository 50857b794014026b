package onion

import (
	"net/http"
	"strings"
)

// StatusText returns the reason phrase for code, or "" when the code is
// not a registered HTTP status.
func StatusText(code int) string {
	return http.StatusText(code)
}

// IsEmptyStatus reports whether responses with code must not carry a body.
func IsEmptyStatus(code int) bool {
	if code >= 100 && code < 200 {
		return true
	}
	switch code {
	case http.StatusNoContent, http.StatusResetContent, http.StatusNotModified:
		return true
	}
	return false
}

// IsRedirectStatus reports whether code is a redirect status.
func IsRedirectStatus(code int) bool {
	switch code {
	case http.StatusMultipleChoices,
		http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusUseProxy,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	}
	return false
}

// statusCode derives a machine-readable code from the reason phrase,
// e.g. 404 -> "not_found".
func statusCode(code int) string {
	text := strings.ToLower(StatusText(code))
	text = strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text)
	return text
}
