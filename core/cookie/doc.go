// Package cookie provides a per-request cookie jar with HMAC-SHA256
// signing and key rotation.
//
// A Jar reads cookies from the request and stages Set-Cookie headers on
// the response headers. When keys are configured, cookies are signed by
// default: Set writes a "<name>.sig" companion cookie, and Get verifies it
// against every key, re-signing values produced by an older key.
//
//	jar := cookie.NewJar(r, w.Header(), cookie.WithKeys("current", "previous"))
//
//	if err := jar.Set("session", id, cookie.WithMaxAge(3600)); err != nil {
//		return err
//	}
//
//	id, err := jar.Get("session")
//	if errors.Is(err, cookie.ErrInvalidSignature) {
//		// tampered or signed with a retired key
//	}
//
// Secure cookies are refused on plain-text connections (ErrInsecureCookie).
package cookie
