package onion

import (
	"mime"
	"strings"
	"sync"
)

// typeAliases covers the short names middleware commonly assigns that are
// missing from the builtin extension table.
var typeAliases = map[string]string{
	"text": "text/plain",
	"txt":  "text/plain",
	"html": "text/html",
	"htm":  "text/html",
	"json": "application/json",
	"js":   "application/javascript",
	"css":  "text/css",
	"xml":  "application/xml",
	"bin":  "application/octet-stream",
	"form": "application/x-www-form-urlencoded",
	"csv":  "text/csv",
	"md":   "text/markdown",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
}

var contentTypeCache sync.Map

// contentType resolves a short name, extension or mime type into a full
// Content-Type value with a charset for textual types. Returns "" when
// the type is unknown.
func contentType(typ string) string {
	if v, ok := contentTypeCache.Load(typ); ok {
		return v.(string)
	}
	ct := lookupContentType(typ)
	contentTypeCache.Store(typ, ct)
	return ct
}

func lookupContentType(typ string) string {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return ""
	}

	var ct string
	if strings.Contains(typ, "/") {
		ct = typ
	} else {
		ext := strings.ToLower(strings.TrimPrefix(typ, "."))
		if alias, ok := typeAliases[ext]; ok {
			ct = alias
		} else {
			ct = mime.TypeByExtension("." + ext)
		}
	}
	if ct == "" {
		return ""
	}

	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	if _, ok := params["charset"]; !ok && needsCharset(mediaType) {
		params["charset"] = "utf-8"
	}
	return mime.FormatMediaType(mediaType, params)
}

func needsCharset(mediaType string) bool {
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	switch mediaType {
	case "application/json", "application/javascript", "application/xml":
		return true
	}
	return strings.HasSuffix(mediaType, "+json")
}
