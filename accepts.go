package onion

import (
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/munnerz/goautoneg"
	"golang.org/x/text/language"
)

// Accepts negotiates response representations against the request's
// Accept, Accept-Encoding, Accept-Charset and Accept-Language headers.
// Each method returns the best matching offer, or "" when none is acceptable.
// Called without offers, each method returns the client's first preference.
type Accepts struct {
	header http.Header
}

// NewAccepts creates a negotiator over the given request headers.
func NewAccepts(h http.Header) *Accepts {
	return &Accepts{header: h}
}

// Type picks the best media type. Offers may be full types ("text/html")
// or short names ("html", "json").
func (a *Accepts) Type(offers ...string) string {
	header := a.header.Get("Accept")
	if len(offers) == 0 {
		types := a.Types()
		if len(types) == 0 {
			return ""
		}
		return types[0]
	}
	if header == "" {
		return offers[0]
	}

	clauses := goautoneg.ParseAccept(header)
	best, bestQ, bestPrec := "", 0.0, -1
	for _, offer := range offers {
		typ, sub, ok := splitMediaType(offer)
		if !ok {
			continue
		}
		q, prec := -1.0, -1
		for _, c := range clauses {
			s := -1
			switch {
			case c.Type == typ && c.SubType == sub:
				s = 2
			case c.Type == typ && c.SubType == "*":
				s = 1
			case c.Type == "*" && c.SubType == "*":
				s = 0
			}
			if s > prec {
				q, prec = c.Q, s
			}
		}
		if q > bestQ || (q == bestQ && q > 0 && prec > bestPrec) {
			best, bestQ, bestPrec = offer, q, prec
		}
	}
	return best
}

// Types returns the accepted media types ordered by preference.
func (a *Accepts) Types() []string {
	header := a.header.Get("Accept")
	if header == "" {
		return []string{"*/*"}
	}
	var types []string
	for _, c := range goautoneg.ParseAccept(header) {
		if c.Q > 0 {
			types = append(types, c.Type+"/"+c.SubType)
		}
	}
	return types
}

// Encoding picks the best content coding. "identity" is acceptable unless
// the client explicitly refuses it.
func (a *Accepts) Encoding(offers ...string) string {
	items := parseQualityList(a.header.Get("Accept-Encoding"))
	if !hasQualityItem(items, "identity") && !hasQualityItem(items, "*") {
		items = append(items, qualityItem{value: "identity", q: 0.0001, index: len(items)})
	}
	if len(offers) == 0 {
		return firstPreference(items)
	}
	return negotiate(items, offers)
}

// Encodings returns the accepted encodings ordered by preference.
func (a *Accepts) Encodings() []string {
	return preferences(parseQualityList(a.header.Get("Accept-Encoding")))
}

// Charset picks the best charset.
func (a *Accepts) Charset(offers ...string) string {
	items := parseQualityList(a.header.Get("Accept-Charset"))
	if len(items) == 0 {
		items = []qualityItem{{value: "*", q: 1}}
	}
	if len(offers) == 0 {
		return firstPreference(items)
	}
	return negotiate(items, offers)
}

// Charsets returns the accepted charsets ordered by preference.
func (a *Accepts) Charsets() []string {
	return preferences(parseQualityList(a.header.Get("Accept-Charset")))
}

// Language picks the best language. An offer matches an accepted language
// with the same base language ("en" matches "en-US" and vice versa).
func (a *Accepts) Language(offers ...string) string {
	header := a.header.Get("Accept-Language")
	if header == "" {
		if len(offers) == 0 {
			return ""
		}
		return offers[0]
	}

	tags, weights, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		if len(offers) == 0 {
			return ""
		}
		return offers[0]
	}
	if len(offers) == 0 {
		return tags[0].String()
	}

	wildcard := language.Make("mul")
	best, bestQ, bestPrec := "", float32(0), -1
	for _, offer := range offers {
		offerTag, err := language.Parse(offer)
		if err != nil {
			continue
		}
		offerBase, _ := offerTag.Base()

		q, prec := float32(-1), -1
		for i, tag := range tags {
			s := -1
			switch {
			case tag == offerTag:
				s = 2
			case tag == wildcard:
				s = 0
			default:
				if base, _ := tag.Base(); base == offerBase {
					s = 1
				}
			}
			if s > prec {
				q, prec = weights[i], s
			}
		}
		if q > bestQ || (q == bestQ && q > 0 && prec > bestPrec) {
			best, bestQ, bestPrec = offer, q, prec
		}
	}
	return best
}

// Languages returns the accepted languages ordered by preference.
func (a *Accepts) Languages() []string {
	tags, weights, err := language.ParseAcceptLanguage(a.header.Get("Accept-Language"))
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(tags))
	for i, tag := range tags {
		if weights[i] > 0 {
			langs = append(langs, tag.String())
		}
	}
	return langs
}

// splitMediaType resolves an offer into its type and subtype.
func splitMediaType(offer string) (string, string, bool) {
	full := offer
	if !strings.Contains(offer, "/") {
		full = contentType(offer)
	}
	mediaType, _, err := mime.ParseMediaType(full)
	if err != nil {
		return "", "", false
	}
	typ, sub, ok := strings.Cut(mediaType, "/")
	return typ, sub, ok
}

type qualityItem struct {
	value string
	q     float64
	index int
}

// parseQualityList parses a comma separated header of tokens with optional
// q parameters and orders it by quality, then header position.
func parseQualityList(header string) []qualityItem {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	items := make([]qualityItem, 0, len(parts))
	for i, part := range parts {
		token, params, _ := strings.Cut(part, ";")
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		q := 1.0
		for _, p := range strings.Split(params, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if ok && strings.TrimSpace(k) == "q" {
				if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
					q = f
				}
			}
		}
		items = append(items, qualityItem{value: token, q: q, index: i})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].q != items[j].q {
			return items[i].q > items[j].q
		}
		return items[i].index < items[j].index
	})
	return items
}

func hasQualityItem(items []qualityItem, value string) bool {
	for _, it := range items {
		if it.value == value {
			return true
		}
	}
	return false
}

func firstPreference(items []qualityItem) string {
	for _, it := range items {
		if it.q > 0 {
			return it.value
		}
	}
	return ""
}

func preferences(items []qualityItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.q > 0 {
			out = append(out, it.value)
		}
	}
	return out
}

// negotiate returns the offer with the highest quality; exact matches win
// over the "*" wildcard.
func negotiate(items []qualityItem, offers []string) string {
	best, bestQ := "", 0.0
	for _, offer := range offers {
		q, exact := -1.0, false
		for _, it := range items {
			if it.value == strings.ToLower(offer) {
				q, exact = it.q, true
				break
			}
			if it.value == "*" && !exact && q < 0 {
				q = it.q
			}
		}
		if q > bestQ {
			best, bestQ = offer, q
		}
	}
	return best
}
