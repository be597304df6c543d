package negotiate

import (
	"strings"

	"github.com/deep-rent/inbound/header"
)

// MediaType is a parsed media type or media range, such as "text/html" or
// "text/*". Type and subtype are lower-cased.
type MediaType struct {
	Type    string
	Subtype string
	Params  []header.Param
}

// ParseMediaType parses a media type without failing. A lone "*" is read as
// "*/*"; a value without a slash keeps an empty subtype and only ever matches
// itself. A q-factor, if present, is discarded.
func ParseMediaType(s string) MediaType {
	var m MediaType
	for e := range header.Elements(s) {
		m = newMediaType(e.Value, e.Params)
		break
	}
	return m
}

func newMediaType(value string, params []header.Param) MediaType {
	value = strings.ToLower(strings.TrimSpace(value))
	t, s, ok := strings.Cut(value, "/")
	if !ok && t == Any {
		s = Any
	}
	return MediaType{
		Type:    strings.TrimSpace(t),
		Subtype: strings.TrimSpace(s),
		Params:  params,
	}
}

// String formats the media type in header syntax, including parameters.
func (m MediaType) String() string {
	var b strings.Builder
	b.WriteString(m.Type)
	if m.Subtype != "" {
		b.WriteByte('/')
		b.WriteString(m.Subtype)
	}
	writeParams(&b, m.Params)
	return b.String()
}

// Essence returns "type/subtype" without parameters.
func (m MediaType) Essence() string {
	return MediaType{Type: m.Type, Subtype: m.Subtype}.String()
}

// Param returns the value of the parameter with the given key.
func (m MediaType) Param(key string) (string, bool) {
	return param(m.Params, key)
}

// IsAny reports whether m is the bare "*/*" range.
func (m MediaType) IsAny() bool {
	return m.Type == Any && m.Subtype == Any && len(m.Params) == 0
}

// Is reports whether m is subsumed by the media range r: the type and subtype
// of r are either wildcards or equal to those of m, and every parameter of r
// is present in m with the same value. For example, "text/html;level=1" is
// "text/*" and "*/*", but "text/*" is not "text/html".
func (m MediaType) Is(r MediaType) bool {
	if r.Type != Any && r.Type != m.Type {
		return false
	}
	if r.Subtype != Any && r.Subtype != m.Subtype {
		return false
	}
	for _, p := range r.Params {
		if v, ok := m.Param(p.Key); !ok || v != p.Value {
			return false
		}
	}
	return true
}

// MediaTypes ranks the media ranges of the Accept header. If the header is
// absent, the result is a single "text/*" entry.
func MediaTypes(h header.Map) List {
	return rank(h, header.Accept, AnyText)
}

// Preferred returns the client's most preferred media range. If the ranking
// is empty, or if it consists of "*/*" alone, "text/*" is returned instead,
// because a bare wildcard gives a caller nothing to render.
func Preferred(h header.Map) MediaType {
	l := MediaTypes(h)
	if len(l) == 0 {
		return ParseMediaType(AnyText)
	}
	m := l[0].MediaType()
	if len(l) == 1 && m.IsAny() {
		return ParseMediaType(AnyText)
	}
	return m
}

// Accepts reports whether the client accepts the candidate media type.
//
// As a shortcut, the candidate is first searched for as a substring of the
// raw Accept header; an absent header is treated as "text/html" for this
// check. Note that the shortcut admits false positives: "application/xhtml"
// is found inside "application/xhtml+xml". Otherwise, the candidate is
// accepted if any ranked media range with a positive q-factor subsumes it.
// An empty candidate is never accepted.
func Accepts(h header.Map, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}
	raw, ok := h.Joined(header.Accept)
	if !ok {
		raw = "text/html"
	}
	if strings.Contains(raw, candidate) {
		return true
	}
	m := ParseMediaType(candidate)
	for _, v := range MediaTypes(h) {
		if v.Q > 0 && m.Is(v.MediaType()) {
			return true
		}
	}
	return false
}

// Negotiate selects the offer that best satisfies the Accept header. Each
// offer is weighted by the q-factor of the most specific media range that
// subsumes it, so "application/json;q=0" excludes JSON even if
// "application/*" admits it. The offer with the highest positive weight wins;
// ties go to the offer listed first. It reports false if no offer is
// acceptable.
func Negotiate(h header.Map, offers ...string) (string, bool) {
	l := MediaTypes(h)
	best, q := -1, 0.0
	for i, o := range offers {
		if w := weigh(l, ParseMediaType(o)); w > q {
			best, q = i, w
		}
	}
	if best < 0 {
		return "", false
	}
	return offers[best], true
}

// weigh returns the q-factor of the most specific range subsuming m, or zero
// if there is none.
func weigh(l List, m MediaType) float64 {
	spec, q := -1, 0.0
	for _, v := range l {
		r := v.MediaType()
		if !m.Is(r) {
			continue
		}
		if s := specificity(r); s > spec {
			spec, q = s, v.Q
		}
	}
	return q
}

func specificity(r MediaType) int {
	s := len(r.Params)
	if r.Type != Any {
		s += 100
	}
	if r.Subtype != Any {
		s += 100
	}
	return s
}
