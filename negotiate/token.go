package negotiate

import (
	"strings"

	"github.com/deep-rent/inbound/header"
)

// Identity is the content coding that applies no transformation.
const Identity = "identity"

// Charsets ranks the Accept-Charset header. If the header is absent, the
// result is a single "*" entry.
func Charsets(h header.Map) List {
	return rank(h, header.AcceptCharset, Any)
}

// Encodings ranks the Accept-Encoding header. If the header is absent, the
// result is a single "*" entry.
func Encodings(h header.Map) List {
	return rank(h, header.AcceptEncoding, Any)
}

// AcceptsCharset reports whether the charset is acceptable. An absent
// Accept-Charset header accepts any charset; otherwise the most specific
// entry decides and a zero q-factor rejects.
func AcceptsCharset(h header.Map, charset string) bool {
	raw, ok := h.Joined(header.AcceptCharset)
	if !ok {
		return true
	}
	return header.Accepts(raw, charset)
}

// AcceptsEncoding reports whether the content coding is acceptable. An absent
// Accept-Encoding header accepts any coding. The identity coding stays
// acceptable unless the header explicitly excludes it, either by name or
// through a zero-weighted "*".
func AcceptsEncoding(h header.Map, encoding string) bool {
	raw, ok := h.Joined(header.AcceptEncoding)
	if !ok {
		return true
	}
	if header.Accepts(raw, encoding) {
		return true
	}
	if !strings.EqualFold(encoding, Identity) {
		return false
	}
	for k := range header.Preferences(raw) {
		if k == Any || strings.EqualFold(k, Identity) {
			return false
		}
	}
	return true
}
