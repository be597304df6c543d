package negotiate_test

import (
	"testing"

	"github.com/deep-rent/inbound/header"
	"github.com/deep-rent/inbound/negotiate"
	"github.com/stretchr/testify/assert"
)

func TestCharsets(t *testing.T) {
	h := headers("Accept-Charset", "iso-8859-5, unicode-1-1;q=0.8, utf-8")
	assert.Equal(t, []string{"iso-8859-5", "utf-8", "unicode-1-1"}, negotiate.Charsets(h).Values())
	assert.Equal(t, []string{"*"}, negotiate.Charsets(headers()).Values())
}

func TestEncodings(t *testing.T) {
	h := headers("Accept-Encoding", "gzip;q=0.5, br, deflate;q=0.5")
	assert.Equal(t, []string{"br", "gzip", "deflate"}, negotiate.Encodings(h).Values())
	assert.Equal(t, []string{"*"}, negotiate.Encodings(headers()).Values())
}

func TestAcceptsCharset(t *testing.T) {
	type test struct {
		name    string
		h       header.Map
		charset string
		want    bool
	}
	tests := []test{
		{"absent", headers(), "utf-8", true},
		{"listed", headers("Accept-Charset", "UTF-8"), "utf-8", true},
		{"unlisted", headers("Accept-Charset", "utf-8"), "iso-8859-1", false},
		{"wildcard", headers("Accept-Charset", "utf-8, *;q=0.1"), "iso-8859-1", true},
		{"excluded", headers("Accept-Charset", "*, latin1;q=0"), "latin1", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, negotiate.AcceptsCharset(tc.h, tc.charset))
		})
	}
}

func TestAcceptsEncoding(t *testing.T) {
	type test struct {
		name     string
		h        header.Map
		encoding string
		want     bool
	}
	tests := []test{
		{"absent", headers(), "gzip", true},
		{"listed", headers("Accept-Encoding", "gzip, deflate"), "gzip", true},
		{"unlisted", headers("Accept-Encoding", "deflate"), "gzip", false},
		{"zero weight", headers("Accept-Encoding", "gzip;q=0, deflate"), "gzip", false},
		{"identity implied", headers("Accept-Encoding", "gzip"), "identity", true},
		{"identity excluded by name", headers("Accept-Encoding", "gzip, identity;q=0"), "identity", false},
		{"identity excluded by wildcard", headers("Accept-Encoding", "gzip, *;q=0"), "identity", false},
		{"empty header", headers("Accept-Encoding", ""), "identity", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, negotiate.AcceptsEncoding(tc.h, tc.encoding))
		})
	}
}
