package negotiate_test

import (
	"testing"

	"golang.org/x/text/language"

	"github.com/deep-rent/inbound/negotiate"
	"github.com/stretchr/testify/assert"
)

func TestLanguages(t *testing.T) {
	type test struct {
		name string
		in   string
		want []string
	}
	tests := []test{
		{
			name: "ranked with region",
			in:   "da, en-gb;q=0.8, en;q=0.7",
			want: []string{"da", "en-GB", "en"},
		},
		{
			name: "reordered by weight",
			in:   "en;q=0.5, fr-CA",
			want: []string{"fr-CA", "en"},
		},
		{
			name: "script subtag",
			in:   "zh-hant-tw",
			want: []string{"zh-Hant-TW"},
		},
		{
			name: "wildcard",
			in:   "de, *;q=0.1",
			want: []string{"de", "*"},
		},
		{
			name: "ill-formed tag is split verbatim",
			in:   "xx1-yy",
			want: []string{"xx1-YY"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for _, l := range negotiate.Languages(headers("Accept-Language", tc.in)) {
				got = append(got, l.String())
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLanguagesAbsent(t *testing.T) {
	got := negotiate.Languages(headers())
	assert.Len(t, got, 1)
	assert.True(t, got[0].IsAny())
	assert.Equal(t, language.Und, got[0].Tag())
}

func TestParseLocale(t *testing.T) {
	l := negotiate.ParseLocale("en-gb")
	assert.Equal(t, negotiate.Locale{Language: "en", Region: "GB"}, l)
	assert.Equal(t, language.BritishEnglish, l.Tag())

	assert.Equal(t, negotiate.Locale{Language: "da"}, negotiate.ParseLocale("DA"))
}

func TestMatchLanguage(t *testing.T) {
	supported := []language.Tag{language.English, language.German, language.Danish}

	type test struct {
		name   string
		in     string
		absent bool
		want   language.Tag
		wantOK bool
	}
	tests := []test{
		{name: "first preference", in: "da, en-gb;q=0.8", want: language.Danish, wantOK: true},
		{name: "regional variant", in: "de-AT", want: language.German, wantOK: true},
		{name: "zero weight ignored", in: "da;q=0, de;q=0.5", want: language.German, wantOK: true},
		{name: "wildcard", in: "*", want: language.English, wantOK: true},
		{name: "absent header", absent: true, want: language.English, wantOK: true},
		{name: "no match", in: "ja", want: language.English, wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := headers()
			if !tc.absent {
				h = headers("Accept-Language", tc.in)
			}
			got, ok := negotiate.MatchLanguage(h, supported...)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("nothing supported", func(t *testing.T) {
		_, ok := negotiate.MatchLanguage(headers("Accept-Language", "en"))
		assert.False(t, ok)
	})
}
