package negotiate

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/deep-rent/inbound/header"
)

// Locale identifies a language with an optional script and region, such as
// "en", "en-GB" or "zh-Hant-TW". The language is lower-cased, the script is
// title-cased and the region is upper-cased. The wildcard locale has
// Language "*".
type Locale struct {
	Language string
	Script   string
	Region   string
}

// ParseLocale splits a language range on "-" into its subtags. Well-formed
// BCP 47 tags are canonicalized by golang.org/x/text/language; anything else
// is split verbatim, taking the first subtag as language and the second as
// region.
func ParseLocale(s string) Locale {
	s = strings.TrimSpace(s)
	if s == Any {
		return Locale{Language: Any}
	}
	if tag, err := language.Parse(s); err == nil {
		var l Locale
		if b, c := tag.Base(); c == language.Exact {
			l.Language = b.String()
		}
		if sc, c := tag.Script(); c == language.Exact {
			l.Script = sc.String()
		}
		if r, c := tag.Region(); c == language.Exact {
			l.Region = r.String()
		}
		if l.Language != "" {
			return l
		}
	}
	parts := strings.Split(s, "-")
	l := Locale{Language: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		l.Region = strings.ToUpper(parts[1])
	}
	return l
}

// String formats the locale as a BCP 47 language tag.
func (l Locale) String() string {
	s := l.Language
	if l.Script != "" {
		s += "-" + l.Script
	}
	if l.Region != "" {
		s += "-" + l.Region
	}
	return s
}

// IsAny reports whether l is the wildcard locale.
func (l Locale) IsAny() bool {
	return l.Language == Any
}

// Tag converts the locale into a language.Tag. The wildcard and unparsable
// locales yield language.Und.
func (l Locale) Tag() language.Tag {
	if l.IsAny() {
		return language.Und
	}
	tag, err := language.Parse(l.String())
	if err != nil {
		return language.Und
	}
	return tag
}

// Languages ranks the language ranges of the Accept-Language header and
// returns them as locales. If the header is absent, the result is the single
// wildcard locale.
func Languages(h header.Map) []Locale {
	l := rank(h, header.AcceptLanguage, Any)
	locales := make([]Locale, len(l))
	for i, v := range l {
		locales[i] = ParseLocale(v.Value)
	}
	return locales
}

// MatchLanguage picks the supported language that best fits the
// Accept-Language header, using the matching algorithm of
// golang.org/x/text/language. Ranges with a zero q-factor are ignored. If the
// header is absent or only holds the wildcard, the first supported tag is
// returned. It reports false if no supported language is a reasonable match.
func MatchLanguage(h header.Map, supported ...language.Tag) (language.Tag, bool) {
	if len(supported) == 0 {
		return language.Und, false
	}
	var (
		prefs    []language.Tag
		wildcard bool
	)
	for _, v := range rank(h, header.AcceptLanguage, Any) {
		if v.Q <= 0 {
			continue
		}
		loc := ParseLocale(v.Value)
		if loc.IsAny() {
			wildcard = true
			continue
		}
		if tag := loc.Tag(); tag != language.Und {
			prefs = append(prefs, tag)
		}
	}
	if len(prefs) == 0 {
		return supported[0], wildcard
	}
	_, i, c := language.NewMatcher(supported).Match(prefs...)
	if c == language.No {
		return supported[0], wildcard
	}
	return supported[i], true
}
