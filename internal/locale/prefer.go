package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// Preferred derives the language a caller wants to read in. An explicit query value
// wins even when it is not a supported content language, so the resolver can report
// the fallback. Then the stored profile locale, then Accept-Language, then English.
func Preferred(query, profile, acceptLanguage string) Lang {
	if l, ok := baseLang(query); ok {
		return l
	}
	if l, ok := baseLang(profile); ok && IsSupported(l) {
		return l
	}
	if l, ok := FromAcceptLanguage(acceptLanguage); ok {
		return l
	}
	return English
}

// FromAcceptLanguage returns the first supported language in header order. Quality
// weights are ignored.
func FromAcceptLanguage(header string) (Lang, bool) {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(part, ";")
		l, ok := baseLang(tag)
		if ok && IsSupported(l) {
			return l, true
		}
	}
	return "", false
}

func baseLang(raw string) (Lang, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "*" {
		return "", false
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	return Lang(base.String()), true
}
