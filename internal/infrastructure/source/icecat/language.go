package icecat

import (
	"strings"

	"golang.org/x/text/language"
)

// supported lists the catalog languages requested from Icecat; the first is the fallback
var supported = []language.Tag{language.English, language.Dutch}

var matcher = language.NewMatcher(supported)

// LanguageCode maps a locale such as "nl_NL" or "en-GB" to the Icecat lang parameter
func LanguageCode(locale string) string {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if locale == "" {
		return "en"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "en"
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return "en"
	}
	base, _ := supported[index].Base()
	return base.String()
}
