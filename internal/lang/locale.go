package lang

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	LocaleUS = "en-US"
	LocaleGB = "en-GB"
	LocaleFR = "fr"
	LocaleDE = "de"

	DefaultLocale = LocaleUS
)

// Supported lists every locale a page can be rendered in. The first entry is
// the fallback when nothing in Accept-Language matches.
var Supported = []string{LocaleUS, LocaleGB, LocaleFR, LocaleDE}

var matcher = language.NewMatcher([]language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.French,
	language.German,
})

// dateStyle is a Go layout where "Jan" stands for the month, plus the short
// month names to put there. nil months keeps the English abbreviations.
type dateStyle struct {
	layout string
	months *[12]string
}

var dateStyles = map[string]dateStyle{
	LocaleUS: {layout: "Jan 02, 2006"},
	LocaleGB: {layout: "02 Jan 2006"},
	LocaleFR: {layout: "02 Jan 2006", months: &[12]string{
		"janv.", "févr.", "mars", "avr.", "mai", "juin",
		"juil.", "août", "sept.", "oct.", "nov.", "déc.",
	}},
	LocaleDE: {layout: "02. Jan 2006", months: &[12]string{
		"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni",
		"Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez.",
	}},
}

// LocaleFromAcceptLanguage picks the best supported locale for an
// Accept-Language header value.
func LocaleFromAcceptLanguage(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLocale
	}
	return Supported[idx]
}

// IsSupported reports whether locale is one of Supported.
func IsSupported(locale string) bool {
	_, ok := dateStyles[locale]
	return ok
}

// FormatDate renders t as a short date with a short month name, e.g.
// "Mar 07, 2025" or "07 mars 2025". The zero time renders as an empty
// string.
func FormatDate(t time.Time, locale string) string {
	if t.IsZero() {
		return ""
	}
	style, ok := dateStyles[locale]
	if !ok {
		style = dateStyles[DefaultLocale]
	}
	out := t.Format(style.layout)
	if style.months != nil {
		out = strings.Replace(out, t.Format("Jan"), style.months[t.Month()-1], 1)
	}
	return out
}
