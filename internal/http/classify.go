package httpx

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/nascp/portal/internal/lang"
)

type RequestInfo struct {
	Cacheable bool
	Path      string
	Locale    string
	Reason    string
}

// ClassifyRequest decides whether a page request can be answered from a
// snapshot and in which locale. A leading locale segment (/fr/, /en-gb/)
// or a lang query parameter overrides Accept-Language.
func ClassifyRequest(r *http.Request) RequestInfo {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return RequestInfo{Cacheable: false, Reason: "method-not-get"}
	}

	cleaned, extra := stripUTMParams(r.URL)
	locale := lang.LocaleFromAcceptLanguage(r.Header.Get("Accept-Language"))
	if forced := cleaned.Query().Get("lang"); forced != "" {
		if l, ok := supportedLocale(forced); ok {
			locale = l
		} else {
			extra = true
		}
	}

	p := cleaned.Path
	if seg, rest, ok := splitLocale(p); ok {
		locale = seg
		p = rest
	}

	switch p {
	case "", "/", "/index.html":
		if extra {
			return RequestInfo{Cacheable: false, Path: "/", Locale: locale, Reason: "extra-query"}
		}
		return RequestInfo{Cacheable: true, Path: "/", Locale: locale}
	default:
		return RequestInfo{Cacheable: false, Path: p, Locale: locale, Reason: "not-page"}
	}
}

func splitLocale(p string) (string, string, bool) {
	trimmed := strings.TrimPrefix(p, "/")
	seg, rest, _ := strings.Cut(trimmed, "/")
	l, ok := supportedLocale(seg)
	if !ok {
		return "", p, false
	}
	return l, "/" + rest, true
}

func supportedLocale(s string) (string, bool) {
	for _, l := range lang.Supported {
		if strings.EqualFold(l, s) {
			return l, true
		}
	}
	return "", false
}

// stripUTMParams drops utm_* tracking parameters and reports whether any
// other parameter besides lang remains.
func stripUTMParams(u *url.URL) (*url.URL, bool) {
	clone := *u
	q := clone.Query()
	for key := range q {
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}
	clone.RawQuery = q.Encode()
	for key := range q {
		if strings.ToLower(key) != "lang" {
			return &clone, true
		}
	}
	return &clone, false
}
