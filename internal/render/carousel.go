package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/nascp/portal/internal/dom"
	"github.com/nascp/portal/internal/lang"
)

var textPolicy = bluemonday.StripTagsPolicy().AddSpaceWhenStrippingTag(true)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NewsItem is one news or event entry shown in the carousel.
type NewsItem struct {
	Title     string
	Body      string
	CreatedAt time.Time
}

// MergeNews decodes each {title, body, created_at} array and concatenates
// them in argument order. Lists that are not arrays contribute nothing.
func MergeNews(lists ...json.RawMessage) []NewsItem {
	var items []NewsItem
	for _, list := range lists {
		for _, r := range decodeList(list) {
			items = append(items, NewsItem{
				Title:     r.str("title"),
				Body:      r.str("body"),
				CreatedAt: parseTime(r.str("created_at")),
			})
		}
	}
	return items
}

// ErrNotList reports a news payload that is neither an array nor null.
var ErrNotList = errors.New("news payload is not a list")

// DecodeNews is MergeNews for payloads that must be lists. An object or
// scalar payload, such as an API error body, fails the whole merge so the
// caller can fall back to another source. null counts as an empty list.
func DecodeNews(lists ...json.RawMessage) ([]NewsItem, error) {
	for _, list := range lists {
		if !isListOrNull(list) {
			return nil, ErrNotList
		}
	}
	return MergeNews(lists...), nil
}

func isListOrNull(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return false
	}
	var raw []json.RawMessage
	return json.Unmarshal(data, &raw) == nil
}

// SortNewest orders items by CreatedAt, newest first. Items without a usable
// timestamp go last, keeping their relative order.
func SortNewest(items []NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].CreatedAt, items[j].CreatedAt
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.After(b)
	})
}

// FirstSentence strips markup from body and returns the text up to and
// including the first '.', '!' or '?'. Without one, the whole trimmed text.
func FirstSentence(body string) string {
	plain := html.UnescapeString(textPolicy.Sanitize(body))
	if i := strings.IndexAny(plain, ".!?"); i >= 0 {
		return strings.TrimSpace(plain[:i+1])
	}
	return strings.TrimSpace(plain)
}

// Carousel renders items, newest first, into the carousel inner container.
func Carousel(c *dom.Container, items []NewsItem, locale string) {
	sorted := make([]NewsItem, len(items))
	copy(sorted, items)
	SortNewest(sorted)

	if len(sorted) == 0 {
		c.Replace(carouselPanel(NoNewsOrEvents).Node())
		return
	}

	nodes := make([]*dom.Builder, 0, len(sorted))
	for i, item := range sorted {
		class := "carousel-item"
		if i == 0 {
			class += " active"
		}
		inner := dom.Element("div", "class", "d-block w-100 text-center p-3").Append(
			dom.Element("h3", "class", "text-white").Append(dom.Text(orDefault(item.Title, "Untitled"))).Node(),
			dom.Element("p", "class", "text-white").Append(dom.Text(FirstSentence(item.Body))).Node(),
			dom.Element("h5", "class", "text-white").Append(dom.Text(lang.FormatDate(item.CreatedAt, locale))).Node(),
		)
		nodes = append(nodes, dom.Element("div", "class", class).Append(inner.Node()))
	}

	c.Replace(dom.Nodes(nodes...)...)
}

// CarouselRenderer adapts Carousel to the Renderer shape for a single array.
func CarouselRenderer(locale string) Renderer {
	return func(c *dom.Container, data json.RawMessage) {
		Carousel(c, MergeNews(data), locale)
	}
}

// CarouselUnavailable shows the static panel used when every source failed.
func CarouselUnavailable(c *dom.Container) {
	c.Replace(carouselPanel(NewsEventsDown).Node())
}

func carouselPanel(msg string) *dom.Builder {
	return dom.Element("div", "class", "carousel-item active").Append(
		dom.Element("div", "class", "d-block w-100 text-center p-3").Append(
			dom.Element("p", "class", "text-white mb-0").Append(dom.Text(msg)).Node(),
		).Node(),
	)
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
