package render

import (
	"encoding/json"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/nascp/portal/internal/dom"
)

// Abbreviation is the uppercased first letter of up to three words of title.
// Words are separated by whitespace or hyphens.
func Abbreviation(title string) string {
	words := strings.FieldsFunc(title, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	if len(words) > 3 {
		words = words[:3]
	}
	var b strings.Builder
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// DepartmentGrid renders {title, slug} objects as linked cards.
func DepartmentGrid(c *dom.Container, data json.RawMessage) {
	items := decodeList(data)
	if len(items) == 0 {
		c.SetMessage(NoDepartments)
		return
	}

	c.SetAttr("role", "list")
	cards := make([]*html.Node, 0, len(items))
	for _, item := range items {
		title := item.str("title")

		icon := dom.Element("span", "class", "mb-3").Append(
			dom.SVG("svg", "width", "48", "height", "48", "viewBox", "0 0 24 24", "fill", "none").Append(
				dom.SVG("circle", "cx", "12", "cy", "12", "r", "10", "stroke", "currentColor", "stroke-width", "2").Node(),
			).Node(),
		)
		value := dom.Element("div", "class", "fs-lg-2hx fs-2x fw-bolder text-white d-flex justify-content-center").Append(
			dom.Element("div", "class", "min-w-70px").Append(dom.Text(Abbreviation(title))).Node(),
		)
		label := dom.Element("span", "class", "text-gray-600 fw-bold fs-5 lh-0 d-block").
			Append(dom.Text(orDefault(title, "Untitled")))

		card := dom.Element("article",
			"class", "d-flex flex-column flex-center m-3 p-3 rounded-3",
			"style", "flex: 0 0 30%; min-width: 220px",
			"role", "listitem",
		).Append(
			icon.Node(),
			dom.Element("div", "class", "mb-0 text-center").Append(value.Node(), label.Node()).Node(),
		)

		cards = append(cards, dom.Element("a",
			"href", "/department/"+url.PathEscape(item.str("slug"))+"/",
			"class", "text-decoration-none",
		).Append(card.Node()).Node())
	}
	c.Replace(cards...)
}
