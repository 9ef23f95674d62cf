package render

import (
	"encoding/json"

	"github.com/nascp/portal/internal/dom"
)

// ContentList renders {title, category?} objects.
func ContentList(c *dom.Container, data json.RawMessage) {
	items := decodeList(data)
	if len(items) == 0 {
		c.SetMessage(NoContent)
		return
	}

	ul := listNode()
	for _, item := range items {
		li := dom.Element("li", "role", "listitem").Append(dom.Text(orDefault(item.str("title"), "Untitled")))
		if cat := item.str("category"); cat != "" {
			li.Append(dom.Element("span", "class", "text-muted").Append(dom.Text("  [Category: " + cat + "]")).Node())
		}
		ul.Append(li.Node())
	}
	c.Replace(ul.Node())
}
