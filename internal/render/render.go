// Package render turns fetched JSON collections into container markup.
// Renderers never fail: anything that is not an array renders the section's
// empty state, and missing fields render as empty strings.
package render

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/nascp/portal/internal/dom"
)

const (
	NoFiles        = "No files found."
	NoContent      = "No content found."
	NoDepartments  = "No department components found."
	NoNewsOrEvents = "No news or events at the moment."
	NewsEventsDown = "Unable to load news and events."
)

// Renderer paints data into c.
type Renderer func(c *dom.Container, data json.RawMessage)

var registry = map[string]Renderer{
	"file-list":       FileList,
	"content-list":    ContentList,
	"department-grid": DepartmentGrid,
}

// Lookup resolves a renderer by its catalog name.
func Lookup(name string) (Renderer, bool) {
	r, ok := registry[name]
	return r, ok
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type record map[string]any

// decodeList returns the elements of a JSON array. Elements that are not
// objects come back as empty records so they still render as "Untitled".
func decodeList(data json.RawMessage) []record {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make([]record, 0, len(raw))
	for _, r := range raw {
		var m map[string]any
		if err := json.Unmarshal(r, &m); err != nil || m == nil {
			m = map[string]any{}
		}
		out = append(out, m)
	}
	return out
}

func (r record) str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func listNode() *dom.Builder {
	return dom.Element("ul", "class", "list-unstyled", "role", "list")
}
