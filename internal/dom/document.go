// Package dom holds the page document the renderers paint into. Containers
// are elements found by id; all mutations go through the document lock so
// sections can be rendered from separate goroutines.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// MissingContainerError is returned by Lookup when no element has the id.
type MissingContainerError struct {
	ID string
}

func (e *MissingContainerError) Error() string {
	return fmt.Sprintf("container %q not found", e.ID)
}

type Document struct {
	mu   sync.Mutex
	root *html.Node
	byID map[string]*html.Node
}

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	d := &Document{root: root, byID: make(map[string]*html.Node)}
	d.index(root)
	return d, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func (d *Document) index(n *html.Node) {
	if n.Type == html.ElementNode {
		if id := attr(n, "id"); id != "" {
			if _, dup := d.byID[id]; !dup {
				d.byID[id] = n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.index(c)
	}
}

// Lookup returns the container with the given id. The index is built once at
// parse time; ids introduced later by renderers are not containers.
func (d *Document) Lookup(id string) (*Container, error) {
	n, ok := d.byID[id]
	if !ok {
		return nil, &MissingContainerError{ID: id}
	}
	return &Container{doc: d, node: n}, nil
}

// IDs lists every container id in the document, sorted.
func (d *Document) IDs() []string {
	ids := make([]string, 0, len(d.byID))
	for id := range d.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
