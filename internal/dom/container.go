package dom

import (
	"bytes"
	"io"
	"strconv"

	"golang.org/x/net/html"
)

type Container struct {
	doc  *Document
	node *html.Node
}

func (c *Container) ID() string {
	return attr(c.node, "id")
}

func (c *Container) Attr(key string) string {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return attr(c.node, key)
}

func (c *Container) SetAttr(key, val string) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	setAttr(c.node, key, val)
}

// SetBusy toggles aria-busy while the section is loading.
func (c *Container) SetBusy(busy bool) {
	c.SetAttr("aria-busy", strconv.FormatBool(busy))
}

// Clear removes every child of the container.
func (c *Container) Clear() {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	clearChildren(c.node)
}

func (c *Container) Append(nodes ...*html.Node) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	for _, n := range nodes {
		if n != nil {
			c.node.AppendChild(n)
		}
	}
}

// Replace swaps the container's children for nodes in one step.
func (c *Container) Replace(nodes ...*html.Node) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	clearChildren(c.node)
	for _, n := range nodes {
		if n != nil {
			c.node.AppendChild(n)
		}
	}
}

// SetMessage replaces the content with a single muted paragraph.
func (c *Container) SetMessage(msg string) {
	c.Replace(Element("p", "class", "text-muted mb-0").Append(Text(msg)).Node())
}

// SetLoading shows the loading placeholder.
func (c *Container) SetLoading() {
	c.Replace(Element("div", "class", "w-100 text-center py-3").Append(Text("Loading…")).Node())
}

// RenderInner writes the container's children, without the container itself.
func (c *Container) RenderInner(w io.Writer) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	for n := c.node.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) InnerHTML() string {
	var buf bytes.Buffer
	_ = c.RenderInner(&buf)
	return buf.String()
}

// Text returns the concatenated text content of the container.
func (c *Container) Text() string {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	var buf bytes.Buffer
	collectText(&buf, c.node)
	return buf.String()
}

func clearChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

func collectText(buf *bytes.Buffer, n *html.Node) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(buf, c)
	}
}
