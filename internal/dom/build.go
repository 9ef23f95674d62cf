package dom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Builder wraps a detached element while renderers assemble markup.
type Builder struct {
	n *html.Node
}

// Element creates a detached element. attrs are key, value pairs.
func Element(tag string, attrs ...string) *Builder {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return &Builder{n: n}
}

// SVG creates a detached element in the svg namespace.
func SVG(tag string, attrs ...string) *Builder {
	b := Element(tag, attrs...)
	b.n.Namespace = "svg"
	return b
}

func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func (b *Builder) Attr(key, val string) *Builder {
	setAttr(b.n, key, val)
	return b
}

func (b *Builder) Append(children ...*html.Node) *Builder {
	for _, c := range children {
		if c != nil {
			b.n.AppendChild(c)
		}
	}
	return b
}

func (b *Builder) Node() *html.Node {
	return b.n
}

// Nodes unwraps builders in order.
func Nodes(bs ...*Builder) []*html.Node {
	out := make([]*html.Node, len(bs))
	for i, b := range bs {
		out[i] = b.n
	}
	return out
}
