package schemadoc

import (
	"encoding/xml"
	"io"
	"strings"
)

// Attr is an XML attribute. Name keeps its prefix as written ("xmlns:ns0").
type Attr struct {
	Name  string
	Value string
}

// Node is an ordered XML element. Name keeps its prefix as written
// ("ns0:Order"), so the fold and the prompt see the tags the user uploaded.
type Node struct {
	Name     string
	Attrs    []Attr
	Text     string // trimmed character data directly under this element
	Children []*Node
}

// IsLeaf reports whether the element has no child elements.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// LocalName returns Name without its prefix.
func (n *Node) LocalName() string {
	if i := strings.IndexByte(n.Name, ':'); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// Fold converts the element to plain values. A leaf folds to its text. A
// non-leaf folds to a map from child tag to folded child; when several
// siblings share a tag they are kept, in document order, as a []any under
// that tag. Attributes are not part of the fold.
func (n *Node) Fold() any {
	if n.IsLeaf() {
		return n.Text
	}

	out := make(map[string]any, len(n.Children))
	counts := make(map[string]int, len(n.Children))
	for _, c := range n.Children {
		counts[c.Name]++
	}
	for _, c := range n.Children {
		v := c.Fold()
		if counts[c.Name] == 1 {
			out[c.Name] = v
			continue
		}
		list, _ := out[c.Name].([]any)
		out[c.Name] = append(list, v)
	}
	return out
}

// Encode writes the element and its subtree as compact XML.
func (n *Node) Encode(w io.Writer) error {
	var b strings.Builder
	n.encode(&b)
	_, err := io.WriteString(w, b.String())
	return err
}

// String returns the compact XML form of the subtree.
func (n *Node) String() string {
	var b strings.Builder
	n.encode(&b)
	return b.String()
}

func (n *Node) encode(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(n.Name)
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		escape(b, a.Value)
		b.WriteByte('"')
	}
	if n.IsLeaf() && n.Text == "" {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	escape(b, n.Text)
	for _, c := range n.Children {
		c.encode(b)
	}
	b.WriteString("</")
	b.WriteString(n.Name)
	b.WriteByte('>')
}

func escape(b *strings.Builder, s string) {
	// strings.Builder never returns a write error.
	_ = xml.EscapeText(b, []byte(s))
}
