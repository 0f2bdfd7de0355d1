package dom

import (
	"slices"
	"strings"
)

// AttrEnvelope marks throwaway envelope nodes injected between a container
// and its children. The reconciler skips the envelope layer when resolving a
// sibling slot back to a component.
const AttrEnvelope = "data-strand-envelope"

// Node is a single render node.
type Node struct {
	// Tag is the node's element tag (e.g. "div").
	Tag string

	// Text is the node's text content, for leaf text nodes.
	Text string

	// Owner is an opaque back-reference to the component this node belongs
	// to. Set on primary and wrapper nodes; nil on envelopes and inert
	// markup.
	Owner any

	attrs    map[string]string
	style    map[string]string
	parent   *Node
	children []*Node
}

// New creates a detached node with the given tag.
func New(tag string) *Node {
	return &Node{Tag: tag}
}

// NewEnvelope creates a detached envelope node.
func NewEnvelope() *Node {
	n := New("div")
	n.SetAttr(AttrEnvelope, "1")
	return n
}

// IsEnvelope reports whether n is a throwaway envelope node.
func (n *Node) IsEnvelope() bool {
	_, ok := n.attrs[AttrEnvelope]
	return ok
}

// Parent returns the node's parent, or nil if detached.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's child slice. The slice is owned by the node;
// callers that mutate the tree while iterating must copy it first.
func (n *Node) Children() []*Node {
	return n.children
}

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// Index returns n's position in its parent's child list, or -1 if detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	return slices.Index(n.parent.children, n)
}

// AppendChild attaches c as the last child of n, detaching it from any
// previous parent first.
func (n *Node) AppendChild(c *Node) {
	c.Remove()
	c.parent = n
	n.children = append(n.children, c)
}

// InsertBefore attaches c immediately before ref in n's child list. If ref is
// nil, c is appended. ref must be a child of n.
func (n *Node) InsertBefore(c, ref *Node) {
	if ref == nil {
		n.AppendChild(c)
		return
	}
	if ref.parent != n {
		panic("dom: InsertBefore reference is not a child of this node")
	}
	c.Remove()
	i := slices.Index(n.children, ref)
	c.parent = n
	n.children = slices.Insert(n.children, i, c)
}

// Remove detaches n from its parent. No-op if already detached.
func (n *Node) Remove() {
	if n.parent == nil {
		return
	}
	i := slices.Index(n.parent.children, n)
	if i >= 0 {
		n.parent.children = slices.Delete(n.parent.children, i, i+1)
	}
	n.parent = nil
}

// ReplaceWith puts o in n's slot, detaching n. o is detached from its own
// parent first. No-op if n is detached.
func (n *Node) ReplaceWith(o *Node) {
	p := n.parent
	if p == nil || n == o {
		return
	}
	o.Remove()
	i := slices.Index(p.children, n)
	n.parent = nil
	o.parent = p
	p.children[i] = o
}

// SetAttr sets an attribute.
func (n *Node) SetAttr(key, value string) {
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
}

// Attr returns an attribute value and whether it is set.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// RemoveAttr removes an attribute. No-op if not set.
func (n *Node) RemoveAttr(key string) {
	delete(n.attrs, key)
}

// SetStyle sets a style property.
func (n *Node) SetStyle(prop, value string) {
	if n.style == nil {
		n.style = make(map[string]string)
	}
	n.style[prop] = value
}

// Style returns a style property value ("" if unset).
func (n *Node) Style(prop string) string {
	return n.style[prop]
}

// RemoveStyle removes a style property. No-op if not set.
func (n *Node) RemoveStyle(prop string) {
	delete(n.style, prop)
}

// Contains reports whether d is n or a descendant of n.
func (n *Node) Contains(d *Node) bool {
	for ; d != nil; d = d.parent {
		if d == n {
			return true
		}
	}
	return false
}

// String renders the subtree as a compact one-line description, for logs and
// test assertions. Attribute order is not included; only tag, envelope
// marker, text, and structure.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	b.WriteString(n.Tag)
	if n.IsEnvelope() {
		b.WriteString("*")
	}
	if n.Text != "" {
		b.WriteString("(")
		b.WriteString(n.Text)
		b.WriteString(")")
	}
	if len(n.children) > 0 {
		b.WriteString("[")
		for i, c := range n.children {
			if i > 0 {
				b.WriteString(" ")
			}
			c.write(b)
		}
		b.WriteString("]")
	}
}
