package widget

import (
	"github.com/strand-ui/strand/pkg/dom"
)

// State is a component's open-ended state record. Its shape is dictated by
// the component's kind.
type State map[string]any

// Delta is a partial state update. Keys absent from a delta are unchanged,
// never "reset to default".
type Delta map[string]any

// Component is a node in the server-authoritative UI tree together with its
// client-side render representation.
type Component struct {
	id     string
	kind   string
	widget Widget
	state  State

	// node is the primary render node produced by the widget.
	node *dom.Node

	// Structural wrappers, outermost first: margin > align > scroll > node.
	margin     *dom.Node
	alignOuter *dom.Node
	alignInner *dom.Node
	scroll     *dom.Node

	// parent is the owning component. After Unparent it goes stale on
	// purpose: fade-out effects need to know who the component left. It is
	// only trustworthy while the parent's child set contains this component.
	parent   *Component
	children map[*Component]struct{}

	destroyed bool
}

// ID returns the component's server-assigned identity.
func (c *Component) ID() string { return c.id }

// Kind returns the component's kind discriminator. Immutable after creation.
func (c *Component) Kind() string { return c.kind }

// Node returns the primary render node. Attachment must go through
// OuterNode; Node exists for widget implementations and inspectors.
func (c *Component) Node() *dom.Node { return c.node }

// Parent returns the parent reference. It may be stale for orphaned
// components; see Tree.IsOrphan.
func (c *Component) Parent() *Component { return c.parent }

// Destroyed reports whether the component has been reaped.
func (c *Component) Destroyed() bool { return c.destroyed }

// State returns the component's state record. The engine merges every
// applied delta into it; widgets may read it but should mutate only through
// deltas.
func (c *Component) State() State { return c.state }

// HasChild reports whether child is currently owned by c.
func (c *Component) HasChild(child *Component) bool {
	_, ok := c.children[child]
	return ok
}

// ChildCount returns the number of owned children.
func (c *Component) ChildCount() int { return len(c.children) }

// Children returns the owned children. The set is unordered; order lives in
// the parent's own child sequence in the render tree.
func (c *Component) Children() []*Component {
	out := make([]*Component, 0, len(c.children))
	for child := range c.children {
		out = append(out, child)
	}
	return out
}

// OuterNode returns the component's current outermost render node:
// margin wrapper, else alignment wrapper, else scroll wrapper, else the
// primary node. Consumers must always attach and detach via this node.
func (c *Component) OuterNode() *dom.Node {
	switch {
	case c.margin != nil:
		return c.margin
	case c.alignOuter != nil:
		return c.alignOuter
	case c.scroll != nil:
		return c.scroll
	default:
		return c.node
	}
}

// nodeBelow returns the topmost node strictly below the given wrapper layer,
// i.e. the node a newly created wrapper at that layer must enclose.
func (c *Component) nodeBelow(layer wrapperLayer) *dom.Node {
	if layer == layerMargin {
		if c.alignOuter != nil {
			return c.alignOuter
		}
	}
	if layer <= layerAlign {
		if c.scroll != nil {
			return c.scroll
		}
	}
	return c.node
}

type wrapperLayer uint8

const (
	layerMargin wrapperLayer = iota
	layerAlign
	layerScroll
)
