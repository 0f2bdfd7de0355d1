package widget

import (
	"fmt"

	"github.com/strand-ui/strand/pkg/dom"
)

// Structural wrappers translate margin, alignment, and scroll state into
// invisible decorator nodes around the primary node. A wrapper exists iff
// its state is non-default, and a wrapper that stays present across an
// update is reused in place, never destroyed and recreated: renderer-level
// state attached to its nodes (a transition in flight) must survive.

// Margin is the four margin values in CSS order: left, top, right, bottom.
type Margin [4]float64

// IsZero reports whether all four margins are zero.
func (m Margin) IsZero() bool { return m == Margin{} }

// Alignment is a pair of per-axis alignment fractions. A nil entry means
// "stretch to fill" on that axis; a fraction f in [0,1] positions content at
// f of the free space (0.5 centers).
type Alignment [2]*float64

// IsDefault reports whether both axes stretch.
func (a Alignment) IsDefault() bool { return a[0] == nil && a[1] == nil }

// ScrollMode is a per-axis scrolling behavior.
type ScrollMode string

const (
	ScrollNever  ScrollMode = "never"
	ScrollAuto   ScrollMode = "auto"
	ScrollAlways ScrollMode = "always"
)

// Scroll is the per-axis scroll pair (x, y).
type Scroll [2]ScrollMode

// IsDefault reports whether neither axis scrolls.
func (s Scroll) IsDefault() bool {
	return (s[0] == ScrollNever || s[0] == "") && (s[1] == ScrollNever || s[1] == "")
}

// wrapNode splices w into below's slot: below's old slot now holds w, and
// below becomes w's (innermost) child. Works for detached components too,
// where below simply has no slot to take over.
func wrapNode(w, innermost, below *dom.Node) {
	if below.Parent() != nil {
		below.ReplaceWith(w)
	}
	innermost.AppendChild(below)
}

// unwrapNode splices w out, reparenting below into w's former slot.
func unwrapNode(w, below *dom.Node) {
	if w.Parent() != nil {
		w.ReplaceWith(below)
	} else {
		below.Remove()
	}
}

// setMargin creates, updates, or removes the margin wrapper.
func (t *Tree) setMargin(c *Component, m Margin) {
	if m.IsZero() {
		if c.margin != nil {
			unwrapNode(c.margin, c.nodeBelow(layerMargin))
			c.margin = nil
		}
		return
	}

	if c.margin == nil {
		w := dom.New("div")
		w.Owner = c
		w.SetAttr("data-strand-margin", "1")
		wrapNode(w, w, c.nodeBelow(layerMargin))
		c.margin = w
	}

	// Restyle in place on every update.
	c.margin.SetStyle("box-sizing", "border-box")
	c.margin.SetStyle("padding-left", px(m[0]))
	c.margin.SetStyle("padding-top", px(m[1]))
	c.margin.SetStyle("padding-right", px(m[2]))
	c.margin.SetStyle("padding-bottom", px(m[3]))
}

// setAlignment creates, updates, or removes the alignment wrapper pair. The
// outer node positions the wrapper within the parent-allocated box; the
// inner node sizes and positions the content.
func (t *Tree) setAlignment(c *Component, a Alignment) {
	if a.IsDefault() {
		if c.alignOuter != nil {
			unwrapNode(c.alignOuter, c.nodeBelow(layerAlign))
			c.alignOuter = nil
			c.alignInner = nil
		}
		return
	}

	if c.alignOuter == nil {
		outer := dom.New("div")
		outer.Owner = c
		outer.SetAttr("data-strand-align", "1")
		inner := dom.New("div")
		inner.Owner = c
		outer.SetStyle("position", "relative")
		outer.SetStyle("width", "100%")
		outer.SetStyle("height", "100%")
		inner.SetStyle("position", "absolute")
		outer.AppendChild(inner)
		wrapNode(outer, inner, c.nodeBelow(layerAlign))
		c.alignOuter = outer
		c.alignInner = inner
	}

	// Per axis: nil stretches to 100% of the box; a fraction f sizes the
	// content to its natural extent and offsets it to f of the free space.
	inner := c.alignInner
	var tx, ty string
	if a[0] == nil {
		inner.SetStyle("width", "100%")
		inner.SetStyle("left", "0")
		tx = "0"
	} else {
		inner.SetStyle("width", "max-content")
		inner.SetStyle("left", pct(*a[0]))
		tx = pct(-*a[0])
	}
	if a[1] == nil {
		inner.SetStyle("height", "100%")
		inner.SetStyle("top", "0")
		ty = "0"
	} else {
		inner.SetStyle("height", "max-content")
		inner.SetStyle("top", pct(*a[1]))
		ty = pct(-*a[1])
	}
	inner.SetStyle("transform", fmt.Sprintf("translate(%s, %s)", tx, ty))
}

// setScroll creates, updates, or removes the scroll wrapper.
func (t *Tree) setScroll(c *Component, s Scroll) {
	if s.IsDefault() {
		if c.scroll != nil {
			unwrapNode(c.scroll, c.node)
			c.scroll = nil
		}
		return
	}

	if c.scroll == nil {
		w := dom.New("div")
		w.Owner = c
		w.SetAttr("data-strand-scroll", "1")
		// The scroll wrapper sits below margin and alignment; it always
		// wraps the primary node directly.
		wrapNode(w, w, c.node)
		c.scroll = w
	}

	c.scroll.SetStyle("overflow-x", overflow(s[0]))
	c.scroll.SetStyle("overflow-y", overflow(s[1]))
}

func overflow(m ScrollMode) string {
	switch m {
	case ScrollAlways:
		return "scroll"
	case ScrollAuto:
		return "auto"
	default:
		return "visible"
	}
}

func px(v float64) string {
	return fmt.Sprintf("%gpx", v)
}

func pct(f float64) string {
	return fmt.Sprintf("%g%%", f*100)
}
