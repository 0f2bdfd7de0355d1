package widget

import (
	"github.com/strand-ui/strand/pkg/dom"
)

// Built-in widget kinds. Their visual behavior is deliberately minimal; they
// exist so a tree can be driven end to end without an application widget
// set, and so every engine operation has a first-party consumer.
const (
	KindContainer = "container"
	KindRow       = "row"
	KindText      = "text"
	KindButton    = "button"
	KindSwitcher  = "switcher"
)

// containerWidget lays out an ordered list of children, each wrapped in an
// envelope node.
type containerWidget struct {
	vertical bool
}

func (w *containerWidget) CreateNode(t *Tree, c *Component) *dom.Node {
	n := dom.New("div")
	n.SetStyle("display", "flex")
	if w.vertical {
		n.SetStyle("flex-direction", "column")
	} else {
		n.SetStyle("flex-direction", "row")
	}
	return n
}

func (w *containerWidget) ApplyDelta(t *Tree, c *Component, delta Delta) error {
	for key, value := range delta {
		switch key {
		case "children":
			ids, err := ChildIDs(value)
			if err != nil {
				t.WarnMalformed(c, key, err)
				continue
			}
			t.ReplaceChildren(c, c.Node(), ids, true)
		case "spacing":
			if f, ok := asFloat(value); ok {
				c.Node().SetStyle("gap", px(f))
			}
		default:
			t.WarnUnknownField(c, key)
		}
	}
	return nil
}

// textWidget renders a run of text.
type textWidget struct{}

func (w *textWidget) CreateNode(t *Tree, c *Component) *dom.Node {
	return dom.New("span")
}

func (w *textWidget) ApplyDelta(t *Tree, c *Component, delta Delta) error {
	for key, value := range delta {
		switch key {
		case "text":
			c.Node().Text = AsString(value)
		default:
			t.WarnUnknownField(c, key)
		}
	}
	return nil
}

// buttonWidget is a pressable label. Press reports through the user-event
// path, not the state-update path: a press is not a state change.
type buttonWidget struct{}

func (w *buttonWidget) CreateNode(t *Tree, c *Component) *dom.Node {
	n := dom.New("button")
	n.SetAttr("type", "button")
	return n
}

func (w *buttonWidget) ApplyDelta(t *Tree, c *Component, delta Delta) error {
	for key, value := range delta {
		switch key {
		case "label":
			c.Node().Text = AsString(value)
		case "enabled":
			if b, ok := value.(bool); ok && !b {
				c.Node().SetAttr("disabled", "1")
			} else {
				c.Node().RemoveAttr("disabled")
			}
		default:
			t.WarnUnknownField(c, key)
		}
	}
	return nil
}

// Press simulates a user press on a button component, emitting the
// widget-defined user event.
func Press(t *Tree, c *Component) {
	if _, disabled := c.Node().Attr("disabled"); disabled {
		return
	}
	c.EmitUserEvent(t, map[string]any{"event": "press"})
}

// switcherWidget shows at most one child at a time, replacing its content
// when the "child" key changes.
type switcherWidget struct{}

func (w *switcherWidget) CreateNode(t *Tree, c *Component) *dom.Node {
	return dom.New("div")
}

func (w *switcherWidget) ApplyDelta(t *Tree, c *Component, delta Delta) error {
	for key, value := range delta {
		switch key {
		case "child":
			t.ReplaceOnlyChild(c, c.Node(), AsString(value), false)
		default:
			t.WarnUnknownField(c, key)
		}
	}
	return nil
}
