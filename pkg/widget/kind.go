package widget

import (
	"fmt"

	"github.com/strand-ui/strand/pkg/dom"
)

// Widget is the capability interface implemented once per component kind.
// The engine calls it; widget authors never touch the reconciler internals.
type Widget interface {
	// CreateNode produces the component's primary render node. Called
	// exactly once, at creation, before the initial delta is applied.
	CreateNode(t *Tree, c *Component) *dom.Node

	// ApplyDelta applies the widget-specific remainder of a delta. The
	// framework-common keys (margin, alignment, scroll, minimum size,
	// accessibility role) have already been handled when it runs, so the
	// handler may read derived state such as current wrapper existence.
	// Errors are local to the widget and never abort the pass.
	ApplyDelta(t *Tree, c *Component, delta Delta) error
}

// Destroyer is optionally implemented by widgets that hold resources
// (subscriptions, timers) needing release when the component is reaped.
type Destroyer interface {
	Destroy(t *Tree, c *Component)
}

// KindSet is a closed registry of widget kinds.
type KindSet struct {
	kinds map[string]Widget
}

// NewKindSet creates an empty kind registry.
func NewKindSet() *KindSet {
	return &KindSet{kinds: make(map[string]Widget)}
}

// Register adds a widget implementation for a kind. Registering the same
// kind twice is a programmer error.
func (k *KindSet) Register(kind string, w Widget) {
	if _, exists := k.kinds[kind]; exists {
		panic(fmt.Sprintf("widget: kind %q registered twice", kind))
	}
	k.kinds[kind] = w
}

// Get returns the widget for a kind.
func (k *KindSet) Get(kind string) (Widget, bool) {
	w, ok := k.kinds[kind]
	return w, ok
}

// Kinds returns the number of registered kinds.
func (k *KindSet) Kinds() int { return len(k.kinds) }

// BuiltinKinds returns a registry with the built-in widget kinds
// (container, row, text, button, switcher).
func BuiltinKinds() *KindSet {
	k := NewKindSet()
	k.Register(KindContainer, &containerWidget{vertical: true})
	k.Register(KindRow, &containerWidget{})
	k.Register(KindText, &textWidget{})
	k.Register(KindButton, &buttonWidget{})
	k.Register(KindSwitcher, &switcherWidget{})
	return k
}
