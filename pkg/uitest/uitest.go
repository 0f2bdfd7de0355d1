package uitest

import (
	"log/slog"
	"slices"
	"strings"
	"testing"

	serrors "github.com/strand-ui/strand/internal/errors"
	"github.com/strand-ui/strand/pkg/dom"
	"github.com/strand-ui/strand/pkg/widget"
)

// StateUpdate is one recorded outbound state update.
type StateUpdate struct {
	ComponentID string
	Delta       widget.Delta
}

// UserEvent is one recorded outbound user event.
type UserEvent struct {
	ComponentID string
	Payload     map[string]any
}

// Harness drives a reconciliation tree and records its outbound traffic.
type Harness struct {
	t    *testing.T
	tree *widget.Tree

	updates []StateUpdate
	events  []UserEvent
}

// Option configures a Harness.
type Option func(*config)

type config struct {
	kinds     *widget.KindSet
	observers []widget.Observer
}

// WithKinds sets the widget kind registry. Defaults to the builtins.
func WithKinds(kinds *widget.KindSet) Option {
	return func(c *config) { c.kinds = kinds }
}

// WithObserver adds a tree observer.
func WithObserver(o widget.Observer) Option {
	return func(c *config) { c.observers = append(c.observers, o) }
}

// New creates a harness.
func New(t *testing.T, opts ...Option) *Harness {
	t.Helper()
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.kinds == nil {
		cfg.kinds = widget.BuiltinKinds()
	}

	h := &Harness{t: t}
	treeOpts := []widget.TreeOption{
		widget.WithKinds(cfg.kinds),
		widget.WithLogger(slog.Default()),
		widget.WithOutbox(h),
	}
	for _, o := range cfg.observers {
		treeOpts = append(treeOpts, widget.WithObserver(o))
	}
	h.tree = widget.NewTree(treeOpts...)
	return h
}

// Tree returns the underlying reconciliation tree.
func (h *Harness) Tree() *widget.Tree { return h.tree }

// SendStateUpdate implements widget.Outbox.
func (h *Harness) SendStateUpdate(componentID string, delta widget.Delta) {
	h.updates = append(h.updates, StateUpdate{ComponentID: componentID, Delta: delta})
}

// SendUserEvent implements widget.Outbox.
func (h *Harness) SendUserEvent(componentID string, payload map[string]any) {
	h.events = append(h.events, UserEvent{ComponentID: componentID, Payload: payload})
}

// StateUpdates returns the recorded outbound state updates, oldest first.
func (h *Harness) StateUpdates() []StateUpdate { return h.updates }

// UserEvents returns the recorded outbound user events, oldest first.
func (h *Harness) UserEvents() []UserEvent { return h.events }

// Root creates a component, promotes it to root, and returns it.
func (h *Harness) Root(id, kind string, fields widget.Delta) *widget.Component {
	h.t.Helper()
	c := h.tree.Create(id, kind, fields)
	h.tree.PromoteRoot(id)
	return c
}

// Create creates a component. It starts unclaimed; parent it in the same
// pass or Reap destroys it.
func (h *Harness) Create(id, kind string, fields widget.Delta) *widget.Component {
	h.t.Helper()
	return h.tree.Create(id, kind, fields)
}

// Apply applies a server-origin delta to an existing component. The
// component must exist; use Create for new identities.
func (h *Harness) Apply(id string, fields widget.Delta) {
	h.t.Helper()
	c, ok := h.tree.Component(id)
	if !ok {
		h.t.Fatalf("uitest: no component %q", id)
	}
	if err := h.tree.ApplyDelta(c, fields); err != nil {
		h.t.Fatalf("uitest: delta on %q: %v", id, err)
	}
}

// Reap destroys everything still unclaimed, as the session does at the
// end of each batch.
func (h *Harness) Reap() {
	h.tree.Reap()
}

// Component looks an identity up, failing the test when absent.
func (h *Harness) Component(id string) *widget.Component {
	h.t.Helper()
	c, ok := h.tree.Component(id)
	if !ok {
		h.t.Fatalf("uitest: no component %q", id)
	}
	return c
}

// Dump renders the root component's node tree as a compact string.
func (h *Harness) Dump() string {
	root := h.tree.Root()
	if root == nil {
		return "<no root>"
	}
	return root.OuterNode().String()
}

// ExpectText asserts the component's primary node carries the text.
func (h *Harness) ExpectText(id, text string) {
	h.t.Helper()
	if got := h.Component(id).Node().Text; got != text {
		h.t.Errorf("%s: text = %q, want %q", id, got, text)
	}
}

// ExpectAttr asserts an attribute value on the component's primary node.
func (h *Harness) ExpectAttr(id, key, value string) {
	h.t.Helper()
	got, ok := h.Component(id).Node().Attr(key)
	if !ok {
		h.t.Errorf("%s: attribute %q absent", id, key)
		return
	}
	if got != value {
		h.t.Errorf("%s: attr %q = %q, want %q", id, key, got, value)
	}
}

// ExpectChildren asserts the component's ownership set, in render order.
func (h *Harness) ExpectChildren(id string, want ...string) {
	h.t.Helper()
	parent := h.Component(id)

	var got []string
	walkSlots(parent.Node(), &got)
	if !slices.Equal(got, want) {
		h.t.Errorf("%s: children = %v, want %v (tree: %s)", id, got, want, h.Dump())
	}
	for _, childID := range want {
		child := h.Component(childID)
		if child.Parent() != parent {
			h.t.Errorf("%s: not the owner of %s", id, childID)
		}
	}
}

// ExpectDestroyed asserts the identity is gone from the registry.
func (h *Harness) ExpectDestroyed(id string) {
	h.t.Helper()
	if _, ok := h.tree.Component(id); ok {
		h.t.Errorf("%s: still registered", id)
	}
}

// ExpectEvent asserts that the most recent outbound user event came from
// the component and carries the given key/value.
func (h *Harness) ExpectEvent(id, key string, value any) {
	h.t.Helper()
	if len(h.events) == 0 {
		h.t.Fatalf("no user events recorded")
	}
	ev := h.events[len(h.events)-1]
	if ev.ComponentID != id {
		h.t.Errorf("last event from %q, want %q", ev.ComponentID, id)
	}
	if got := ev.Payload[key]; got != value {
		h.t.Errorf("event %q = %v, want %v", key, got, value)
	}
}

// ExpectIntegrityPanic runs fn and asserts it panics with the given
// integrity error code.
func ExpectIntegrityPanic(t *testing.T, code string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with code %s", code)
		}
		se, ok := r.(*serrors.StrandError)
		if !ok {
			t.Fatalf("panic value %T, want *StrandError", r)
		}
		if se.Code != code {
			t.Fatalf("panic code %s, want %s", se.Code, code)
		}
	}()
	fn()
}

// walkSlots collects the component identities directly under n in render
// order, looking through structural wrapper nodes.
func walkSlots(n *dom.Node, out *[]string) {
	for _, child := range n.Children() {
		if c, ok := child.Owner.(*widget.Component); ok {
			*out = append(*out, c.ID())
			continue
		}
		walkSlots(child, out)
	}
}

// DumpContains asserts the tree dump contains the substring. Useful for
// quick structural checks without naming every node.
func (h *Harness) DumpContains(sub string) {
	h.t.Helper()
	if dump := h.Dump(); !strings.Contains(dump, sub) {
		h.t.Errorf("dump missing %q:\n%s", sub, dump)
	}
}
