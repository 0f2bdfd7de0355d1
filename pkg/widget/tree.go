package widget

import (
	"log/slog"

	serrors "github.com/strand-ui/strand/internal/errors"
	"github.com/strand-ui/strand/pkg/dom"
)

// Origin says where an applied delta came from.
type Origin uint8

const (
	// OriginServer marks deltas pushed by the application server.
	OriginServer Origin = iota
	// OriginLocal marks user-interaction echoes applied on the client.
	OriginLocal
)

// String returns the string representation of the Origin.
func (o Origin) String() string {
	switch o {
	case OriginServer:
		return "server"
	case OriginLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Outbox is the outbound notification path to the transport collaborator.
// Sends are fire-and-forget; the reconciler never awaits a response.
type Outbox interface {
	// SendStateUpdate forwards a locally applied delta to the server. The
	// delta is the exact map that was applied, not a recomputed one.
	SendStateUpdate(componentID string, delta Delta)

	// SendUserEvent forwards a widget-defined event payload that is not a
	// state change (e.g. "button clicked").
	SendUserEvent(componentID string, payload map[string]any)
}

// Observer passively watches tree mutations (e.g. inspector tooling).
// Observers must treat the tree as read-only.
type Observer interface {
	ComponentCreated(c *Component)
	ComponentUpdated(c *Component, delta Delta, origin Origin)
	ComponentDestroyed(c *Component)
}

// PassStats counts structural edits since the last ResetStats. The session
// layer snapshots them per reconciliation batch for metrics.
type PassStats struct {
	Created int // components created
	Deltas  int // deltas applied
	Inserts int // child slots inserted
	Removes int // child slots removed
	Reaped  int // components destroyed by Reap
}

// Tree is the reconciliation context for one component tree: the identity
// registry, the orphan set, the outbound path, and passive observers. One
// process may hold several independent Trees (one per session).
//
// A Tree is not safe for concurrent use; the session layer funnels every
// mutation through a single event-processing goroutine.
type Tree struct {
	kinds     *KindSet
	logger    *slog.Logger
	outbox    Outbox
	observers []Observer

	components map[string]*Component
	orphans    map[*Component]struct{}
	root       *Component

	stats PassStats
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

// WithKinds sets the widget kind registry. Defaults to BuiltinKinds.
func WithKinds(k *KindSet) TreeOption {
	return func(t *Tree) { t.kinds = k }
}

// WithLogger sets the tree's logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) TreeOption {
	return func(t *Tree) { t.logger = l }
}

// WithOutbox sets the outbound notification path. A nil outbox makes
// ApplyAndNotify equivalent to ApplyLocally.
func WithOutbox(o Outbox) TreeOption {
	return func(t *Tree) { t.outbox = o }
}

// WithObserver adds a passive observer.
func WithObserver(o Observer) TreeOption {
	return func(t *Tree) { t.observers = append(t.observers, o) }
}

// NewTree creates an empty reconciliation context.
func NewTree(opts ...TreeOption) *Tree {
	t := &Tree{
		components: make(map[string]*Component),
		orphans:    make(map[*Component]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.kinds == nil {
		t.kinds = BuiltinKinds()
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Logger returns the tree's logger.
func (t *Tree) Logger() *slog.Logger { return t.logger }

// Len returns the number of live components.
func (t *Tree) Len() int { return len(t.components) }

// Root returns the promoted root component, or nil.
func (t *Tree) Root() *Component { return t.root }

// Component looks up a component by identity.
func (t *Tree) Component(id string) (*Component, bool) {
	c, ok := t.components[id]
	return c, ok
}

// MustComponent looks up a component by identity. An unknown identity means
// the server and client registries have diverged; this is fatal for the
// current pass.
func (t *Tree) MustComponent(id string) *Component {
	c, ok := t.components[id]
	if !ok {
		panic(serrors.New("E101").WithComponent(id))
	}
	return c
}

// IsOrphan reports whether c is currently in the orphan set.
func (t *Tree) IsOrphan(c *Component) bool {
	_, ok := t.orphans[c]
	return ok
}

// OrphanCount returns the size of the orphan set.
func (t *Tree) OrphanCount() int { return len(t.orphans) }

// Create instantiates a component for a new identity. The kind must be
// registered and the identity unused. The new component starts in the orphan
// set until some parent claims it (or PromoteRoot does); if nothing claims
// it by the end of the pass, Reap destroys it.
func (t *Tree) Create(id, kind string, delta Delta) *Component {
	if _, exists := t.components[id]; exists {
		panic(serrors.New("E100").WithComponent(id))
	}
	w, ok := t.kinds.Get(kind)
	if !ok {
		panic(serrors.New("E124").WithComponent(id).WithDetail("kind %q", kind))
	}

	c := &Component{
		id:       id,
		kind:     kind,
		widget:   w,
		state:    make(State),
		children: make(map[*Component]struct{}),
	}
	c.node = w.CreateNode(t, c)
	c.node.Owner = c

	t.components[id] = c
	t.orphans[c] = struct{}{}
	t.stats.Created++

	for _, o := range t.observers {
		o.ComponentCreated(c)
	}

	if len(delta) > 0 {
		if err := t.ApplyDelta(c, delta); err != nil {
			t.logger.Warn("initial delta failed", "component", id, "error", err)
		}
	}
	return c
}

// RegisterChild makes parent the owner of child. If child has a different
// current parent it is removed from that parent's child set first, and any
// orphan mark is cleared. Idempotent for a repeated (parent, child) pair.
func (t *Tree) RegisterChild(parent, child *Component) {
	if child.destroyed {
		panic(serrors.New("E104").WithComponent(child.id))
	}
	if child.parent != nil && child.parent != parent {
		delete(child.parent.children, child)
	}
	child.parent = parent
	parent.children[child] = struct{}{}
	delete(t.orphans, child)
	if t.root == child {
		t.root = nil
	}
}

// Unparent detaches child from its parent's child set and moves it to the
// orphan set. The stale parent reference is kept for diagnostics and
// transition effects until destruction. Calling Unparent on a component that
// is not currently attached is a programmer error.
func (t *Tree) Unparent(child *Component) {
	if child.parent == nil {
		panic(serrors.New("E102").WithComponent(child.id))
	}
	if _, attached := child.parent.children[child]; !attached {
		panic(serrors.New("E102").WithComponent(child.id).
			WithDetail("component already detached from %s", child.parent.id))
	}
	delete(child.parent.children, child)
	t.orphans[child] = struct{}{}
}

// PromoteRoot marks the component with the given identity as the tree root.
// The root has no parent but is exempt from reaping. A previously promoted
// root is demoted back into the orphan set.
func (t *Tree) PromoteRoot(id string) *Component {
	c := t.MustComponent(id)
	if t.root == c {
		return c
	}
	if t.root != nil {
		t.orphans[t.root] = struct{}{}
	}
	t.root = c
	delete(t.orphans, c)
	return c
}

// Reap destroys every component still in the orphan set. It must run only
// after every delta in the current batch has been processed, so components
// moved between parents within the batch are never spuriously destroyed.
func (t *Tree) Reap() {
	for len(t.orphans) > 0 {
		for c := range t.orphans {
			delete(t.orphans, c)
			t.destroy(c)
		}
	}
}

// destroy tears down c and every component it still owns. Wrappers and the
// registry entry are released; the widget gets a Destroy callback if it
// implements Destroyer.
func (t *Tree) destroy(c *Component) {
	if c.destroyed {
		return
	}
	c.destroyed = true

	// Children that were reclaimed by another parent mid-pass are no longer
	// in c.children and survive.
	for child := range c.children {
		delete(t.orphans, child)
		t.destroy(child)
	}
	clear(c.children)

	if d, ok := c.widget.(Destroyer); ok {
		d.Destroy(t, c)
	}

	c.OuterNode().Remove()
	c.margin = nil
	c.alignOuter = nil
	c.alignInner = nil
	c.scroll = nil

	delete(t.components, c.id)
	t.stats.Reaped++

	for _, o := range t.observers {
		o.ComponentDestroyed(c)
	}
}

// Stats returns the edit counters accumulated since the last ResetStats.
func (t *Tree) Stats() PassStats { return t.stats }

// ResetStats zeroes the edit counters.
func (t *Tree) ResetStats() { t.stats = PassStats{} }

// slotComponent maps a sibling slot back to its component: either the slot
// is a component's outermost node, or an envelope whose single child is one.
// Returns nil for empty envelopes and inert raw markup.
func slotComponent(slot *dom.Node) *Component {
	n := slot
	if slot.IsEnvelope() {
		n = slot.FirstChild()
		if n == nil {
			return nil
		}
	}
	c, _ := n.Owner.(*Component)
	return c
}
