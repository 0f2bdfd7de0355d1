package widget

import (
	"log/slog"
	"testing"

	serrors "github.com/strand-ui/strand/internal/errors"
)

// recordingOutbox captures outbound messages for assertions.
type recordingOutbox struct {
	updates []outboundUpdate
	events  []outboundEvent
}

type outboundUpdate struct {
	componentID string
	delta       Delta
}

type outboundEvent struct {
	componentID string
	payload     map[string]any
}

func (r *recordingOutbox) SendStateUpdate(id string, delta Delta) {
	r.updates = append(r.updates, outboundUpdate{id, delta})
}

func (r *recordingOutbox) SendUserEvent(id string, payload map[string]any) {
	r.events = append(r.events, outboundEvent{id, payload})
}

// recordingObserver captures observer callbacks.
type recordingObserver struct {
	created   []string
	updated   []string
	origins   []Origin
	destroyed []string
}

func (r *recordingObserver) ComponentCreated(c *Component) {
	r.created = append(r.created, c.ID())
}

func (r *recordingObserver) ComponentUpdated(c *Component, delta Delta, origin Origin) {
	r.updated = append(r.updated, c.ID())
	r.origins = append(r.origins, origin)
}

func (r *recordingObserver) ComponentDestroyed(c *Component) {
	r.destroyed = append(r.destroyed, c.ID())
}

func newTestTree(t *testing.T, opts ...TreeOption) *Tree {
	t.Helper()
	opts = append([]TreeOption{WithLogger(slog.Default())}, opts...)
	return NewTree(opts...)
}

// expectIntegrityPanic asserts that fn panics with a StrandError carrying
// the given code.
func expectIntegrityPanic(t *testing.T, code string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %s, got none", code)
		}
		se, ok := r.(*serrors.StrandError)
		if !ok {
			t.Fatalf("panic value = %v, want *StrandError", r)
		}
		if se.Code != code {
			t.Errorf("panic code = %s, want %s", se.Code, code)
		}
	}()
	fn()
}

func TestCreateRegistersComponent(t *testing.T) {
	tr := newTestTree(t)
	c := tr.Create("c1", KindText, Delta{"text": "hi"})

	if got, ok := tr.Component("c1"); !ok || got != c {
		t.Fatal("component not in registry")
	}
	if c.Kind() != KindText {
		t.Errorf("Kind = %q", c.Kind())
	}
	if c.Node().Text != "hi" {
		t.Errorf("initial delta not applied, text = %q", c.Node().Text)
	}
	if !tr.IsOrphan(c) {
		t.Error("new unclaimed component should be in the orphan set")
	}
}

func TestCreateDuplicateIdentityFatal(t *testing.T) {
	tr := newTestTree(t)
	tr.Create("c1", KindText, nil)
	expectIntegrityPanic(t, "E100", func() {
		tr.Create("c1", KindText, nil)
	})
}

func TestCreateUnknownKindFatal(t *testing.T) {
	tr := newTestTree(t)
	expectIntegrityPanic(t, "E124", func() {
		tr.Create("c1", "no-such-kind", nil)
	})
}

func TestMustComponentUnknownIdentityFatal(t *testing.T) {
	tr := newTestTree(t)
	expectIntegrityPanic(t, "E101", func() {
		tr.MustComponent("ghost")
	})
}

func TestRegisterChild(t *testing.T) {
	tr := newTestTree(t)
	p := tr.Create("p", KindContainer, nil)
	c := tr.Create("c", KindText, nil)

	tr.RegisterChild(p, c)

	if c.Parent() != p {
		t.Error("parent not set")
	}
	if !p.HasChild(c) {
		t.Error("child not in parent's set")
	}
	if tr.IsOrphan(c) {
		t.Error("registered child still in orphan set")
	}
}

func TestRegisterChildIdempotent(t *testing.T) {
	tr := newTestTree(t)
	p := tr.Create("p", KindContainer, nil)
	c := tr.Create("c", KindText, nil)

	tr.RegisterChild(p, c)
	tr.RegisterChild(p, c)

	if p.ChildCount() != 1 {
		t.Errorf("ChildCount = %d, want 1", p.ChildCount())
	}
}

func TestRegisterChildStealsFromOldParent(t *testing.T) {
	tr := newTestTree(t)
	p1 := tr.Create("p1", KindContainer, nil)
	p2 := tr.Create("p2", KindContainer, nil)
	c := tr.Create("c", KindText, nil)

	tr.RegisterChild(p1, c)
	tr.RegisterChild(p2, c)

	if p1.HasChild(c) {
		t.Error("old parent still owns child")
	}
	if !p2.HasChild(c) || c.Parent() != p2 {
		t.Error("new parent does not own child")
	}
}

func TestUnparentKeepsStaleParentReference(t *testing.T) {
	tr := newTestTree(t)
	p := tr.Create("p", KindContainer, nil)
	c := tr.Create("c", KindText, nil)
	tr.RegisterChild(p, c)

	tr.Unparent(c)

	if !tr.IsOrphan(c) {
		t.Error("unparented child not in orphan set")
	}
	if p.HasChild(c) {
		t.Error("child still in parent's set")
	}
	if c.Parent() != p {
		t.Error("stale parent reference must survive until destruction")
	}
}

func TestUnparentWithoutParentFatal(t *testing.T) {
	tr := newTestTree(t)
	c := tr.Create("c", KindText, nil)
	expectIntegrityPanic(t, "E102", func() {
		tr.Unparent(c)
	})
}

func TestUnparentTwiceFatal(t *testing.T) {
	tr := newTestTree(t)
	p := tr.Create("p", KindContainer, nil)
	c := tr.Create("c", KindText, nil)
	tr.RegisterChild(p, c)
	tr.Unparent(c)
	expectIntegrityPanic(t, "E102", func() {
		tr.Unparent(c)
	})
}

func TestReapDestroysOrphans(t *testing.T) {
	obs := &recordingObserver{}
	tr := newTestTree(t, WithObserver(obs))
	p := tr.Create("p", KindContainer, nil)
	tr.PromoteRoot("p")
	c := tr.Create("c", KindText, nil)
	tr.RegisterChild(p, c)

	tr.Unparent(c)
	tr.Reap()

	if !c.Destroyed() {
		t.Error("orphan not destroyed")
	}
	if _, ok := tr.Component("c"); ok {
		t.Error("destroyed component still in registry")
	}
	if tr.OrphanCount() != 0 {
		t.Errorf("OrphanCount = %d after reap", tr.OrphanCount())
	}
	if len(obs.destroyed) != 1 || obs.destroyed[0] != "c" {
		t.Errorf("observer destroyed = %v", obs.destroyed)
	}
	if p.Destroyed() {
		t.Error("root must never be reaped")
	}
}

func TestReclaimedComponentNotReaped(t *testing.T) {
	tr := newTestTree(t)
	p1 := tr.Create("p1", KindContainer, nil)
	p2 := tr.Create("p2", KindContainer, nil)
	tr.PromoteRoot("p1")
	tr.RegisterChild(p1, p2)
	c := tr.Create("c", KindText, nil)
	tr.RegisterChild(p1, c)

	// Detach, then reclaim within the same pass.
	tr.Unparent(c)
	tr.RegisterChild(p2, c)
	tr.Reap()

	if c.Destroyed() {
		t.Fatal("reclaimed component was reaped")
	}
	if !p2.HasChild(c) {
		t.Error("reclaimed component lost its new parent")
	}
}

func TestReapDestroysUnclaimedNewComponent(t *testing.T) {
	tr := newTestTree(t)
	c := tr.Create("c", KindText, nil)
	tr.Reap()
	if !c.Destroyed() {
		t.Error("component never claimed by a parent should be reaped")
	}
}

func TestReapDestroysOwnedSubtree(t *testing.T) {
	tr := newTestTree(t)
	p := tr.Create("p", KindContainer, nil)
	c := tr.Create("c", KindContainer, nil)
	g := tr.Create("g", KindText, nil)
	tr.PromoteRoot("p")
	tr.RegisterChild(p, c)
	tr.RegisterChild(c, g)

	tr.Unparent(c)
	tr.Reap()

	if !c.Destroyed() || !g.Destroyed() {
		t.Error("destroying an orphan must destroy the subtree it still owns")
	}
	if _, ok := tr.Component("g"); ok {
		t.Error("destroyed descendant still in registry")
	}
}

func TestReapSparesReclaimedDescendant(t *testing.T) {
	tr := newTestTree(t)
	root := tr.Create("root", KindContainer, nil)
	tr.PromoteRoot("root")
	c := tr.Create("c", KindContainer, nil)
	g := tr.Create("g", KindText, nil)
	tr.RegisterChild(root, c)
	tr.RegisterChild(c, g)

	// g moves to root before c is reaped.
	tr.Unparent(c)
	tr.RegisterChild(root, g)
	tr.Reap()

	if g.Destroyed() {
		t.Error("descendant reclaimed by another parent was destroyed")
	}
	if !c.Destroyed() {
		t.Error("orphan itself should be destroyed")
	}
}

func TestPromoteRootDemotesOldRoot(t *testing.T) {
	tr := newTestTree(t)
	tr.Create("r1", KindContainer, nil)
	tr.Create("r2", KindContainer, nil)

	tr.PromoteRoot("r1")
	tr.PromoteRoot("r2")

	r1 := tr.MustComponent("r1")
	if !tr.IsOrphan(r1) {
		t.Error("demoted root should re-enter the orphan set")
	}
	if tr.Root() == nil || tr.Root().ID() != "r2" {
		t.Error("root not switched")
	}
}

func TestDestroyedComponentUseFatal(t *testing.T) {
	tr := newTestTree(t)
	c := tr.Create("c", KindText, nil)
	tr.Reap()
	expectIntegrityPanic(t, "E104", func() {
		_ = tr.ApplyDelta(c, Delta{"text": "zombie"})
	})
}
