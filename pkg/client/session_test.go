package client

import (
	"context"
	"errors"
	"testing"

	"github.com/strand-ui/strand/pkg/dom"
	"github.com/strand-ui/strand/pkg/protocol"
	"github.com/strand-ui/strand/pkg/widget"
)

func dm(id, kind string, fields map[string]any) *protocol.DeltaMessage {
	return &protocol.DeltaMessage{ComponentID: id, Kind: kind, Fields: fields}
}

func batch(seq uint64, deltas ...*protocol.DeltaMessage) *protocol.DeltaBatch {
	return &protocol.DeltaBatch{Seq: seq, Deltas: deltas}
}

func TestApplyBatchBuildsTree(t *testing.T) {
	s := NewDetached(&Config{})
	s.ApplyBatch(context.Background(), batch(1,
		dm("t1", widget.KindText, map[string]any{"text": "hello"}),
		dm("b1", widget.KindButton, map[string]any{"label": "Go"}),
		dm("root", widget.KindContainer, map[string]any{"children": []any{"t1", "b1"}}),
	))

	root := s.Tree().Root()
	if root == nil || root.ID() != "root" {
		t.Fatal("root not promoted")
	}
	if root.OuterNode().Parent() != s.Surface() {
		t.Error("root not attached to the surface")
	}
	if s.Tree().Len() != 3 {
		t.Errorf("components = %d, want 3", s.Tree().Len())
	}
	t1, _ := s.Tree().Component("t1")
	if t1 == nil || t1.Node().Text != "hello" {
		t.Error("child delta not applied")
	}
	if s.LastSeq() != 1 || s.BatchCount() != 1 {
		t.Errorf("seq = %d batches = %d", s.LastSeq(), s.BatchCount())
	}
}

func TestApplyBatchOrderWithinBatch(t *testing.T) {
	// Children may be referenced by a container delta that arrives earlier
	// in the batch only if they were created first; servers order creation
	// before reference. Verify the batch applies strictly in order.
	s := NewDetached(&Config{})
	s.ApplyBatch(context.Background(), batch(1,
		dm("a", widget.KindText, map[string]any{"text": "one"}),
		dm("root", widget.KindContainer, map[string]any{"children": []any{"a"}}),
	))

	root := s.Tree().Root()
	a, _ := s.Tree().Component("a")
	if a == nil {
		t.Fatal("a missing")
	}
	if !root.HasChild(a) {
		t.Error("container delta could not see earlier creation in same batch")
	}
}

func TestMoveBetweenParentsWithinBatch(t *testing.T) {
	s := NewDetached(&Config{})
	ctx := context.Background()
	s.ApplyBatch(ctx, batch(1,
		dm("x", widget.KindText, map[string]any{"text": "x"}),
		dm("a", widget.KindContainer, map[string]any{"children": []any{"x"}}),
		dm("b", widget.KindContainer, nil),
		dm("root", widget.KindContainer, map[string]any{"children": []any{"a", "b"}}),
	))
	x, _ := s.Tree().Component("x")
	node := x.Node()

	// One batch moves x from a to b.
	s.ApplyBatch(ctx, batch(2,
		dm("b", "", map[string]any{"children": []any{"x"}}),
		dm("a", "", map[string]any{"children": []any{}}),
	))

	if x.Destroyed() {
		t.Fatal("moved component destroyed")
	}
	if x.Node() != node {
		t.Error("primary node recreated by the move")
	}
	a, _ := s.Tree().Component("a")
	b, _ := s.Tree().Component("b")
	if a.HasChild(x) {
		t.Error("x still owned by a")
	}
	if !b.HasChild(x) || x.Parent() != b {
		t.Error("x not owned by b after the batch")
	}
}

func TestIntegrityErrorDegradesToPlaceholder(t *testing.T) {
	s := NewDetached(&Config{})
	ctx := context.Background()
	s.ApplyBatch(ctx, batch(1,
		dm("a", widget.KindText, map[string]any{"text": "fine"}),
		dm("root", widget.KindContainer, map[string]any{"children": []any{"a"}}),
	))

	// Delta for an identity that was never created, with no kind: registry
	// divergence. The batch aborts; the surface degrades to a placeholder.
	s.ApplyBatch(ctx, batch(2,
		dm("ghost", "", map[string]any{"text": "boo"}),
	))

	found := false
	for _, n := range s.Surface().Children() {
		if code, ok := n.Attr("data-strand-error"); ok {
			found = true
			if code != "E101" {
				t.Errorf("placeholder code = %q, want E101", code)
			}
		}
	}
	if !found {
		t.Fatalf("no error placeholder on the surface: %s", s.Surface())
	}
}

func TestIntegrityErrorReplacesAffectedSubtree(t *testing.T) {
	s := NewDetached(&Config{})
	ctx := context.Background()
	s.ApplyBatch(ctx, batch(1,
		dm("a", widget.KindSwitcher, nil),
		dm("b", widget.KindText, map[string]any{"text": "ok"}),
		dm("root", widget.KindContainer, map[string]any{"children": []any{"a", "b"}}),
	))

	// a references an unknown child: fatal, blamed on the unknown identity;
	// no attached component carries that identity, so the whole surface
	// degrades. The error names the diverged identity either way.
	s.ApplyBatch(ctx, batch(2,
		dm("a", "", map[string]any{"child": "ghost"}),
	))

	var code, comp string
	for _, n := range s.Surface().Children() {
		if c, ok := n.Attr("data-strand-error"); ok {
			code = c
			comp, _ = n.Attr("data-strand-component")
		}
	}
	if code != "E101" || comp != "ghost" {
		t.Errorf("placeholder code=%q component=%q", code, comp)
	}
}

func TestKindChangeAborts(t *testing.T) {
	s := NewDetached(&Config{})
	ctx := context.Background()
	s.ApplyBatch(ctx, batch(1, dm("root", widget.KindText, map[string]any{"text": "r"})))

	s.ApplyBatch(ctx, batch(2, dm("root", widget.KindButton, nil)))

	var code string
	for _, n := range s.Surface().Children() {
		if c, ok := n.Attr("data-strand-error"); ok {
			code = c
		}
	}
	if code != "E103" {
		t.Errorf("placeholder code = %q, want E103", code)
	}
}

func TestWidgetErrorDoesNotAbortBatch(t *testing.T) {
	kinds := widget.BuiltinKinds()
	kinds.Register("failing", failingWidget{})
	s := NewDetached(&Config{Kinds: kinds})

	s.ApplyBatch(context.Background(), batch(1,
		dm("f", "failing", map[string]any{"poke": true}),
		dm("t", widget.KindText, map[string]any{"text": "after"}),
		dm("root", widget.KindContainer, map[string]any{"children": []any{"f", "t"}}),
	))

	tc, _ := s.Tree().Component("t")
	if tc == nil || tc.Node().Text != "after" {
		t.Error("batch did not continue past a widget-local failure")
	}
}

func TestBatchHookObservesStats(t *testing.T) {
	var got BatchInfo
	hook := BatchHookFunc(func(ctx context.Context, info BatchInfo) { got = info })
	s := NewDetached(&Config{Hooks: []BatchHook{hook}})

	s.ApplyBatch(context.Background(), batch(5,
		dm("a", widget.KindText, nil),
		dm("root", widget.KindContainer, map[string]any{"children": []any{"a"}}),
	))

	if got.Seq != 5 || got.DeltaCount != 2 {
		t.Errorf("info = %+v", got)
	}
	if got.Stats.Created != 2 {
		t.Errorf("created = %d, want 2", got.Stats.Created)
	}
	if got.Err != nil {
		t.Errorf("err = %v", got.Err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := NewDetached(&Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	if err := <-done; err != context.Canceled {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
	if !s.Closed() {
		t.Error("session not closed after cancel")
	}
}

func TestDispatchRunsOnEventLoop(t *testing.T) {
	s := NewDetached(&Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{})
	go s.Run(ctx)
	s.Dispatch(func() { close(ran) })
	<-ran
}

// failingWidget always rejects its deltas.
type failingWidget struct{}

func (failingWidget) CreateNode(t *widget.Tree, c *widget.Component) *dom.Node {
	return dom.New("div")
}

func (failingWidget) ApplyDelta(t *widget.Tree, c *widget.Component, delta widget.Delta) error {
	if len(delta) > 0 {
		return errors.New("refused")
	}
	return nil
}
