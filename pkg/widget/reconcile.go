package widget

import (
	"github.com/strand-ui/strand/pkg/dom"
)

// ReplaceChildren makes container's child sequence match the desired
// identity sequence with a single left-to-right merge: matching identities
// are left untouched (preserving node identity, hence focus and input
// state), mismatches are resolved by inserting the desired component's
// outermost node before the current slot, and leftover slots are removed at
// the end.
//
// ids is the complete desired sequence; nil or empty removes all children.
// "No change requested" is expressed by not calling ReplaceChildren at all
// (the children key being absent from the delta).
//
// When wrapEach is set, every inserted child is wrapped in a throwaway
// envelope node. Children may be moved across containers within one batch,
// so a current slot can be an envelope whose component was already
// reparented away by an earlier splice; such empty envelopes are discarded
// in passing.
//
// The merge is O(n) for the common cases (append, prepend, remove-one,
// swap-adjacent) and degrades gracefully for arbitrary reorders. Every
// referenced identity must exist in the registry; anything else is registry
// divergence and fatal for the pass.
func (t *Tree) ReplaceChildren(parent *Component, container *dom.Node, ids []string, wrapEach bool) {
	i := 0 // cursor over container's live child slots
	di := 0

	for di < len(ids) {
		kids := container.Children()
		if i >= len(kids) {
			break
		}
		slot := kids[i]

		if slot.IsEnvelope() && slot.FirstChild() == nil {
			// Emptied by a splice elsewhere in this pass.
			slot.Remove()
			t.stats.Removes++
			continue
		}

		if current := slotComponent(slot); current != nil && current.id == ids[di] {
			t.RegisterChild(parent, current)
			i++
			di++
			continue
		}

		// Mismatch: insert the desired component before this slot. The slot
		// itself is resolved later, either by matching further down the
		// desired list or by tail removal.
		t.insertChild(parent, container, slot, ids[di], wrapEach)
		i++ // step past the inserted slot, back onto the mismatched one
		di++
	}

	for ; di < len(ids); di++ {
		t.insertChild(parent, container, nil, ids[di], wrapEach)
		i++ // the appended slot is settled, keep it out of tail removal
	}

	for i < len(container.Children()) {
		slot := container.Children()[i]
		if current := slotComponent(slot); current != nil {
			t.Unparent(current)
		}
		slot.Remove()
		t.stats.Removes++
	}
}

// ReplaceOnlyChild is the 0-or-1-child specialization of ReplaceChildren:
// same semantics without the merge loop. An empty id removes the sole child.
func (t *Tree) ReplaceOnlyChild(parent *Component, container *dom.Node, id string, wrapEach bool) {
	var slot *dom.Node
	for _, k := range append([]*dom.Node(nil), container.Children()...) {
		if k.IsEnvelope() && k.FirstChild() == nil {
			k.Remove()
			t.stats.Removes++
			continue
		}
		slot = k
		break
	}

	if slot != nil {
		if current := slotComponent(slot); current != nil {
			if current.id == id {
				t.RegisterChild(parent, current)
				return
			}
			t.Unparent(current)
		}
		slot.Remove()
		t.stats.Removes++
	}

	if id == "" {
		return
	}
	t.insertChild(parent, container, nil, id, wrapEach)
}

// insertChild registers ownership of the identified component and attaches
// its outermost node before ref (append when ref is nil), wrapping it in a
// fresh envelope when requested. Moving a wrapped component out of another
// container leaves its old envelope empty; the merge discards those when it
// reaches them.
func (t *Tree) insertChild(parent *Component, container *dom.Node, ref *dom.Node, id string, wrapEach bool) {
	child := t.MustComponent(id)
	t.RegisterChild(parent, child)

	n := child.OuterNode()
	if wrapEach {
		if env := n.Parent(); env != nil && env.IsEnvelope() && env.Parent() == container {
			// Intra-container move: carry the existing envelope along so a
			// reorder creates no nodes. A move from another container leaves
			// its envelope behind; the merge discards it there.
			n = env
		} else {
			env := dom.NewEnvelope()
			env.AppendChild(n)
			n = env
		}
	}
	container.InsertBefore(n, ref)
	t.stats.Inserts++
}
