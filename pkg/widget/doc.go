// Package widget implements the strand tree reconciliation and ownership
// engine.
//
// The application server owns the authoritative component tree and pushes
// partial state updates (deltas). This package keeps a client-side render
// tree synchronized with that authority, reusing render nodes wherever an
// identity survives so focus, scroll position, and in-flight transitions are
// preserved.
//
// # Core Types
//
// Component wraps one render node together with its server-assigned identity,
// open state map, parent reference, and child set. Tree is the explicit
// reconciliation context: the identity registry, the orphan set, observers,
// and the outbound path. Widget is the per-kind capability interface; kinds
// form a closed registry (KindSet).
//
// # Ownership
//
// A component has at most one parent. Detaching moves it into the Tree's
// orphan set rather than destroying it, so a component can be moved between
// parents within one batch. Reap, called after a whole batch has been
// processed, destroys whatever is still orphaned.
//
// # Structural wrappers
//
// Margin, alignment, and scrolling are implemented as invisible decorator
// nodes created lazily around a component's primary node and torn down when
// the corresponding state returns to its default. Consumers must attach and
// detach components through OuterNode, never the primary node.
//
// # Integrity errors
//
// Duplicate identities, unknown identities, and unparenting a detached
// component indicate client/server divergence. These panic with a structured
// error; the session layer recovers at the batch boundary and degrades to an
// error placeholder node.
package widget
