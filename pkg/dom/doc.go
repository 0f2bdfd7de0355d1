// Package dom provides the in-memory render-node tree mutated by the
// strand reconciler.
//
// The runtime does not talk to a browser directly; it maintains a Node tree
// that stands in for the render surface. A renderer collaborator walks this
// tree (or observes its mutations) to paint. Nodes follow DOM semantics:
// attaching a node that already has a parent detaches it first, and order
// lives in the parent's child slice.
//
// Envelope nodes are throwaway wrappers the reconciler may place around each
// child of a container. They are marked with the AttrEnvelope attribute so
// sibling walks can tell them apart from component nodes.
package dom
