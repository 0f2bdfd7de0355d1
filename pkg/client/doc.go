// Package client runs the strand client session: the WebSocket connection
// to the application server, the single event-processing loop that owns the
// component tree, and the outbound notification path.
//
// All reconciliation is single-threaded and cooperative. The read loop only
// decodes frames and queues work; every tree mutation happens on the event
// loop goroutine, one batch per turn, so a renderer never observes a
// half-updated tree. The reap pass runs after each whole batch, which is
// what lets a component move between parents within one batch without being
// destroyed.
//
// Integrity errors (registry divergence, ownership violations) abort the
// current batch, surface an error placeholder node in place of the affected
// subtree, and report back to the server; they never crash the client.
package client
