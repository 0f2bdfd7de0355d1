// Package protocol defines the wire format between the strand client
// runtime and the application server.
//
// Every message travels in a Frame: a 4-byte header (type, flags, big-endian
// payload length) followed by a JSON payload. Deltas are open-ended
// key/value maps, so JSON is the payload encoding; the frame layer keeps
// message typing and size limits out of band.
//
// Server to client: Hello (session setup, root identity), Deltas (an
// ordered batch of partial state updates), Error. Client to server:
// StateUpdate (a locally applied delta echoed for server consistency),
// UserEvent (widget-defined non-state events). Control frames (ping, pong,
// close) flow both ways.
package protocol
