package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the protocol version carried in the Hello message.
const Version = 1

var (
	ErrMissingComponentID = errors.New("protocol: delta missing component identity")
	ErrVersionMismatch    = errors.New("protocol: version mismatch")
)

// Hello is the first frame on a connection, server to client.
type Hello struct {
	Version   int    `json:"version"`
	SessionID string `json:"sessionId"`
	// RootID is the identity of the tree root. The first Deltas frame
	// creates it.
	RootID string `json:"rootId"`
}

// DeltaMessage is one inbound partial state update:
// { componentId, kind? (only on creation), ...changedFields }.
// Fields absent from Fields are unchanged, never "reset to default".
type DeltaMessage struct {
	ComponentID string
	// Kind is set only on the first message for a new identity and is
	// immutable afterwards.
	Kind string
	// Fields holds the changed fields.
	Fields map[string]any
}

// reservedDeltaKeys are lifted out of the open field map on decode.
const (
	keyComponentID = "componentId"
	keyKind        = "kind"
)

// MarshalJSON flattens the message into the wire shape.
func (m *DeltaMessage) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(m.Fields)+2)
	for k, v := range m.Fields {
		flat[k] = v
	}
	flat[keyComponentID] = m.ComponentID
	if m.Kind != "" {
		flat[keyKind] = m.Kind
	}
	return json.Marshal(flat)
}

// UnmarshalJSON lifts the identity and kind out of the flat wire shape.
func (m *DeltaMessage) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	id, _ := flat[keyComponentID].(string)
	if id == "" {
		return ErrMissingComponentID
	}
	m.ComponentID = id
	delete(flat, keyComponentID)
	if kind, ok := flat[keyKind].(string); ok {
		m.Kind = kind
		delete(flat, keyKind)
	}
	m.Fields = flat
	return nil
}

// DeltaBatch is the payload of a Deltas frame: updates applied in order,
// component by component, with the reap pass running only after the whole
// batch.
type DeltaBatch struct {
	Seq    uint64          `json:"seq"`
	Deltas []*DeltaMessage `json:"deltas"`
}

// StateUpdate is the outbound echo of a locally applied delta:
// { componentId, delta }. Fire-and-forget.
type StateUpdate struct {
	ComponentID string         `json:"componentId"`
	Delta       map[string]any `json:"delta"`
}

// UserEvent is an outbound widget-defined event that is not a state change:
// { componentId, payload }.
type UserEvent struct {
	ComponentID string         `json:"componentId"`
	Payload     map[string]any `json:"payload"`
}

// ErrorMessage reports a client- or server-side failure over the wire.
type ErrorMessage struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	ComponentID string `json:"componentId,omitempty"`
}

// EncodeHello encodes a Hello frame.
func EncodeHello(h *Hello) (*Frame, error) { return encodeJSON(FrameHello, h) }

// DecodeHello decodes a Hello payload and checks the protocol version.
func DecodeHello(payload []byte) (*Hello, error) {
	var h Hello
	if err := json.Unmarshal(payload, &h); err != nil {
		return nil, err
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, h.Version, Version)
	}
	return &h, nil
}

// EncodeDeltaBatch encodes a Deltas frame.
func EncodeDeltaBatch(b *DeltaBatch) (*Frame, error) { return encodeJSON(FrameDeltas, b) }

// DecodeDeltaBatch decodes a Deltas payload.
func DecodeDeltaBatch(payload []byte) (*DeltaBatch, error) {
	var b DeltaBatch
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// EncodeStateUpdate encodes a StateUpdate frame.
func EncodeStateUpdate(u *StateUpdate) (*Frame, error) { return encodeJSON(FrameStateUpdate, u) }

// DecodeStateUpdate decodes a StateUpdate payload.
func DecodeStateUpdate(payload []byte) (*StateUpdate, error) {
	var u StateUpdate
	if err := json.Unmarshal(payload, &u); err != nil {
		return nil, err
	}
	if u.ComponentID == "" {
		return nil, ErrMissingComponentID
	}
	return &u, nil
}

// EncodeUserEvent encodes a UserEvent frame.
func EncodeUserEvent(e *UserEvent) (*Frame, error) { return encodeJSON(FrameUserEvent, e) }

// DecodeUserEvent decodes a UserEvent payload.
func DecodeUserEvent(payload []byte) (*UserEvent, error) {
	var e UserEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, err
	}
	if e.ComponentID == "" {
		return nil, ErrMissingComponentID
	}
	return &e, nil
}

// EncodeError encodes an Error frame.
func EncodeError(e *ErrorMessage) (*Frame, error) { return encodeJSON(FrameError, e) }

// DecodeError decodes an Error payload.
func DecodeError(payload []byte) (*ErrorMessage, error) {
	var e ErrorMessage
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func encodeJSON(ft FrameType, v any) (*Frame, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(payload) > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	return NewFrame(ft, payload), nil
}
