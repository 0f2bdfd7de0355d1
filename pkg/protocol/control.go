package protocol

import (
	"encoding/json"
	"fmt"
)

// ControlType identifies the type of control message.
type ControlType uint8

const (
	ControlPing  ControlType = 0x01 // Client/server ping
	ControlPong  ControlType = 0x02 // Response to ping
	ControlClose ControlType = 0x10 // Session close
)

// String returns the string representation of the control type.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	case ControlClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// PingPong is the payload for Ping and Pong messages.
type PingPong struct {
	Timestamp uint64 `json:"ts"` // Unix timestamp in milliseconds
}

// CloseMessage announces session close.
type CloseMessage struct {
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

type controlEnvelope struct {
	Type ControlType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EncodeControl encodes a control message frame. data must be *PingPong for
// ping/pong and *CloseMessage for close.
func EncodeControl(ct ControlType, data any) (*Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return encodeJSON(FrameControl, &controlEnvelope{Type: ct, Data: raw})
}

// DecodeControl decodes a control payload, returning the control type and
// its typed data.
func DecodeControl(payload []byte) (ControlType, any, error) {
	var env controlEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return 0, nil, err
	}
	switch env.Type {
	case ControlPing, ControlPong:
		var pp PingPong
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &pp); err != nil {
				return env.Type, nil, err
			}
		}
		return env.Type, &pp, nil
	case ControlClose:
		var cm CloseMessage
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &cm); err != nil {
				return env.Type, nil, err
			}
		}
		return env.Type, &cm, nil
	default:
		return env.Type, nil, fmt.Errorf("protocol: unknown control type %d", env.Type)
	}
}
