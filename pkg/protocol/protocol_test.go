package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	f := NewFrame(FrameDeltas, []byte(`{"seq":1}`))
	f.Flags = FlagFinal

	decoded, err := DecodeFrame(f.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Type != FrameDeltas {
		t.Errorf("Type = %v", decoded.Type)
	}
	if !decoded.Flags.Has(FlagFinal) {
		t.Error("FlagFinal lost")
	}
	if string(decoded.Payload) != `{"seq":1}` {
		t.Errorf("Payload = %s", decoded.Payload)
	}
}

func TestDecodeFrameTruncated(t *testing.T) {
	if _, err := DecodeFrame([]byte{0x01}); err != io.ErrUnexpectedEOF {
		t.Errorf("short header err = %v", err)
	}
	// Header promising more payload than present.
	if _, err := DecodeFrame([]byte{0x01, 0x00, 0x00, 0x05, 'x'}); err != io.ErrUnexpectedEOF {
		t.Errorf("short payload err = %v", err)
	}
}

func TestDecodeFrameInvalidType(t *testing.T) {
	if _, err := DecodeFrame([]byte{0x7F, 0x00, 0x00, 0x00}); !errors.Is(err, ErrInvalidFrameType) {
		t.Errorf("err = %v, want ErrInvalidFrameType", err)
	}
}

func TestReadWriteFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	f := NewFrame(FrameUserEvent, []byte(`{"componentId":"c1"}`))
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != FrameUserEvent || string(got.Payload) != string(f.Payload) {
		t.Errorf("round trip mismatch: %v %s", got.Type, got.Payload)
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	f := NewFrame(FrameDeltas, make([]byte, MaxPayloadSize+1))
	if err := WriteFrame(io.Discard, f); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestDeltaMessageWireShape(t *testing.T) {
	m := &DeltaMessage{
		ComponentID: "c3",
		Kind:        "text",
		Fields:      map[string]any{"text": "hi"},
	}
	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}

	var decoded DeltaMessage
	if err := decoded.UnmarshalJSON(data); err != nil {
		t.Fatal(err)
	}
	if decoded.ComponentID != "c3" || decoded.Kind != "text" {
		t.Errorf("identity = %q kind = %q", decoded.ComponentID, decoded.Kind)
	}
	if decoded.Fields["text"] != "hi" {
		t.Errorf("Fields = %v", decoded.Fields)
	}
	if _, ok := decoded.Fields["componentId"]; ok {
		t.Error("componentId leaked into the open field map")
	}
	if _, ok := decoded.Fields["kind"]; ok {
		t.Error("kind leaked into the open field map")
	}
}

func TestDeltaMessageMissingIdentity(t *testing.T) {
	var m DeltaMessage
	if err := m.UnmarshalJSON([]byte(`{"text":"x"}`)); !errors.Is(err, ErrMissingComponentID) {
		t.Errorf("err = %v, want ErrMissingComponentID", err)
	}
}

func TestDeltaBatchRoundTrip(t *testing.T) {
	b := &DeltaBatch{
		Seq: 7,
		Deltas: []*DeltaMessage{
			{ComponentID: "root", Kind: "container", Fields: map[string]any{"children": []any{"a"}}},
			{ComponentID: "a", Kind: "text", Fields: map[string]any{"text": "one"}},
		},
	}
	f, err := EncodeDeltaBatch(b)
	if err != nil {
		t.Fatal(err)
	}
	if f.Type != FrameDeltas {
		t.Errorf("frame type = %v", f.Type)
	}

	got, err := DecodeDeltaBatch(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if got.Seq != 7 || len(got.Deltas) != 2 {
		t.Fatalf("batch = %+v", got)
	}
	if got.Deltas[0].ComponentID != "root" || got.Deltas[1].Fields["text"] != "one" {
		t.Errorf("deltas = %+v %+v", got.Deltas[0], got.Deltas[1])
	}
}

func TestHelloVersionCheck(t *testing.T) {
	f, err := EncodeHello(&Hello{Version: Version, SessionID: "s1", RootID: "root"})
	if err != nil {
		t.Fatal(err)
	}
	h, err := DecodeHello(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if h.RootID != "root" {
		t.Errorf("RootID = %q", h.RootID)
	}

	bad, _ := EncodeHello(&Hello{Version: Version + 1})
	if _, err := DecodeHello(bad.Payload); !errors.Is(err, ErrVersionMismatch) {
		t.Errorf("err = %v, want ErrVersionMismatch", err)
	}
}

func TestStateUpdateRoundTrip(t *testing.T) {
	f, err := EncodeStateUpdate(&StateUpdate{ComponentID: "c1", Delta: map[string]any{"text": "x"}})
	if err != nil {
		t.Fatal(err)
	}
	u, err := DecodeStateUpdate(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if u.ComponentID != "c1" || u.Delta["text"] != "x" {
		t.Errorf("update = %+v", u)
	}

	if _, err := DecodeStateUpdate([]byte(`{"delta":{}}`)); !errors.Is(err, ErrMissingComponentID) {
		t.Errorf("err = %v, want ErrMissingComponentID", err)
	}
}

func TestUserEventRoundTrip(t *testing.T) {
	f, err := EncodeUserEvent(&UserEvent{ComponentID: "b", Payload: map[string]any{"event": "press"}})
	if err != nil {
		t.Fatal(err)
	}
	e, err := DecodeUserEvent(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if e.ComponentID != "b" || e.Payload["event"] != "press" {
		t.Errorf("event = %+v", e)
	}
}

func TestControlPingPong(t *testing.T) {
	f, err := EncodeControl(ControlPing, &PingPong{Timestamp: 12345})
	if err != nil {
		t.Fatal(err)
	}
	ct, data, err := DecodeControl(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if ct != ControlPing {
		t.Errorf("type = %v", ct)
	}
	pp, ok := data.(*PingPong)
	if !ok || pp.Timestamp != 12345 {
		t.Errorf("data = %#v", data)
	}
}

func TestControlClose(t *testing.T) {
	f, err := EncodeControl(ControlClose, &CloseMessage{Reason: "shutdown"})
	if err != nil {
		t.Fatal(err)
	}
	ct, data, err := DecodeControl(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if ct != ControlClose {
		t.Errorf("type = %v", ct)
	}
	if cm, ok := data.(*CloseMessage); !ok || cm.Reason != "shutdown" {
		t.Errorf("data = %#v", data)
	}
}

func TestControlUnknownType(t *testing.T) {
	if _, _, err := DecodeControl([]byte(`{"type":99}`)); err == nil {
		t.Error("expected error for unknown control type")
	}
}

func TestErrorMessageRoundTrip(t *testing.T) {
	f, err := EncodeError(&ErrorMessage{Code: "E101", Message: "unknown identity", ComponentID: "ghost"})
	if err != nil {
		t.Fatal(err)
	}
	e, err := DecodeError(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if e.Code != "E101" || e.ComponentID != "ghost" {
		t.Errorf("error = %+v", e)
	}
}
