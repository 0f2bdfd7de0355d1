package devserver

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strand-ui/strand/pkg/protocol"
)

// Conn is one connected client. The application handler pushes delta
// batches through it and consumes inbound state updates and user events
// from its channels.
type Conn struct {
	server  *Server
	ws      *websocket.Conn
	id      uint64
	logger  *slog.Logger
	writeMu sync.Mutex
	closed  atomic.Bool

	nextSeq atomic.Uint64

	events  chan *protocol.UserEvent
	updates chan *protocol.StateUpdate
	done    chan struct{}
}

func newConn(s *Server, ws *websocket.Conn, id uint64) *Conn {
	return &Conn{
		server:  s,
		ws:      ws,
		id:      id,
		logger:  s.logger.With("session_id", fmt.Sprintf("dev-%d", id)),
		events:  make(chan *protocol.UserEvent, 64),
		updates: make(chan *protocol.StateUpdate, 64),
		done:    make(chan struct{}),
	}
}

// ID returns the session identity announced to the client.
func (c *Conn) ID() string { return fmt.Sprintf("dev-%d", c.id) }

// Events returns the inbound user event channel. Closed when the
// connection ends.
func (c *Conn) Events() <-chan *protocol.UserEvent { return c.events }

// StateUpdates returns the inbound state update channel. Closed when the
// connection ends.
func (c *Conn) StateUpdates() <-chan *protocol.StateUpdate { return c.updates }

// Done is closed when the connection ends.
func (c *Conn) Done() <-chan struct{} { return c.done }

// SendBatch pushes one delta batch to the client. Sequence numbers are
// assigned here, in send order.
func (c *Conn) SendBatch(deltas ...*protocol.DeltaMessage) error {
	batch := &protocol.DeltaBatch{
		Seq:    c.nextSeq.Add(1),
		Deltas: deltas,
	}
	frame, err := protocol.EncodeDeltaBatch(batch)
	if err != nil {
		return err
	}
	return c.writeFrame(frame)
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	close(c.done)
	if f, err := protocol.EncodeControl(protocol.ControlClose, &protocol.CloseMessage{Reason: "server closing"}); err == nil {
		c.writeFrameLocked(f)
	}
	c.ws.Close()
}

func (c *Conn) sendHello() error {
	frame, err := protocol.EncodeHello(&protocol.Hello{
		Version:   protocol.Version,
		SessionID: c.ID(),
		RootID:    c.server.config.RootID,
	})
	if err != nil {
		return err
	}
	return c.writeFrame(frame)
}

func (c *Conn) writeFrame(f *protocol.Frame) error {
	if c.closed.Load() {
		return fmt.Errorf("devserver: connection closed")
	}
	return c.writeFrameLocked(f)
}

func (c *Conn) writeFrameLocked(f *protocol.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout))
	return c.ws.WriteMessage(websocket.BinaryMessage, f.Encode())
}

// readLoop reads frames until the connection drops, forwarding state
// updates and user events to the handler's channels.
func (c *Conn) readLoop() {
	defer func() {
		c.Close()
		close(c.events)
		close(c.updates)
	}()

	for {
		c.ws.SetReadDeadline(time.Now().Add(c.server.config.ReadTimeout))
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Error("read error", "error", err)
			}
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			c.logger.Error("frame decode error", "error", err)
			continue
		}

		switch frame.Type {
		case protocol.FrameStateUpdate:
			up, err := protocol.DecodeStateUpdate(frame.Payload)
			if err != nil {
				c.logger.Error("state update decode error", "error", err)
				continue
			}
			select {
			case c.updates <- up:
			case <-c.done:
				return
			}

		case protocol.FrameUserEvent:
			ev, err := protocol.DecodeUserEvent(frame.Payload)
			if err != nil {
				c.logger.Error("user event decode error", "error", err)
				continue
			}
			select {
			case c.events <- ev:
			case <-c.done:
				return
			}

		case protocol.FrameControl:
			c.handleControl(frame.Payload)

		case protocol.FrameError:
			if em, err := protocol.DecodeError(frame.Payload); err == nil {
				c.logger.Error("client reported error",
					"code", em.Code, "component", em.ComponentID, "message", em.Message)
			}

		default:
			c.logger.Warn("unexpected frame type", "type", frame.Type)
		}
	}
}

func (c *Conn) handleControl(payload []byte) {
	ct, data, err := protocol.DecodeControl(payload)
	if err != nil {
		c.logger.Error("control decode error", "error", err)
		return
	}
	switch ct {
	case protocol.ControlPing:
		if pp, ok := data.(*protocol.PingPong); ok {
			if f, err := protocol.EncodeControl(protocol.ControlPong, pp); err == nil {
				c.writeFrame(f)
			}
		}
	case protocol.ControlPong:
		c.logger.Debug("received pong")
	case protocol.ControlClose:
		c.Close()
	}
}
