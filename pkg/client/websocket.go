package client

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/strand-ui/strand/pkg/protocol"
)

// readLoop continuously reads frames from the connection, queueing delta
// batches for the event loop and answering control frames in place. It
// never touches the tree.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.bytesRecv.Add(uint64(len(msg)))

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			continue
		}

		switch frame.Type {
		case protocol.FrameDeltas:
			s.handleDeltasFrame(frame.Payload)

		case protocol.FrameControl:
			s.handleControlFrame(frame.Payload)

		case protocol.FrameError:
			if em, err := protocol.DecodeError(frame.Payload); err == nil {
				s.logger.Error("server error", "code", em.Code, "message", em.Message)
			}

		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type)
		}
	}
}

// handleDeltasFrame decodes a batch and queues it. Server deltas must be
// applied in receive order; the single queue preserves it.
func (s *Session) handleDeltasFrame(payload []byte) {
	batch, err := protocol.DecodeDeltaBatch(payload)
	if err != nil {
		s.logger.Error("delta batch decode error", "error", err)
		return
	}
	select {
	case s.batches <- batch:
	case <-s.done:
	default:
		// The server outran us past the queue bound; dropping a batch would
		// desynchronize the tree, so drop the connection instead.
		s.logger.Error("batch queue full, closing", "seq", batch.Seq)
		s.Close()
	}
}

// handleControlFrame handles ping, pong, and close.
func (s *Session) handleControlFrame(payload []byte) {
	ct, data, err := protocol.DecodeControl(payload)
	if err != nil {
		s.logger.Error("control decode error", "error", err)
		return
	}

	switch ct {
	case protocol.ControlPing:
		if pp, ok := data.(*protocol.PingPong); ok {
			if f, err := protocol.EncodeControl(protocol.ControlPong, pp); err == nil {
				s.writeFrame(f)
			}
		}

	case protocol.ControlPong:
		s.logger.Debug("received pong")

	case protocol.ControlClose:
		if cm, ok := data.(*protocol.CloseMessage); ok {
			s.logger.Info("server closing", "reason", cm.Reason, "message", cm.Message)
		}
		s.Close()
	}
}

// pingLoop keeps the connection alive.
func (s *Session) pingLoop() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			pp := &protocol.PingPong{Timestamp: uint64(time.Now().UnixMilli())}
			if f, err := protocol.EncodeControl(protocol.ControlPing, pp); err == nil {
				s.writeFrame(f)
			}
		}
	}
}

// writeFrame writes one frame to the connection. Detached sessions drop the
// frame with a debug log.
func (s *Session) writeFrame(f *protocol.Frame) {
	if s.conn == nil {
		s.logger.Debug("detached session, dropping frame", "type", f.Type)
		return
	}
	if s.closed.Load() {
		return
	}
	s.writeFrameRaw(f)
}

// writeFrameRaw writes even on a closing session, for the final close
// control frame.
func (s *Session) writeFrameRaw(f *protocol.Frame) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data := f.Encode()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		s.logger.Error("write error", "type", f.Type, "error", err)
		return
	}
	s.bytesSent.Add(uint64(len(data)))
}
