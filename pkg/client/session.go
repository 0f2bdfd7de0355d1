package client

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	serrors "github.com/strand-ui/strand/internal/errors"
	"github.com/strand-ui/strand/pkg/dom"
	"github.com/strand-ui/strand/pkg/protocol"
	"github.com/strand-ui/strand/pkg/widget"
)

// BatchInfo describes one applied (or aborted) reconciliation batch.
type BatchInfo struct {
	Seq        uint64
	DeltaCount int
	Stats      widget.PassStats
	Duration   time.Duration
	Err        error
}

// BatchHook observes completed reconciliation batches. Hooks run on the
// event loop goroutine and must not mutate the tree.
type BatchHook interface {
	BatchApplied(ctx context.Context, info BatchInfo)
}

// BatchHookFunc adapts a function to the BatchHook interface.
type BatchHookFunc func(ctx context.Context, info BatchInfo)

// BatchApplied implements BatchHook.
func (f BatchHookFunc) BatchApplied(ctx context.Context, info BatchInfo) { f(ctx, info) }

// Session is one client connection and the component tree it mirrors.
type Session struct {
	// Identity, assigned by the server in the Hello frame.
	ID     string
	rootID string

	conn    *websocket.Conn
	writeMu sync.Mutex // Protects conn writes
	closed  atomic.Bool

	tree    *widget.Tree
	surface *dom.Node // Render surface root; the tree root attaches here.

	batches    chan *protocol.DeltaBatch
	dispatchCh chan func()
	done       chan struct{}

	config *Config
	logger *slog.Logger

	// Metrics
	batchCount atomic.Uint64
	deltaCount atomic.Uint64
	bytesSent  atomic.Uint64
	bytesRecv  atomic.Uint64
	lastSeq    atomic.Uint64
}

// Dial connects to the application server, waits for the Hello frame, and
// returns a ready session. Run must be called to start processing.
func Dial(ctx context.Context, cfg *Config) (*Session, error) {
	cfg = cfg.withDefaults()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.ServerURL, nil)
	if err != nil {
		return nil, serrors.FromError(err, "E140")
	}

	conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, serrors.FromError(err, "E140")
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		conn.Close()
		return nil, serrors.FromError(err, "E120")
	}
	if frame.Type != protocol.FrameHello {
		conn.Close()
		return nil, serrors.New("E120").WithDetail("expected Hello frame, got type %d", frame.Type)
	}
	hello, err := protocol.DecodeHello(frame.Payload)
	if err != nil {
		conn.Close()
		return nil, serrors.FromError(err, "E120")
	}

	s := newSession(conn, hello, cfg)
	s.logger.Info("session established", "root_id", hello.RootID)
	return s, nil
}

// NewDetached creates a session without a connection. Outbound sends are
// dropped with a debug log. Used by tests and tooling that drive batches
// directly through ApplyBatch.
func NewDetached(cfg *Config) *Session {
	cfg = cfg.withDefaults()
	return newSession(nil, &protocol.Hello{Version: protocol.Version, SessionID: "detached", RootID: "root"}, cfg)
}

func newSession(conn *websocket.Conn, hello *protocol.Hello, cfg *Config) *Session {
	s := &Session{
		ID:         hello.SessionID,
		rootID:     hello.RootID,
		conn:       conn,
		surface:    dom.New("body"),
		batches:    make(chan *protocol.DeltaBatch, cfg.MaxBatchQueue),
		dispatchCh: make(chan func(), cfg.MaxBatchQueue),
		done:       make(chan struct{}),
		config:     cfg,
		logger:     cfg.Logger.With("session_id", hello.SessionID),
	}

	opts := []widget.TreeOption{
		widget.WithKinds(cfg.Kinds),
		widget.WithLogger(s.logger),
		widget.WithOutbox(s),
	}
	for _, o := range cfg.Observers {
		opts = append(opts, widget.WithObserver(o))
	}
	s.tree = widget.NewTree(opts...)
	return s
}

// Tree returns the session's reconciliation context. Mutations must happen
// on the event loop; use Dispatch from other goroutines.
func (s *Session) Tree() *widget.Tree { return s.tree }

// Surface returns the render surface root node.
func (s *Session) Surface() *dom.Node { return s.surface }

// RootID returns the server-announced root identity.
func (s *Session) RootID() string { return s.rootID }

// Run starts the read loop and processes events until ctx is canceled or
// the connection closes. It blocks; the caller owns the event loop turn.
func (s *Session) Run(ctx context.Context) error {
	if s.conn != nil {
		go s.readLoop()
		go s.pingLoop()
	}
	return s.eventLoop(ctx)
}

// eventLoop is the single goroutine allowed to mutate the tree.
func (s *Session) eventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return ctx.Err()
		case <-s.done:
			return nil
		case batch := <-s.batches:
			s.ApplyBatch(ctx, batch)
		case fn := <-s.dispatchCh:
			fn()
		}
	}
}

// Dispatch queues fn onto the event loop goroutine. User-interaction
// handlers use this to mutate the tree from outside the loop.
func (s *Session) Dispatch(fn func()) {
	select {
	case s.dispatchCh <- fn:
	case <-s.done:
	}
}

// ApplyBatch applies one delta batch in order, component by component, and
// reaps orphans at the end. An integrity error aborts the remainder of the
// batch, degrades the affected subtree to an error placeholder, and reports
// to the server.
func (s *Session) ApplyBatch(ctx context.Context, batch *protocol.DeltaBatch) {
	start := time.Now()
	s.tree.ResetStats()

	info := BatchInfo{Seq: batch.Seq, DeltaCount: len(batch.Deltas)}
	func() {
		defer func() {
			if r := recover(); r != nil {
				se, ok := r.(*serrors.StrandError)
				if !ok {
					panic(r)
				}
				info.Err = se
				s.failBatch(se)
			}
		}()
		for _, dm := range batch.Deltas {
			s.applyMessage(dm)
		}
	}()

	// The reap must run even for an aborted batch: every component already
	// detached stays detached, and leaving them latent would leak renders.
	s.tree.Reap()
	if info.Err == nil {
		s.attachRoot()
	}

	s.batchCount.Add(1)
	s.deltaCount.Add(uint64(len(batch.Deltas)))
	s.lastSeq.Store(batch.Seq)

	info.Stats = s.tree.Stats()
	info.Duration = time.Since(start)
	for _, h := range s.config.Hooks {
		h.BatchApplied(ctx, info)
	}
}

// applyMessage applies a single inbound delta: creation when the identity
// is new (kind required), update otherwise.
func (s *Session) applyMessage(dm *protocol.DeltaMessage) {
	c, exists := s.tree.Component(dm.ComponentID)
	if !exists {
		if dm.Kind == "" {
			// Updating an identity that was never created: the registries
			// have diverged.
			panic(serrors.New("E101").WithComponent(dm.ComponentID).
				WithDetail("delta without kind for unknown identity"))
		}
		c = s.tree.Create(dm.ComponentID, dm.Kind, widget.Delta(dm.Fields))
		if dm.ComponentID == s.rootID {
			s.tree.PromoteRoot(dm.ComponentID)
		}
		return
	}

	if dm.Kind != "" && dm.Kind != c.Kind() {
		panic(serrors.New("E103").WithComponent(dm.ComponentID).
			WithDetail("kind %q, delta carried %q", c.Kind(), dm.Kind))
	}
	if err := s.tree.ApplyDelta(c, widget.Delta(dm.Fields)); err != nil {
		// Widget-local failure; never aborts the pass.
		s.logger.Warn("widget delta failed", "component", dm.ComponentID, "error", err)
	}
}

// attachRoot mounts the root component's outermost node onto the surface
// once it exists. Wrapper changes later splice in place, so this runs only
// when the outer node is detached.
func (s *Session) attachRoot() {
	root := s.tree.Root()
	if root == nil || root.Destroyed() {
		return
	}
	if outer := root.OuterNode(); outer.Parent() == nil {
		s.surface.AppendChild(outer)
	}
}

// failBatch degrades the affected subtree to an error placeholder and
// reports the failure to the server.
func (s *Session) failBatch(se *serrors.StrandError) {
	s.logger.Error("batch aborted", "code", se.Code, "component", se.ComponentID, "error", se)

	ph := errorPlaceholder(se)
	replaced := false
	if se.ComponentID != "" {
		if c, ok := s.tree.Component(se.ComponentID); ok {
			if outer := c.OuterNode(); outer.Parent() != nil {
				outer.ReplaceWith(ph)
				replaced = true
			}
		}
	}
	if !replaced {
		// No attached subtree to blame: degrade the whole surface rather
		// than showing a blank or corrupt tree.
		for len(s.surface.Children()) > 0 {
			s.surface.Children()[0].Remove()
		}
		s.surface.AppendChild(ph)
	}

	s.sendError(se)
}

// SendStateUpdate implements widget.Outbox. Fire-and-forget.
func (s *Session) SendStateUpdate(componentID string, delta widget.Delta) {
	frame, err := protocol.EncodeStateUpdate(&protocol.StateUpdate{
		ComponentID: componentID,
		Delta:       delta,
	})
	if err != nil {
		s.logger.Error("encode state update", "component", componentID, "error", err)
		return
	}
	s.writeFrame(frame)
}

// SendUserEvent implements widget.Outbox. Fire-and-forget.
func (s *Session) SendUserEvent(componentID string, payload map[string]any) {
	frame, err := protocol.EncodeUserEvent(&protocol.UserEvent{
		ComponentID: componentID,
		Payload:     payload,
	})
	if err != nil {
		s.logger.Error("encode user event", "component", componentID, "error", err)
		return
	}
	s.writeFrame(frame)
}

func (s *Session) sendError(se *serrors.StrandError) {
	frame, err := protocol.EncodeError(&protocol.ErrorMessage{
		Code:        se.Code,
		Message:     se.Message,
		ComponentID: se.ComponentID,
	})
	if err != nil {
		return
	}
	s.writeFrame(frame)
}

// Close shuts the session down. Safe to call more than once.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.done)
	if s.conn != nil {
		if f, err := protocol.EncodeControl(protocol.ControlClose, &protocol.CloseMessage{Reason: "client closing"}); err == nil {
			s.writeFrameRaw(f)
		}
		s.conn.Close()
	}
	s.logger.Info("session closed",
		"batches", s.batchCount.Load(),
		"deltas", s.deltaCount.Load(),
		"bytes_sent", s.bytesSent.Load(),
		"bytes_recv", s.bytesRecv.Load())
}

// Closed reports whether the session has shut down.
func (s *Session) Closed() bool { return s.closed.Load() }

// BatchCount returns the number of batches processed.
func (s *Session) BatchCount() uint64 { return s.batchCount.Load() }

// LastSeq returns the sequence number of the last applied batch.
func (s *Session) LastSeq() uint64 { return s.lastSeq.Load() }
