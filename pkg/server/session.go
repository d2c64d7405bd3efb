package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/ladderpulse/pkg/loader"
	"github.com/vango-dev/ladderpulse/pkg/middleware"
	"github.com/vango-dev/ladderpulse/pkg/nav"
	"github.com/vango-dev/ladderpulse/pkg/navstate"
	"github.com/vango-dev/ladderpulse/pkg/view"
)

// ErrSessionClosed is returned when acting on a closed session.
var ErrSessionClosed = errors.New("server: session closed")

// action is a user interaction run on the session's action loop.
type action func(ctx context.Context) error

// Session is one connected browser tab.
type Session struct {
	ID string

	conn   *websocket.Conn
	config *SessionConfig
	tree   *view.Tree
	engine *nav.Engine

	send    chan ServerMessage
	actions chan action

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool

	createdAt  time.Time
	lastActive atomic.Int64

	onClose func(*Session)
	logger  *slog.Logger
}

var (
	_ view.Driver = (*Session)(nil)
	_ loader.Sink = (*Session)(nil)
)

func newSession(id string, conn *websocket.Conn, tree *view.Tree, config *SessionConfig, logger *slog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        id,
		conn:      conn,
		config:    config,
		tree:      tree,
		send:      make(chan ServerMessage, config.MaxSendQueue),
		actions:   make(chan action, config.MaxActionQueue),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		createdAt: time.Now(),
		logger:    logger.With("session_id", id),
	}
	s.touch()
	tree.SetDriver(s)
	return s
}

// Engine returns the session's navigation engine.
func (s *Session) Engine() *nav.Engine { return s.engine }

// Tree returns the layout mirror.
func (s *Session) Tree() *view.Tree { return s.tree }

// LastActive returns when the client last sent a message.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// Send implements view.Driver.
func (s *Session) Send(cmd view.Command) {
	s.enqueue(ServerMessage{Type: MsgCommand, Command: &cmd})
}

// Deliver implements loader.Sink.
func (s *Session) Deliver(_ context.Context, r loader.Result) {
	s.enqueue(ServerMessage{
		Type:     MsgData,
		Resource: r.Resource,
		Query:    r.Query,
		Data:     r.Body,
	})
}

func (s *Session) sendError(err error) {
	s.enqueue(ServerMessage{Type: MsgError, Error: err.Error()})
}

// enqueue never blocks: the tree calls it while the engine waits on the
// client, so a stalled client is disconnected instead.
func (s *Session) enqueue(msg ServerMessage) {
	if s.closed.Load() {
		return
	}
	select {
	case s.send <- msg:
	case <-s.done:
	default:
		s.logger.Warn("send queue full, closing session")
		middleware.RecordWebSocketError("send_overflow")
		go s.Close()
	}
}

// run starts the session loops and blocks until the connection ends.
func (s *Session) run() {
	go s.WriteLoop()
	go s.ActionLoop()

	s.enqueue(ServerMessage{Type: MsgWelcome, Session: s.ID})
	s.watch(s.engine.Start(s.ctx))

	s.ReadLoop()
}

// =============================================================================
// Loops
// =============================================================================

// ReadLoop continuously reads messages from the WebSocket connection.
// This method blocks until the connection is closed or an error occurs.
func (s *Session) ReadLoop() {
	defer s.Close()

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				middleware.RecordWebSocketError("read")
			}
			return
		}
		s.touch()

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("message decode error", "error", err)
			middleware.RecordWebSocketError("decode")
			s.sendError(errors.New("invalid message"))
			continue
		}
		s.handleMessage(msg)
	}
}

// WriteLoop sends queued messages and heartbeat pings.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Error("write error", "error", err)
				middleware.RecordWebSocketError("write")
				s.Close()
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug("ping error", "error", err)
				s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

// ActionLoop runs user actions one at a time. Actions wait on transition
// events, so they cannot run on the read loop that delivers them.
func (s *Session) ActionLoop() {
	for {
		select {
		case fn := <-s.actions:
			if err := fn(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("action failed", "error", err)
				s.sendError(err)
			}
		case <-s.done:
			return
		}
	}
}

// =============================================================================
// Message handling
// =============================================================================

func (s *Session) handleMessage(msg ClientMessage) {
	switch msg.Type {
	case MsgEvent:
		if msg.Event == nil {
			s.sendError(errors.New("event message without event"))
			return
		}
		if err := s.tree.Apply(*msg.Event); err != nil {
			s.sendError(err)
		}

	case MsgPopState:
		s.watch(s.engine.PopState(s.ctx, msg.URL))

	case MsgNavigate:
		st, err := navstate.Parse(msg.URL)
		if err != nil {
			s.sendError(err)
			return
		}
		s.watch(s.engine.Navigate(s.ctx, st))

	case MsgSelectTab:
		id := msg.ID
		s.queueAction(func(ctx context.Context) error {
			return s.engine.SelectTab(ctx, id)
		})

	case MsgShowModal:
		id := msg.ID
		s.queueAction(func(ctx context.Context) error {
			return s.engine.ShowModal(ctx, id)
		})

	case MsgHideModal:
		s.queueAction(s.engine.HideModal)

	default:
		s.logger.Warn("unknown message type", "type", msg.Type)
		s.sendError(errors.New("unknown message type " + msg.Type))
	}
}

func (s *Session) queueAction(fn action) {
	select {
	case s.actions <- fn:
	case <-s.done:
	default:
		s.sendError(errors.New("too many pending actions"))
	}
}

// watch logs the outcome of a scheduled restoration. Failures already
// reached the browser through the view.
func (s *Session) watch(result <-chan error) {
	go func() {
		select {
		case err := <-result:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Debug("restoration finished with error", "error", err)
			}
		case <-s.done:
		}
	}()
}

// Close gracefully closes the session.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}

	s.cancel()
	close(s.done)

	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	s.conn.Close()

	s.logger.Info("session closed", "duration", time.Since(s.createdAt))
	if s.onClose != nil {
		s.onClose(s)
	}
}
