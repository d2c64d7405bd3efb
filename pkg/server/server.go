package server

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/ladderpulse/pkg/loader"
	"github.com/vango-dev/ladderpulse/pkg/middleware"
	"github.com/vango-dev/ladderpulse/pkg/nav"
	"github.com/vango-dev/ladderpulse/pkg/view"
)

// Server is the HTTP/WebSocket server hosting navigation sessions.
type Server struct {
	sessions *SessionManager
	config   *ServerConfig
	upgrader websocket.Upgrader
	router   chi.Router

	// metricsOpts is non-nil when metrics are enabled.
	metricsOpts []middleware.MetricsOption

	// HTTP server, set by Run.
	httpServer *http.Server

	logger *slog.Logger
}

// New creates a new Server with the given configuration. A nil config uses
// DefaultServerConfig.
func New(config *ServerConfig) *Server {
	config = config.withDefaults()
	logger := slog.Default().With("component", "server")

	if len(config.Layout) > 0 {
		if _, err := view.ParseLayout(bytes.NewReader(config.Layout)); err != nil {
			logger.Error("default layout is invalid", "error", err)
		}
	}

	s := &Server{
		sessions: NewSessionManager(logger),
		config:   config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.checkOrigin,
		},
		logger: logger,
	}
	if config.EnableMetrics {
		s.metricsOpts = []middleware.MetricsOption{middleware.WithNamespace(config.MetricsNamespace)}
		if config.Registry != nil {
			s.metricsOpts = append(s.metricsOpts, middleware.WithRegistry(config.Registry))
		}
		// Register the collectors before the first scrape.
		middleware.Observer(s.metricsOpts...)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/", s.serveShell)
	r.Get("/client.js", s.serveClient)
	r.Get("/healthz", s.serveHealth)
	if s.config.EnableMetrics {
		if s.config.Registry != nil {
			r.Handle("/metrics", promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
		} else {
			r.Handle("/metrics", promhttp.Handler())
		}
	}
	r.Get("/ws", s.HandleWebSocket)
	return r
}

// Handler returns the server's http.Handler for mounting in other routers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Run listens on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down", "sessions", s.sessions.Count())
	s.sessions.CloseAll()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// =============================================================================
// HTTP handlers
// =============================================================================

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	created, closed := s.sessions.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
		"created":  created,
		"closed":   closed,
	})
}

// HandleWebSocket upgrades the connection, waits for the hello and runs the
// session until the client goes away.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		middleware.RecordWebSocketError("upgrade")
		return
	}

	sc := s.config.SessionConfig
	conn.SetReadLimit(sc.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(sc.HandshakeTimeout))

	var hello ClientMessage
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != MsgHello {
		s.logger.Warn("handshake failed", "error", err, "type", hello.Type)
		middleware.RecordWebSocketError("handshake")
		s.reject(conn, "expected hello")
		return
	}

	tree, err := s.buildTree(hello.Layout)
	if err != nil {
		s.logger.Warn("invalid layout", "error", err)
		s.reject(conn, err.Error())
		return
	}
	tree.SetLocation(hello.URL)

	id := hello.Session
	if !validSessionID(id) {
		id = newSessionID()
	}

	session := newSession(id, conn, tree, sc, s.logger)
	session.engine = nav.New(tree, s.engineOptions(session)...)
	s.sessions.Add(session)

	s.logger.Info("session started", "session_id", id, "url", hello.URL)
	session.run()
}

func (s *Server) reject(conn *websocket.Conn, reason string) {
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	conn.WriteJSON(ServerMessage{Type: MsgError, Error: reason})
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second),
	)
	conn.Close()
}

// buildTree parses the client's layout, or the default one when the hello
// carries none.
func (s *Server) buildTree(layout json.RawMessage) (*view.Tree, error) {
	src := []byte(layout)
	if len(bytes.TrimSpace(src)) == 0 || string(src) == "null" {
		src = s.config.Layout
	}
	if len(src) == 0 {
		return nil, errors.New("no layout")
	}
	root, err := view.ParseLayout(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	return view.NewTree(root)
}

func (s *Server) engineOptions(session *Session) []nav.Option {
	c := s.config
	opts := []nav.Option{
		nav.WithLogger(session.logger.With("component", "nav")),
		nav.WithSettleTimeout(c.SettleTimeout),
		nav.WithDefaultTitle(c.DefaultTitle),
		nav.WithDefaultDescription(c.DefaultDescription),
	}

	if c.APIBaseURL != "" {
		opts = append(opts, nav.WithLoader(loader.New(c.APIBaseURL,
			loader.WithTimeout(c.APITimeout),
			loader.WithSink(session),
			loader.WithLogger(session.logger.With("component", "loader")),
		)))
	}

	if c.SectionStore != nil {
		if store := c.SectionStore(session.ID); store != nil {
			opts = append(opts, nav.WithSectionStore(store))
		}
	}

	var mws []nav.Middleware
	if c.EnableTracing {
		mws = append(mws, middleware.OpenTelemetry())
	}
	if s.metricsOpts != nil {
		mws = append(mws, middleware.Prometheus(s.metricsOpts...))
		opts = append(opts, nav.WithObserver(middleware.Observer(s.metricsOpts...)))
	}
	if len(mws) > 0 {
		opts = append(opts, nav.WithMiddleware(mws...))
	}
	return opts
}

func newSessionID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

func validSessionID(id string) bool {
	if len(id) != 32 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
