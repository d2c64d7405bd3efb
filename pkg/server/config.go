package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/ladderpulse/pkg/nav"
)

// SessionConfig holds configuration for individual sessions.
type SessionConfig struct {
	// ReadTimeout is the maximum time to wait for a message from the client.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HandshakeTimeout is the maximum time to wait for the hello message.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// HeartbeatInterval is the time between heartbeat pings. It must be
	// shorter than ReadTimeout.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the maximum size of an incoming WebSocket message.
	// Layout snapshots travel in the hello, so this is generous.
	// Default: 256KB.
	MaxMessageSize int64

	// MaxSendQueue is the size of the outgoing message buffer. A client that
	// falls this far behind is disconnected.
	// Default: 256.
	MaxSendQueue int

	// MaxActionQueue is the number of user actions that may wait behind the
	// one in progress.
	// Default: 16.
	MaxActionQueue int
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    256 * 1024,
		MaxSendQueue:      256,
		MaxActionQueue:    16,
	}
}

// SectionStoreFunc returns the section store of a session. Returning nil
// uses an in-memory store.
type SectionStoreFunc func(sessionID string) nav.SectionStore

// ServerConfig holds configuration for the server.
type ServerConfig struct {
	// Address is the listen address.
	// Default: ":8080".
	Address string

	// Layout is the YAML page layout used when a client's hello carries
	// none.
	Layout []byte

	// APIBaseURL is the root of the data API. Empty disables data loads.
	APIBaseURL string

	// APITimeout is the per-request timeout of data loads.
	// Default: 30 seconds.
	APITimeout time.Duration

	// SettleTimeout bounds every wait for a browser transition.
	// Default: nav.DefaultSettleTimeout.
	SettleTimeout time.Duration

	// DefaultTitle and DefaultDescription are used when no generator
	// matches the anchor.
	DefaultTitle       string
	DefaultDescription string

	// SectionStore provides per-session section caches.
	SectionStore SectionStoreFunc

	// EnableMetrics adds the Prometheus middleware to every engine and
	// serves /metrics.
	EnableMetrics bool

	// MetricsNamespace is the Prometheus namespace.
	// Default: "ladderpulse".
	MetricsNamespace string

	// Registry is where metrics are registered and gathered from.
	// Default: prometheus.DefaultRegisterer / DefaultGatherer.
	Registry *prometheus.Registry

	// EnableTracing adds the OpenTelemetry middleware to every engine.
	EnableTracing bool

	// AllowedOrigins lists origins allowed to open a WebSocket. Empty
	// allows same-origin requests only.
	AllowedOrigins []string

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	// Default: 4096 each.
	ReadBufferSize  int
	WriteBufferSize int

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout guards against slow-loris clients.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// SessionConfig configures each session.
	SessionConfig *SessionConfig
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           ":8080",
		APITimeout:        30 * time.Second,
		SettleTimeout:     nav.DefaultSettleTimeout,
		MetricsNamespace:  "ladderpulse",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		SessionConfig:     DefaultSessionConfig(),
	}
}

// withDefaults returns a copy of c with unset fields filled in.
func (c *ServerConfig) withDefaults() *ServerConfig {
	defaults := DefaultServerConfig()
	if c == nil {
		return defaults
	}
	out := *c
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.APITimeout == 0 {
		out.APITimeout = defaults.APITimeout
	}
	if out.SettleTimeout == 0 {
		out.SettleTimeout = defaults.SettleTimeout
	}
	if out.MetricsNamespace == "" {
		out.MetricsNamespace = defaults.MetricsNamespace
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = defaults.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = defaults.WriteBufferSize
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}

	sc := defaults.SessionConfig
	if c.SessionConfig != nil {
		merged := *c.SessionConfig
		if merged.ReadTimeout == 0 {
			merged.ReadTimeout = sc.ReadTimeout
		}
		if merged.WriteTimeout == 0 {
			merged.WriteTimeout = sc.WriteTimeout
		}
		if merged.HandshakeTimeout == 0 {
			merged.HandshakeTimeout = sc.HandshakeTimeout
		}
		if merged.HeartbeatInterval == 0 {
			merged.HeartbeatInterval = sc.HeartbeatInterval
		}
		if merged.MaxMessageSize == 0 {
			merged.MaxMessageSize = sc.MaxMessageSize
		}
		if merged.MaxSendQueue == 0 {
			merged.MaxSendQueue = sc.MaxSendQueue
		}
		if merged.MaxActionQueue == 0 {
			merged.MaxActionQueue = sc.MaxActionQueue
		}
		sc = &merged
	}
	out.SessionConfig = sc
	return &out
}

// checkOrigin allows same-origin requests and the configured origins.
func (c *ServerConfig) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
