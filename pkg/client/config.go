package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Config holds configuration for a Client.
type Config struct {
	// Endpoints

	// BaseURL is the HTTP endpoint for unary calls, e.g.
	// "https://api.tensorgrid.dev". Method paths are appended under /rpc/.
	BaseURL string

	// SocketURL is the websocket endpoint for the persistent connection,
	// e.g. "wss://api.tensorgrid.dev/socket". If empty it is derived from
	// BaseURL by swapping the scheme and appending /socket.
	SocketURL string

	// Token is an optional bearer token sent on every request.
	// Obtaining and refreshing tokens is the caller's concern.
	Token string

	// Transports

	// HTTPClient is used for unary calls. Default: http.DefaultClient.
	// Timeouts and retry policy belong to this client, not to the SDK.
	HTTPClient *http.Client

	// Dialer is used to establish the persistent connection.
	// Default: a dialer with HandshakeTimeout applied.
	Dialer *websocket.Dialer

	// Timeouts

	// HandshakeTimeout is the maximum time for connection establishment.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a frame.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// ReconnectDelay is the fixed pause between failed connection
	// attempts. Default: 1 second.
	ReconnectDelay time.Duration

	// IdleGrace is how long the connection lingers after the last
	// in-flight call resolves before the idle check runs. The deferral
	// gives callers a window to register a keep-alive for a subscription
	// they are about to continue. Default: 50 milliseconds.
	IdleGrace time.Duration

	// Limits

	// MaxMessageSize is the maximum size of an incoming socket message.
	// Default: 64MB (segments carry model state).
	MaxMessageSize int64

	// Logger is the structured logger for connection lifecycle events.
	// Default: slog.Default() scoped to the client component.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReconnectDelay:   1 * time.Second,
		IdleGrace:        50 * time.Millisecond,
		MaxMessageSize:   64 * 1024 * 1024,
	}
}

// withDefaults fills zero fields with defaults, returning a copy.
func (c *Config) withDefaults() Config {
	out := *c
	def := DefaultConfig()

	if out.HandshakeTimeout == 0 {
		out.HandshakeTimeout = def.HandshakeTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = def.WriteTimeout
	}
	if out.ReconnectDelay == 0 {
		out.ReconnectDelay = def.ReconnectDelay
	}
	if out.IdleGrace == 0 {
		out.IdleGrace = def.IdleGrace
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = def.MaxMessageSize
	}
	if out.HTTPClient == nil {
		out.HTTPClient = http.DefaultClient
	}
	if out.Dialer == nil {
		out.Dialer = &websocket.Dialer{HandshakeTimeout: out.HandshakeTimeout}
	}
	if out.Logger == nil {
		out.Logger = slog.Default().With("component", "client")
	}
	return out
}
