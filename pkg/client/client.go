package client

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tensorgrid-dev/tensorgrid/pkg/protocol"
)

// EventHandler receives out-of-band events pushed by the platform.
// Handlers run on their own goroutine and may call back into the client.
type EventHandler func(ev *protocol.Event)

// SubscriptionsLostHandler is invoked when a connection carrying
// keep-alive tokens is disposed. The listed tokens are gone; the caller
// must re-subscribe (and re-add tokens) on the next connection.
type SubscriptionsLostHandler func(tokens []string)

// Client multiplexes many concurrent logical calls over at most one
// persistent connection, creating it lazily and disposing it when idle.
// A Client is safe for concurrent use. After Close it is terminal;
// create a new Client to resume use.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu         sync.Mutex
	conn       *conn
	connecting *connectAttempt
	closed     bool
	done       chan struct{}

	onEvent    EventHandler
	onSubsLost SubscriptionsLostHandler
}

// connectAttempt is a connection establishment shared by every caller
// that needs the connection while it is being built. It resolves once,
// with either an open connection or ErrUnavailable.
type connectAttempt struct {
	done chan struct{}
	conn *conn
	err  error
}

// New creates a client from the config. The persistent connection is
// not established until the first correlated call needs it.
func New(cfg *Config) *Client {
	full := cfg.withDefaults()
	return &Client{
		cfg:    full,
		logger: full.Logger,
		done:   make(chan struct{}),
	}
}

// OnEvent registers the handler for out-of-band events.
// Must be called before the first call that may produce events.
func (c *Client) OnEvent(h EventHandler) {
	c.mu.Lock()
	c.onEvent = h
	c.mu.Unlock()
}

// OnSubscriptionsLost registers the handler for keep-alive loss.
func (c *Client) OnSubscriptionsLost(h SubscriptionsLostHandler) {
	c.mu.Lock()
	c.onSubsLost = h
	c.mu.Unlock()
}

// Call issues a correlated request over the persistent connection,
// establishing it first if needed. It returns the decoded response, a
// domain *APIError from the response header, or ErrConnectionClosed if
// the connection went away before the response arrived. Such calls are
// never retried internally; resubmit if appropriate.
//
// ctx bounds connection establishment and the wait for the response.
// Abandoning the wait does not cancel the request on the platform.
func (c *Client) Call(ctx context.Context, method string, params any, segments [][]byte) (*Response, error) {
	ctx, span := startCallSpan(ctx, "socket", method)
	defer span.End()

	timer := time.Now()
	resp, err := c.call(ctx, method, params, segments)
	finishCallSpan(span, err)
	observeCall("socket", method, time.Since(timer), err)
	return resp, err
}

func (c *Client) call(ctx context.Context, method string, params any, segments [][]byte) (*Response, error) {
	cn, err := c.getOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	pc, err := cn.send(method, params, segments)
	if err != nil {
		return nil, err
	}

	metrics().inflight.Inc()
	defer metrics().inflight.Dec()

	select {
	case <-pc.done:
		return pc.resp, pc.err
	case <-ctx.Done():
		cn.forget(pc.id)
		cn.scheduleIdleCheck()
		return nil, ctx.Err()
	}
}

// AddKeepAlive registers an opaque token that prevents idle disposal of
// the current connection, typically while a subscription is streaming.
// Without a connection this is a no-op: tokens do not outlive the
// connection they were added to, so re-add them after reconnecting
// (the SubscriptionsLost notification marks when that is needed).
func (c *Client) AddKeepAlive(token string) {
	c.mu.Lock()
	cn := c.conn
	c.mu.Unlock()

	if cn != nil {
		cn.addKeepAlive(token)
	}
}

// RemoveKeepAlive drops a token. Removing the last token while no calls
// are in flight disposes the connection.
func (c *Client) RemoveKeepAlive(token string) {
	c.mu.Lock()
	cn := c.conn
	c.mu.Unlock()

	if cn != nil {
		cn.removeKeepAlive(token)
	}
}

// Connected reports whether a persistent connection is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close disposes the current connection, rejects everything in flight,
// and stops any pending reconnect loop. The client is terminal after
// Close.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	c.closed = true
	cn := c.conn
	close(c.done)
	c.mu.Unlock()

	if cn != nil {
		cn.dispose()
	}
	return nil
}

// getOrCreate returns the open connection, joining an in-progress
// attempt or starting one. Concurrent callers share a single attempt;
// no duplicate connections are raced.
func (c *Client) getOrCreate(ctx context.Context) (*conn, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	if c.conn != nil {
		cn := c.conn
		c.mu.Unlock()
		return cn, nil
	}
	if c.connecting == nil {
		att := &connectAttempt{done: make(chan struct{})}
		c.connecting = att
		go c.connectLoop(att)
	}
	att := c.connecting
	c.mu.Unlock()

	select {
	case <-att.done:
		return att.conn, att.err
	case <-ctx.Done():
		// The attempt keeps running for other callers.
		return nil, ctx.Err()
	}
}

// connectLoop dials until a connection is established or the client is
// closed, pausing a fixed delay between failures. The resolved attempt
// is published before the read loop starts.
func (c *Client) connectLoop(att *connectAttempt) {
	for {
		ws, err := c.dial()
		if err == nil {
			cn := newConn(c, ws)

			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				ws.Close()
				c.finishAttempt(att, nil, ErrUnavailable)
				return
			}
			c.conn = cn
			c.mu.Unlock()

			go cn.readLoop()
			c.logger.Info("connected", "url", c.socketURL())
			metrics().connects.Inc()
			c.finishAttempt(att, cn, nil)
			return
		}

		c.logger.Warn("connect failed, retrying",
			"error", err,
			"delay", c.cfg.ReconnectDelay)
		metrics().connectFailures.Inc()

		select {
		case <-time.After(c.cfg.ReconnectDelay):
		case <-c.done:
			c.finishAttempt(att, nil, ErrUnavailable)
			return
		}
	}
}

// finishAttempt resolves the shared attempt and clears the slot.
func (c *Client) finishAttempt(att *connectAttempt, cn *conn, err error) {
	att.conn = cn
	att.err = err
	c.mu.Lock()
	if c.connecting == att {
		c.connecting = nil
	}
	c.mu.Unlock()
	close(att.done)
}

// dial performs the transport handshake.
func (c *Client) dial() (*websocket.Conn, error) {
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandshakeTimeout)
	defer cancel()

	ws, _, err := c.cfg.Dialer.DialContext(ctx, c.socketURL(), header)
	return ws, err
}

// socketURL resolves the websocket endpoint.
func (c *Client) socketURL() string {
	if c.cfg.SocketURL != "" {
		return c.cfg.SocketURL
	}
	u := c.cfg.BaseURL
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return u + "/socket"
}

// connDisposed is called by a connection at the end of its dispose.
// It clears the client's reference and raises the subscriptions-lost
// notification when the connection still carried keep-alive tokens.
func (c *Client) connDisposed(cn *conn, tokens []string) {
	c.mu.Lock()
	if c.conn == cn {
		c.conn = nil
	}
	h := c.onSubsLost
	c.mu.Unlock()

	metrics().disposals.Inc()

	if len(tokens) > 0 {
		c.logger.Info("subscriptions lost with connection", "tokens", len(tokens))
		if h != nil {
			go h(tokens)
		}
	}
}

// dispatchEvent routes an out-of-band event to the registered handler.
func (c *Client) dispatchEvent(ev *protocol.Event) {
	c.mu.Lock()
	h := c.onEvent
	c.mu.Unlock()

	metrics().events.Inc()

	if h == nil {
		c.logger.Debug("dropping event with no handler", "origin", ev.Origin)
		return
	}
	go h(ev)
}
