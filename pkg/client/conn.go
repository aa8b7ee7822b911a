package client

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tensorgrid-dev/tensorgrid/pkg/protocol"
)

// conn is one persistent connection. It lives from successful handshake
// until disposal and owns the in-flight call table and the keep-alive
// token set. All mutation goes through its mutex; external code never
// touches these maps directly.
type conn struct {
	client *Client
	ws     *websocket.Conn
	logger *slog.Logger

	mu        sync.Mutex
	nextID    uint32
	pending   map[uint32]*pendingCall
	keepAlive map[string]struct{}
	disposed  bool
}

func newConn(c *Client, ws *websocket.Conn) *conn {
	return &conn{
		client:    c,
		ws:        ws,
		logger:    c.logger,
		nextID:    1,
		pending:   make(map[uint32]*pendingCall),
		keepAlive: make(map[string]struct{}),
	}
}

// send registers a pending call and writes the correlated request frame.
// Frames go out in call order: the id allocation and the write happen
// under the same lock.
func (cn *conn) send(method string, params any, segments [][]byte) (*pendingCall, error) {
	cn.mu.Lock()
	defer cn.mu.Unlock()

	if cn.disposed {
		return nil, ErrConnectionClosed
	}

	id := cn.nextID
	cn.nextID++ // wraps per instance lifetime; by then the original resolved

	frame, err := protocol.EncodeCorrelated(id, callEnvelope{Method: method, Params: params}, segments)
	if err != nil {
		return nil, err
	}

	pc := newPendingCall(id)
	cn.pending[id] = pc

	cn.ws.SetWriteDeadline(time.Now().Add(cn.client.cfg.WriteTimeout))
	if err := cn.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		delete(cn.pending, id)
		cn.logger.Error("write error", "error", err, "method", method)
		metrics().writeErrors.Inc()
		return nil, err
	}

	metrics().bytesSent.Add(float64(len(frame)))
	return pc, nil
}

// forget removes a pending call without resolving it. Used when the
// caller stops waiting; a late response for the id is discarded.
func (cn *conn) forget(id uint32) {
	cn.mu.Lock()
	delete(cn.pending, id)
	cn.mu.Unlock()
}

// readLoop continuously reads messages from the connection, resolving
// correlated responses and dispatching out-of-band events. It blocks
// until the connection is closed or a read error occurs, then disposes.
func (cn *conn) readLoop() {
	defer cn.dispose()

	cn.ws.SetReadLimit(cn.client.cfg.MaxMessageSize)
	for {
		_, msg, err := cn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				cn.logger.Error("read error", "error", err)
				metrics().readErrors.Inc()
			}
			return
		}

		metrics().bytesReceived.Add(float64(len(msg)))

		resp, ev, err := protocol.DecodeInbound(msg)
		if err != nil {
			// A peer speaking garbage cannot be trusted for the calls
			// still in flight either.
			cn.logger.Error("inbound decode error", "error", err)
			return
		}

		switch {
		case resp != nil:
			cn.resolveResponse(resp)
		case ev != nil:
			cn.client.dispatchEvent(ev)
		}
	}
}

// resolveResponse completes the pending call matching the response id.
// Responses arrive in any order; correlation is by id alone.
func (cn *conn) resolveResponse(resp *protocol.Response) {
	cn.mu.Lock()
	pc, ok := cn.pending[resp.ID]
	delete(cn.pending, resp.ID)
	cn.mu.Unlock()

	if !ok {
		// Caller stopped waiting, or the peer invented an id.
		cn.logger.Debug("response for unknown id", "id", resp.ID)
		return
	}

	pc.resolve(resp.Header, resp.Segments)
	cn.scheduleIdleCheck()
}

// addKeepAlive registers a token preventing idle disposal.
func (cn *conn) addKeepAlive(token string) {
	cn.mu.Lock()
	if !cn.disposed {
		cn.keepAlive[token] = struct{}{}
	}
	cn.mu.Unlock()
}

// removeKeepAlive drops a token and checks for idleness.
func (cn *conn) removeKeepAlive(token string) {
	cn.mu.Lock()
	delete(cn.keepAlive, token)
	cn.mu.Unlock()
	cn.idleCheck()
}

// scheduleIdleCheck runs the idle check after the configured grace
// period. The deferral leaves a window between a response landing and
// the caller registering a keep-alive for the same logical subscription.
func (cn *conn) scheduleIdleCheck() {
	time.AfterFunc(cn.client.cfg.IdleGrace, cn.idleCheck)
}

// idleCheck disposes the connection when nothing is in flight and no
// keep-alive tokens remain. Idle connections are not kept open.
func (cn *conn) idleCheck() {
	cn.mu.Lock()
	idle := !cn.disposed && len(cn.pending) == 0 && len(cn.keepAlive) == 0
	cn.mu.Unlock()

	if idle {
		cn.logger.Debug("disposing idle connection")
		cn.dispose()
	}
}

// dispose tears the connection down: every outstanding call is rejected
// with ErrConnectionClosed, and if keep-alive tokens were registered the
// client raises the subscriptions-lost notification so the caller can
// re-subscribe on a future connection.
func (cn *conn) dispose() {
	cn.mu.Lock()
	if cn.disposed {
		cn.mu.Unlock()
		return
	}
	cn.disposed = true

	calls := make([]*pendingCall, 0, len(cn.pending))
	for _, pc := range cn.pending {
		calls = append(calls, pc)
	}
	cn.pending = make(map[uint32]*pendingCall)

	tokens := make([]string, 0, len(cn.keepAlive))
	for t := range cn.keepAlive {
		tokens = append(tokens, t)
	}
	cn.keepAlive = make(map[string]struct{})
	cn.mu.Unlock()

	cn.ws.Close()

	for _, pc := range calls {
		pc.reject(ErrConnectionClosed)
	}

	cn.client.connDisposed(cn, tokens)
}
