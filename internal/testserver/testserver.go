// Package testserver is an in-process TensorGrid platform emulator for
// tests. It serves the unary HTTP endpoint and the persistent socket
// using the real wire format, with scriptable method handlers, pushed
// events and forced disconnects.
package testserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tensorgrid-dev/tensorgrid/pkg/protocol"
)

// Handler services one method call. The returned value is marshaled
// into the result field of the response header; a non-nil error becomes
// the error field. Handlers run concurrently, one goroutine per
// correlated request, so a slow handler does not block responses to
// later requests.
type Handler func(params json.RawMessage, segments [][]byte) (any, [][]byte, error)

// MethodError is a scripted domain error. Handlers return it to produce
// an error response header instead of a transport failure.
type MethodError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *MethodError) Error() string { return e.Code + ": " + e.Message }

type callEnvelope struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type respEnvelope struct {
	Result any          `json:"result,omitempty"`
	Err    *MethodError `json:"error,omitempty"`
}

// Server is the emulator. Zero or more socket connections may be open
// at a time; events are pushed to all of them.
type Server struct {
	httpServer *httptest.Server
	upgrader   websocket.Upgrader
	logger     *slog.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	token    string
	conns    map[*wsConn]struct{}
}

// wsConn is one accepted socket. Writes are serialized per connection.
type wsConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (wc *wsConn) write(frame []byte) error {
	wc.writeMu.Lock()
	defer wc.writeMu.Unlock()
	return wc.ws.WriteMessage(websocket.BinaryMessage, frame)
}

// New starts an emulator on a loopback listener.
func New() *Server {
	s := &Server{
		handlers: make(map[string]Handler),
		conns:    make(map[*wsConn]struct{}),
		logger:   slog.Default().With("component", "testserver"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}

	r := chi.NewRouter()
	r.Post("/rpc/{method}", s.handleUnary)
	r.Get("/socket", s.handleSocket)
	s.httpServer = httptest.NewServer(r)
	return s
}

// Close shuts the emulator down, dropping open sockets.
func (s *Server) Close() {
	s.mu.Lock()
	conns := make([]*wsConn, 0, len(s.conns))
	for wc := range s.conns {
		conns = append(conns, wc)
	}
	s.mu.Unlock()

	for _, wc := range conns {
		wc.ws.Close()
	}
	s.httpServer.Close()
}

// URL is the emulator's HTTP base URL.
func (s *Server) URL() string { return s.httpServer.URL }

// SocketURL is the emulator's websocket endpoint.
func (s *Server) SocketURL() string {
	return strings.Replace(s.httpServer.URL, "http://", "ws://", 1) + "/socket"
}

// Handle registers the handler for a method, replacing any previous one.
func (s *Server) Handle(method string, h Handler) {
	s.mu.Lock()
	s.handlers[method] = h
	s.mu.Unlock()
}

// RequireToken makes the emulator reject requests without the matching
// bearer token.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// ConnCount reports the number of open socket connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// PushEvent sends an out-of-band event to every open socket.
func (s *Server) PushEvent(origin string, header any, segments [][]byte) error {
	frame, err := protocol.EncodeEvent(origin, header, segments)
	if err != nil {
		return err
	}

	s.mu.Lock()
	conns := make([]*wsConn, 0, len(s.conns))
	for wc := range s.conns {
		conns = append(conns, wc)
	}
	s.mu.Unlock()

	for _, wc := range conns {
		if err := wc.write(frame); err != nil {
			return err
		}
	}
	return nil
}

// CloseConns force-closes every open socket without a close handshake,
// as a crashing or partitioned platform would.
func (s *Server) CloseConns() {
	s.mu.Lock()
	conns := make([]*wsConn, 0, len(s.conns))
	for wc := range s.conns {
		conns = append(conns, wc)
	}
	s.mu.Unlock()

	for _, wc := range conns {
		wc.ws.Close()
	}
}

// checkAuth validates the bearer token when one is required.
func (s *Server) checkAuth(r *http.Request) bool {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+token
}

func (s *Server) lookup(method string) Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handlers[method]
}

// dispatch runs the handler for a decoded request and encodes the
// response header.
func (s *Server) dispatch(method string, params json.RawMessage, segments [][]byte) (respEnvelope, [][]byte) {
	h := s.lookup(method)
	if h == nil {
		return respEnvelope{Err: &MethodError{Code: "method_not_found", Message: method}}, nil
	}

	result, segs, err := h(params, segments)
	if err != nil {
		var merr *MethodError
		if e, ok := err.(*MethodError); ok {
			merr = e
		} else {
			merr = &MethodError{Code: "internal", Message: err.Error()}
		}
		return respEnvelope{Err: merr}, nil
	}
	return respEnvelope{Result: result}, segs
}

func (s *Server) handleUnary(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	method := chi.URLParam(r, "method")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	header, segments, err := protocol.DecodeUnary(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var env callEnvelope
	if err := json.Unmarshal(header, &env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if env.Method == "" {
		env.Method = method
	}

	resp, segs := s.dispatch(env.Method, env.Params, segments)
	frame, err := protocol.EncodeUnary(resp, segs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(frame)
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	wc := &wsConn{ws: ws}

	s.mu.Lock()
	s.conns[wc] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, wc)
		s.mu.Unlock()
		ws.Close()
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return
		}

		id, header, segments, err := protocol.DecodeCorrelated(msg)
		if err != nil {
			s.logger.Error("bad correlated frame", "error", err)
			return
		}

		var env callEnvelope
		if err := json.Unmarshal(header, &env); err != nil {
			s.logger.Error("bad request header", "error", err)
			return
		}

		// Each request gets its own goroutine so responses can land in
		// whatever order handlers finish.
		go func() {
			resp, segs := s.dispatch(env.Method, env.Params, segments)
			frame, err := protocol.EncodeResponse(id, resp, segs)
			if err != nil {
				s.logger.Error("encode response", "error", err)
				return
			}
			if err := wc.write(frame); err != nil {
				s.logger.Debug("response write failed", "error", err)
			}
		}()
	}
}
