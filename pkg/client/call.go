package client

import (
	"encoding/json"
)

// Response is the decoded result of a remote call: the JSON result
// value and any binary segments the method returned. Segment contents
// are opaque to the SDK; their semantics belong to the method that
// produced them (often a data.Data encoding).
type Response struct {
	Result   json.RawMessage
	Segments [][]byte
}

// callEnvelope is the JSON header of an outbound request frame.
type callEnvelope struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// respEnvelope is the JSON header of a response frame: exactly one of
// result or error is populated.
type respEnvelope struct {
	Result json.RawMessage `json:"result"`
	Err    *APIError       `json:"error"`
}

// decodeResponseHeader unpacks a response header into a Response or a
// domain error.
func decodeResponseHeader(header json.RawMessage, segments [][]byte) (*Response, error) {
	var env respEnvelope
	if err := json.Unmarshal(header, &env); err != nil {
		return nil, err
	}
	if env.Err != nil {
		return nil, env.Err
	}
	return &Response{Result: env.Result, Segments: segments}, nil
}

// pendingCall is an in-flight correlated request. It is resolved by the
// read loop when the matching response arrives, or rejected when the
// connection is disposed; it is never silently dropped.
type pendingCall struct {
	id   uint32
	done chan struct{}
	resp *Response
	err  error
}

func newPendingCall(id uint32) *pendingCall {
	return &pendingCall{id: id, done: make(chan struct{})}
}

// resolve completes the call with a response header and segments.
func (pc *pendingCall) resolve(header json.RawMessage, segments [][]byte) {
	pc.resp, pc.err = decodeResponseHeader(header, segments)
	close(pc.done)
}

// reject completes the call with an error.
func (pc *pendingCall) reject(err error) {
	pc.err = err
	close(pc.done)
}
