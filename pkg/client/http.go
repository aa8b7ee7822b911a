package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tensorgrid-dev/tensorgrid/pkg/protocol"
)

// frameContentType is the media type of an encoded frame body.
const frameContentType = "application/octet-stream"

// CallUnary issues a one-shot request over HTTP, independent of the
// persistent connection. It suits stateless operations where paying the
// socket setup is not worth it. Request and response bodies carry the
// same frame layout as correlated calls, minus the correlation id.
func (c *Client) CallUnary(ctx context.Context, method string, params any, segments [][]byte) (*Response, error) {
	ctx, span := startCallSpan(ctx, "http", method)
	defer span.End()

	timer := time.Now()
	resp, err := c.callUnary(ctx, method, params, segments)
	finishCallSpan(span, err)
	observeCall("http", method, time.Since(timer), err)
	return resp, err
}

func (c *Client) callUnary(ctx context.Context, method string, params any, segments [][]byte) (*Response, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClientClosed
	}

	body, err := protocol.EncodeUnary(callEnvelope{Method: method, Params: params}, segments)
	if err != nil {
		return nil, fmt.Errorf("client: encode request: %w", err)
	}

	url := c.cfg.BaseURL + "/rpc/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", frameContentType)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	metrics().bytesSent.Add(float64(len(body)))

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, c.cfg.MaxMessageSize))
	if err != nil {
		return nil, fmt.Errorf("client: read response: %w", err)
	}
	metrics().bytesReceived.Add(float64(len(raw)))

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client: unexpected status %d", res.StatusCode)
	}

	header, segs, err := protocol.DecodeUnary(raw)
	if err != nil {
		return nil, fmt.Errorf("client: decode response: %w", err)
	}
	return decodeResponseHeader(header, segs)
}
