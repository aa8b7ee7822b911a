// Package client is the transport layer of the TensorGrid SDK. It
// issues remote calls over two transports sharing one frame format:
// one-shot HTTP requests and correlated calls multiplexed over a single
// persistent websocket connection.
//
// # Connection Lifecycle
//
// The persistent connection is created lazily by the first correlated
// call and shared by every concurrent caller. When the last in-flight
// call resolves and no keep-alive tokens are registered, the connection
// is disposed after a short grace period. Connection failures reject
// in-flight calls with ErrConnectionClosed; calls are never retried
// internally.
//
// # Usage
//
//	c := client.New(&client.Config{
//		BaseURL: "https://api.tensorgrid.dev",
//		Token:   os.Getenv("TENSORGRID_TOKEN"),
//	})
//	defer c.Close()
//
//	resp, err := c.Call(ctx, "model.predict", params, segments)
//
// # Subscriptions
//
// Long-lived server push uses keep-alive tokens plus the event handler:
//
//	c.OnEvent(func(ev *protocol.Event) { ... })
//	c.AddKeepAlive("sub:prices")
//	defer c.RemoveKeepAlive("sub:prices")
//
// If the connection carrying tokens dies, the handler registered with
// OnSubscriptionsLost fires with the lost tokens so the caller can
// re-subscribe.
package client
