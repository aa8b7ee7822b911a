// Package protocol implements the TensorGrid binary wire protocol.
//
// The protocol frames every exchange with the platform, one-shot HTTP
// requests and multiplexed socket traffic alike, as a JSON header plus
// zero or more raw binary segments. Header values carry method names,
// parameters, and results; segments carry opaque binary payloads (most
// often tensor encodings, see package data).
//
// # Design Goals
//
//   - Minimal size: lengths are varint-encoded, small values cost one byte
//   - Fast encoding/decoding: no reflection, direct byte manipulation
//   - One body layout: unary and correlated frames share the same body
//   - Strict decoding: every trailing byte must be accounted for
//
// # Varint
//
// Integers use a prefix-byte encoding:
//
//	first byte < 253: the value itself
//	253: 2-byte big-endian value follows
//	254: 4-byte big-endian value follows
//	255: 8-byte big-endian value follows
//
// The minimal width is always selected, so encodings are canonical.
// Signed integers are ZigZag-mapped to unsigned before encoding.
//
// # Frame Layouts
//
// Unary (request body / response body over HTTP):
//
//	[u8 segCount][varint headerLen][varint segLen]* [header][segments]*
//
// Correlated request (outbound over a persistent connection):
//
//	[u32be id][u8 segCount][varint headerLen][varint segLen]* [header][segments]*
//
// Inbound (received over a persistent connection):
//
//	[u8 kind=0][u32be id]...            correlated response
//	[u8 kind=1][u8 originLen][origin]... out-of-band event
//
// both followed by the shared body layout. Header bytes are always UTF-8
// JSON; non-JSON header bytes, segment arithmetic that runs past the
// buffer, leftover trailing bytes, and unknown discriminators are all
// fatal decode errors with no partial result.
//
// # Usage Example
//
//	// Encode a unary request
//	body, err := protocol.EncodeUnary(map[string]any{"a": 1}, [][]byte{seg})
//
//	// Decode an inbound socket message
//	resp, ev, err := protocol.DecodeInbound(msg)
//	switch {
//	case resp != nil:
//	    // correlate by resp.ID
//	case ev != nil:
//	    // dispatch by ev.Origin
//	}
//
// # File Structure
//
//   - varint.go: Varint encoding/decoding
//   - encoder.go: Binary encoder
//   - decoder.go: Binary decoder
//   - frame.go: Frame envelopes and inbound dispatch
package protocol
