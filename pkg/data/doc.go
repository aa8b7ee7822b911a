// Package data implements the TensorGrid self-describing binary value
// format: typed scalar elements and arbitrarily nested homogeneous
// arrays of them, as exchanged with the platform in frame segments.
//
// An Element is one variant of a tagged union over the primitive kinds
// (floats, fixed and varint integers, string, binary, bool, media with
// a 3-byte format tag, and an insertion-ordered dict). A Data is an
// ordered container whose members are either all Elements (depth 1) or
// all nested Data (depth > 1); mixing the two classes in one container
// is a construction error.
//
// # Wire Format
//
// Every value starts with a one-byte kind tag (see Kind; the numbering
// is a persisted interop format). Element payloads follow the tag
// directly. A container is encoded as
//
//	[0x00][form][varint count][children]
//
// where form 0x00 (generic) tags every child individually and form 0x01
// (same-type) hoists one shared child tag followed by untagged payloads.
// This package always emits the generic form; both forms decode, since
// other encoders on the platform emit the optimized one.
//
// # Shape
//
// Data.Shape reports one length per dimension. When siblings at some
// depth disagree on a length, that axis reports Ragged (-1) instead of
// failing: ragged nesting is legal. Only a dimension-count mismatch is
// an error, raised at insertion time.
//
// # Usage Example
//
//	d := data.FromElements(data.Int32(5), data.Int32(7))
//	d.Shape()            // [2]
//	buf := d.Encode()
//	back, err := data.Decode(buf)
package data
