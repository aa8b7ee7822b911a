package data

import (
	"errors"
	"fmt"
)

// MaxKeyLen is the maximum byte length of a dict key. Keys are
// length-prefixed with a single byte on the wire.
const MaxKeyLen = 255

// ErrKeyTooLong is returned when a dict key exceeds MaxKeyLen bytes.
var ErrKeyTooLong = errors.New("data: dict key exceeds 255 bytes")

// Value is a dict or array member: either an Element or a *Data.
type Value interface {
	isValue()
}

// Dict is an insertion-ordered mapping from short string keys to nested
// values. Iteration and serialization follow insertion order; setting an
// existing key updates the value in place without changing its position.
type Dict struct {
	keys []string
	vals map[string]Value
}

// NewDict creates an empty dict.
func NewDict() *Dict {
	return &Dict{vals: make(map[string]Value)}
}

// Len returns the number of keys.
func (d *Dict) Len() int {
	return len(d.keys)
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Get returns the value for key, or false if the key is absent.
func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.vals[key]
	return v, ok
}

// Set stores a value under key, appending the key to the iteration order
// if it is new. Keys longer than MaxKeyLen are rejected.
func (d *Dict) Set(key string, v Value) error {
	if len(key) > MaxKeyLen {
		return fmt.Errorf("%w: %d bytes", ErrKeyTooLong, len(key))
	}
	if _, exists := d.vals[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = v
	return nil
}

// Delete removes a key, preserving the order of the remaining keys.
func (d *Dict) Delete(key string) {
	if _, exists := d.vals[key]; !exists {
		return
	}
	delete(d.vals, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}
