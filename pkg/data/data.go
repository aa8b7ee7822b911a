package data

import (
	"errors"
	"fmt"
)

// Container errors. Shape violations are raised at the point of misuse,
// not deferred to serialization time.
var (
	ErrMixedChildren     = errors.New("data: cannot mix elements and nested arrays in one container")
	ErrDimensionMismatch = errors.New("data: child dimension count does not match siblings")
	ErrIndexOutOfRange   = errors.New("data: index out of range")
)

// Ragged marks an axis whose length is not uniform across siblings.
const Ragged = -1

// Data is an ordered, homogeneous-by-depth recursive array: either empty,
// or a sequence whose members are all Elements (depth 1) or all nested
// *Data (depth > 1). The first insertion fixes the shape class; inserting
// the other class afterwards is an error.
//
// The shape is derived from the children on every access, so mutating a
// nested child through its own pointer is reflected in the parent.
//
// Data is not safe for concurrent mutation.
type Data struct {
	elems  []Element
	nested []*Data
}

// New creates an empty container.
func New() *Data {
	return &Data{}
}

// FromElements creates a depth-1 container from elements.
func FromElements(elems ...Element) *Data {
	d := New()
	for _, el := range elems {
		// Element appends cannot fail on an element-class container.
		_ = d.Append(el)
	}
	return d
}

// FromNested creates a depth>1 container from child arrays.
// All children must agree on dimension count.
func FromNested(children ...*Data) (*Data, error) {
	d := New()
	for _, c := range children {
		if err := d.Append(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// isValue marks *Data as a dict/array value.
func (d *Data) isValue() {}

// Len returns the number of direct children.
func (d *Data) Len() int {
	if d.elems != nil {
		return len(d.elems)
	}
	return len(d.nested)
}

// Shape returns one length per dimension, with Ragged (-1) marking axes
// whose length differs across siblings. Child shapes are merged axis by
// axis at every nesting level, so raggedness deep inside the structure
// surfaces in the corresponding outer axis.
func (d *Data) Shape() []int {
	if d.nested == nil {
		return []int{len(d.elems)}
	}

	merged := d.nested[0].Shape()
	for _, c := range d.nested[1:] {
		cs := c.Shape()
		// Siblings normally agree on dimension count, but a child
		// emptied and re-classed through an aliased pointer can
		// diverge. The axes past the shorter child are ragged.
		for len(merged) < len(cs) {
			merged = append(merged, Ragged)
		}
		for ax := range merged {
			if ax >= len(cs) || merged[ax] != cs[ax] {
				merged[ax] = Ragged
			}
		}
	}
	return append([]int{len(d.nested)}, merged...)
}

// Dims returns the number of dimensions.
func (d *Data) Dims() int {
	if d.nested == nil {
		return 1
	}
	return 1 + d.nested[0].Dims()
}

// Nested reports whether the container holds nested arrays rather than
// elements. An empty container reports false until the first insertion.
func (d *Data) Nested() bool {
	return d.nested != nil
}

// Get returns the child at index i: an Element for depth-1 containers,
// a *Data for nested ones.
func (d *Data) Get(i int) (Value, error) {
	if i < 0 || i >= d.Len() {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, d.Len())
	}
	if d.elems != nil {
		return d.elems[i], nil
	}
	return d.nested[i], nil
}

// Element returns the child element at index i.
// Fails on nested containers.
func (d *Data) Element(i int) (Element, error) {
	if d.nested != nil {
		return Element{}, fmt.Errorf("%w: container holds nested arrays", ErrWrongKind)
	}
	if i < 0 || i >= len(d.elems) {
		return Element{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(d.elems))
	}
	return d.elems[i], nil
}

// Child returns the nested array at index i.
// Fails on element containers.
func (d *Data) Child(i int) (*Data, error) {
	if d.elems != nil {
		return nil, fmt.Errorf("%w: container holds elements", ErrWrongKind)
	}
	if i < 0 || i >= len(d.nested) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(d.nested))
	}
	return d.nested[i], nil
}

// Append adds a child at the end of the container.
func (d *Data) Append(v Value) error {
	return d.Insert(d.Len(), v)
}

// Insert adds a child at position i, shifting later children right.
//
// The first insertion into an empty container adopts the child's shape
// class (element vs nested). Afterwards, inserting the other class is a
// hard error, as is a nested child whose dimension count differs from
// the established siblings. A nested child whose dimension count matches
// but whose axis lengths differ is legal; the divergent axes report
// Ragged from Shape.
func (d *Data) Insert(i int, v Value) error {
	if i < 0 || i > d.Len() {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, d.Len())
	}

	switch child := v.(type) {
	case Element:
		if d.nested != nil {
			return fmt.Errorf("%w: inserting element into nested container", ErrMixedChildren)
		}
		d.elems = append(d.elems, Element{})
		copy(d.elems[i+1:], d.elems[i:])
		d.elems[i] = child

	case *Data:
		if d.elems != nil {
			return fmt.Errorf("%w: inserting nested array into element container", ErrMixedChildren)
		}
		if len(d.nested) > 0 {
			if got, want := child.Dims(), d.nested[0].Dims(); got != want {
				return fmt.Errorf("%w: child has %d dimensions, siblings have %d",
					ErrDimensionMismatch, got, want)
			}
		}
		d.nested = append(d.nested, nil)
		copy(d.nested[i+1:], d.nested[i:])
		d.nested[i] = child

	default:
		return fmt.Errorf("data: unsupported child type %T", v)
	}
	return nil
}

// Remove deletes the child at index i. A container emptied by Remove
// reverts to the unclassed state and may adopt either shape class again.
func (d *Data) Remove(i int) error {
	if i < 0 || i >= d.Len() {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, d.Len())
	}
	if d.elems != nil {
		d.elems = append(d.elems[:i], d.elems[i+1:]...)
		if len(d.elems) == 0 {
			d.elems = nil
		}
	} else {
		d.nested = append(d.nested[:i], d.nested[i+1:]...)
		if len(d.nested) == 0 {
			d.nested = nil
		}
	}
	return nil
}
