package tensor

import "fmt"

// Shape holds tensor dimensions in row-major order.
type Shape []int

// NumElements returns the total element count. A scalar shape has one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate returns an error if any dimension is not positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("dimension %d is %d, must be > 0", i, dim)
		}
	}
	return nil
}

// Equal reports whether two shapes have the same dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// Strides computes row-major memory strides for the shape.
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}
	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Broadcast applies NumPy-style broadcasting rules to two shapes.
// Dimensions are compared right to left; a dimension broadcasts when the
// two values match or one of them is 1. Missing dimensions count as 1.
func Broadcast(a, b Shape) (Shape, error) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make(Shape, n)
	for i := 0; i < n; i++ {
		da, db := 1, 1
		if idx := len(a) - 1 - i; idx >= 0 {
			da = a[idx]
		}
		if idx := len(b) - 1 - i; idx >= 0 {
			db = b[idx]
		}
		switch {
		case da == db:
			out[n-1-i] = da
		case da == 1:
			out[n-1-i] = db
		case db == 1:
			out[n-1-i] = da
		default:
			return nil, fmt.Errorf("shapes %v and %v are not broadcastable at dimension %d", a, b, n-1-i)
		}
	}
	return out, nil
}
