// Package checked provides bounds-checked sequence access and
// overflow-checked int32 arithmetic.
//
// The runtime fixture corpus demonstrates what happens when these checks are
// skipped: unchecked indexing panics and unchecked multiplication wraps
// silently. This package is the non-aborting counterpart. Every operation
// that can leave its valid range returns an error instead of terminating
// the process.
package checked

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange reports an index outside a sequence's bounds.
var ErrOutOfRange = errors.New("index out of range")

// ErrOverflow reports a product that does not fit in int32.
var ErrOverflow = errors.New("int32 overflow")

// At returns s[i], or ErrOutOfRange when i is not a valid index for s.
func At(s []int32, i int) (int32, error) {
	if i < 0 || i >= len(s) {
		return 0, fmt.Errorf("%w: index %d, length %d", ErrOutOfRange, i, len(s))
	}
	return s[i], nil
}

// Mul32 returns a*b, or ErrOverflow when the product leaves the int32 range.
// The check widens to int64, so math.MinInt32 * -1 is caught as well.
func Mul32(a, b int32) (int32, error) {
	p := int64(a) * int64(b)
	if p < math.MinInt32 || p > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d * %d = %d", ErrOverflow, a, b, p)
	}
	return int32(p), nil
}

// WrapMul32 returns the two's-complement wrapping product of a and b, which
// is the value unchecked int32 multiplication actually produces.
func WrapMul32(a, b int32) int32 {
	return a * b
}

// Scale multiplies every element of s by factor with overflow checking.
// The input slice is not modified. The first overflowing element stops the
// scan and is reported with its index.
func Scale(s []int32, factor int32) ([]int32, error) {
	out := make([]int32, len(s))
	for i, v := range s {
		p, err := Mul32(v, factor)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// Results renders the "Result: N" line for every element of s multiplied by
// factor. It is the checked form of the corpus helper loop: the same lines,
// with an error in place of a wrapped product.
func Results(s []int32, factor int32) ([]string, error) {
	scaled, err := Scale(s, factor)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(scaled))
	for i, p := range scaled {
		lines[i] = fmt.Sprintf("Result: %d", p)
	}
	return lines, nil
}
