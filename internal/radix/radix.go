// Package radix converts between scalar indices and digit vectors in a
// mixed-radix number system, where every digit position has its own arity.
// The last position is the least significant digit.
package radix

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrArity    = errors.New("radix: arity must be positive")
	ErrRange    = errors.New("radix: value out of range")
	ErrLength   = errors.New("radix: digit and arity lengths differ")
	ErrOverflow = errors.New("radix: cardinality overflows int")
)

// Product returns the number of distinct vectors under arities, i.e. the
// product of all radices. An empty arity vector has exactly one vector.
func Product(arities []int) (int, error) {
	n := 1
	for i, a := range arities {
		if a <= 0 {
			return 0, fmt.Errorf("%w: arities[%d]=%d", ErrArity, i, a)
		}
		if n > math.MaxInt/a {
			return 0, ErrOverflow
		}
		n *= a
	}
	return n, nil
}

// Uniform returns k copies of base: the plain change-of-base case.
func Uniform(base, k int) []int {
	arities := make([]int, k)
	for i := range arities {
		arities[i] = base
	}
	return arities
}

// Decode returns the digit vector for index under arities.
func Decode(index int, arities []int) ([]int, error) {
	digits := make([]int, len(arities))
	if err := DecodeInto(digits, index, arities); err != nil {
		return nil, err
	}
	return digits, nil
}

// DecodeInto writes the digits of index into dst, which must have the same
// length as arities. Every position of dst is written, so a reused buffer
// never keeps digits from an earlier call.
func DecodeInto(dst []int, index int, arities []int) error {
	if len(dst) != len(arities) {
		return ErrLength
	}
	n, err := Product(arities)
	if err != nil {
		return err
	}
	if index < 0 || index >= n {
		return fmt.Errorf("%w: index %d not in [0, %d)", ErrRange, index, n)
	}
	for i := len(arities) - 1; i >= 0; i-- {
		dst[i] = index % arities[i]
		index /= arities[i]
	}
	return nil
}

// Encode is the inverse of Decode.
func Encode(digits, arities []int) (int, error) {
	if len(digits) != len(arities) {
		return 0, ErrLength
	}
	if _, err := Product(arities); err != nil {
		return 0, err
	}
	index := 0
	weight := 1
	for i := len(digits) - 1; i >= 0; i-- {
		a := arities[i]
		d := digits[i]
		if d < 0 || d >= a {
			return 0, fmt.Errorf("%w: digit %d=%d not in [0, %d)", ErrRange, i, d, a)
		}
		index += d * weight
		weight *= a
	}
	return index, nil
}
