package app

import (
	"fmt"
	"math"
)

func addInt64AndU64Checked(base int64, add uint64, what string) (int64, error) {
	if add > math.MaxInt64 {
		return 0, fmt.Errorf("%s: %w: addend too large", what, ErrArithmeticOverflow)
	}
	if base > math.MaxInt64-int64(add) {
		return 0, fmt.Errorf("%s: %w", what, ErrArithmeticOverflow)
	}
	return base + int64(add), nil
}

func addU64Checked(a, b uint64, what string) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, fmt.Errorf("%s: %w", what, ErrArithmeticOverflow)
	}
	return a + b, nil
}

func mulU64Checked(a, b uint64, what string) (uint64, error) {
	if a != 0 && b > math.MaxUint64/a {
		return 0, fmt.Errorf("%s: %w", what, ErrArithmeticOverflow)
	}
	return a * b, nil
}
