package utils

import "golang.org/x/exp/constraints"

// Clamp holds v inside [lo, hi]. The bounds may be given in either order.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Mod returns v modulo n in the range [0, n) for any sign of v. n must be positive.
func Mod[T constraints.Integer](v, n T) T {
	r := v % n
	if r < 0 {
		r += n
	}
	return r
}
