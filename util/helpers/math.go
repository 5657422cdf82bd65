package helpers

import "golang.org/x/exp/constraints"

func Min[T constraints.Ordered](numbers ...T) T {
	var min T = numbers[0]
	for _, n := range numbers {
		if n < min {
			min = n
		}
	}
	return min
}

// AlignUp rounds a non-negative n up to a multiple of align, which must be a
// power of two.
func AlignUp[T constraints.Integer](n, align T) T {
	return (n + align - 1) &^ (align - 1)
}
