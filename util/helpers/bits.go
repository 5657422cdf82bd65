package helpers

import "golang.org/x/exp/constraints"

// GetBit reports whether bit n of v is set.
func GetBit[T constraints.Unsigned](v T, n int) bool {
	return v&(T(1)<<n) != 0
}
