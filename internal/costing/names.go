package costing

import "strings"

// NormalizeName is the join key between recipe lines and the ingredient
// registry.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MaxPortions bounds a single costing run so revenue and cost stay well
// inside int64 cents.
const MaxPortions = 1_000_000

// ClampPortions returns n limited to the range [1, MaxPortions].
func ClampPortions(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxPortions {
		return MaxPortions
	}
	return n
}
