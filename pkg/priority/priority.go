// Package priority maps violation severity levels to coarse priority tiers.
package priority

import (
	"fmt"
	"strings"
)

// Priority is a coarse severity bucket.
type Priority string

const (
	High   Priority = "HIGH"
	Normal Priority = "NORMAL"
	Low    Priority = "LOW"
)

// Classify maps a severity level to a priority tier.
// 0 is HIGH, 1 and 2 are NORMAL, anything else (negative levels included) is LOW.
func Classify(severity int) Priority {
	switch {
	case severity == 0:
		return High
	case severity > 0 && severity <= 2:
		return Normal
	default:
		return Low
	}
}

// Parse reads a priority name, case-insensitively.
func Parse(s string) (Priority, error) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case High, Normal, Low:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q (expected HIGH, NORMAL or LOW)", s)
	}
}

// Rank orders priorities from most to least urgent: HIGH is 0, LOW is 2.
// Unknown values rank after LOW.
func (p Priority) Rank() int {
	switch p {
	case High:
		return 0
	case Normal:
		return 1
	case Low:
		return 2
	default:
		return 3
	}
}

func (p Priority) String() string {
	return string(p)
}
