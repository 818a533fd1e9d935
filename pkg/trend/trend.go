// Package trend classifies issues across builds as new, fixed or persisting,
// and stores per-build issue snapshots to compare against.
package trend

import (
	"github.com/tsanders/violation-issues/pkg/identity"
	"github.com/tsanders/violation-issues/pkg/issue"
)

// Trend is the difference between two builds' issues.
type Trend struct {
	New        []issue.Issue // Present now, absent before
	Fixed      []issue.Issue // Present before, absent now
	Persisting []issue.Issue // Present in both builds; taken from the current build
}

// Compare matches issues by identity. Each identity is reported once per list,
// in the order it first appears.
func Compare(previous, current []issue.Issue) Trend {
	before := index(previous)
	now := index(current)

	var t Trend
	for _, i := range dedupe(current) {
		if _, ok := before[i.ID]; ok {
			t.Persisting = append(t.Persisting, i)
		} else {
			t.New = append(t.New, i)
		}
	}
	for _, i := range dedupe(previous) {
		if _, ok := now[i.ID]; !ok {
			t.Fixed = append(t.Fixed, i)
		}
	}
	return t
}

// Empty reports whether nothing changed and nothing persisted.
func (t Trend) Empty() bool {
	return len(t.New) == 0 && len(t.Fixed) == 0 && len(t.Persisting) == 0
}

func index(issues []issue.Issue) map[identity.Identity]struct{} {
	m := make(map[identity.Identity]struct{}, len(issues))
	for _, i := range issues {
		m[i.ID] = struct{}{}
	}
	return m
}

func dedupe(issues []issue.Issue) []issue.Issue {
	seen := make(map[identity.Identity]bool, len(issues))
	out := make([]issue.Issue, 0, len(issues))
	for _, i := range issues {
		if seen[i.ID] {
			continue
		}
		seen[i.ID] = true
		out = append(out, i)
	}
	return out
}
