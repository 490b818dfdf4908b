package core

import (
	"fmt"
	"sort"
)

// HealthLevel labels a half-open balance interval [Min, Max) in cents.
// Nil bounds mean -inf / +inf. Level sets are user-editable and may
// contain gaps or overlaps; classification stays total regardless.
type HealthLevel struct {
	Label string
	Color string
	// MinCents is inclusive; nil means no lower bound.
	MinCents *int64
	// MaxCents is exclusive; nil means no upper bound.
	MaxCents *int64
}

// Contains reports whether cents falls inside the level's interval.
func (l HealthLevel) Contains(cents int64) bool {
	if l.MinCents != nil && cents < *l.MinCents {
		return false
	}
	if l.MaxCents != nil && cents >= *l.MaxCents {
		return false
	}
	return true
}

func centsPtr(v int64) *int64 { return &v }

// DefaultHealthLevels is the built-in tiering used when the user has not
// configured one, or when the configured set is unusable.
func DefaultHealthLevels() []HealthLevel {
	return []HealthLevel{
		{Label: "critical", Color: "#e74c3c", MaxCents: centsPtr(0)},
		{Label: "warning", Color: "#f39c12", MinCents: centsPtr(0), MaxCents: centsPtr(100_000)},
		{Label: "healthy", Color: "#2ecc71", MinCents: centsPtr(100_000)},
	}
}

// SortHealthLevels orders levels by ascending lower bound, unbounded-below
// first. Classification and gap fallback both assume this order.
func SortHealthLevels(levels []HealthLevel) []HealthLevel {
	sorted := append([]HealthLevel(nil), levels...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].MinCents, sorted[j].MinCents
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return *a < *b
		}
	})
	return sorted
}

// ClassifyBalance selects the health level for a balance. The first level
// containing the balance wins; if the set has a gap, the nearest level
// whose lower bound sits above the balance applies; balances beyond every
// bound clamp to the outermost level.
func ClassifyBalance(levels []HealthLevel, cents int64) HealthLevel {
	if len(levels) == 0 {
		levels = DefaultHealthLevels()
	}
	sorted := SortHealthLevels(levels)
	for _, l := range sorted {
		if l.Contains(cents) {
			return l
		}
	}
	// Gap: pick the nearest level starting above the balance. When the
	// balance is below every level this yields the lowest level, which is
	// the clamping the interval set implies.
	for _, l := range sorted {
		if l.MinCents != nil && cents < *l.MinCents {
			return l
		}
	}
	// Above every level's maximum.
	return sorted[len(sorted)-1]
}

// ValidateHealthLevels reports configuration problems without blocking
// projection: empty sets, inverted bounds, gaps and overlaps between
// consecutive levels. Projection keeps working through the permissive
// fallback in ClassifyBalance; callers surface these to the user.
func ValidateHealthLevels(levels []HealthLevel) []ValidationIssue {
	var issues []ValidationIssue
	if len(levels) == 0 {
		return []ValidationIssue{{
			Code:    IssueHealthConfig,
			Message: "no health levels configured, using built-in defaults",
		}}
	}
	for _, l := range levels {
		if l.Label == "" {
			issues = append(issues, ValidationIssue{
				Code:    IssueHealthConfig,
				Message: "health level without a label",
			})
		}
		if l.MinCents != nil && l.MaxCents != nil && *l.MinCents >= *l.MaxCents {
			issues = append(issues, ValidationIssue{
				Code:    IssueHealthConfig,
				Subject: l.Label,
				Message: fmt.Sprintf("empty interval: min %d >= max %d", *l.MinCents, *l.MaxCents),
			})
		}
	}
	sorted := SortHealthLevels(levels)
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.MaxCents == nil || cur.MinCents == nil {
			continue
		}
		switch {
		case *prev.MaxCents < *cur.MinCents:
			issues = append(issues, ValidationIssue{
				Code:    IssueHealthConfig,
				Subject: cur.Label,
				Message: fmt.Sprintf("gap between %q and %q: [%d, %d) is uncovered", prev.Label, cur.Label, *prev.MaxCents, *cur.MinCents),
			})
		case *prev.MaxCents > *cur.MinCents:
			issues = append(issues, ValidationIssue{
				Code:    IssueHealthConfig,
				Subject: cur.Label,
				Message: fmt.Sprintf("levels %q and %q overlap", prev.Label, cur.Label),
			})
		}
	}
	return issues
}
