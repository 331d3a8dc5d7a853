package wait

import "fmt"

// MatchPolicy defines how the satisfaction of multiple wait conditions
// is aggregated into a single session outcome.
type MatchPolicy int

const (
	// MatchAll requires every condition to evaluate true on some
	// attempt, not necessarily the same one.
	MatchAll MatchPolicy = iota
	// MatchAny is satisfied as soon as a single condition evaluates true.
	MatchAny
)

// ParseMatchPolicy converts the textual policy name ("all" or "any")
// to a MatchPolicy.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch s {
	case "all":
		return MatchAll, nil
	case "any":
		return MatchAny, nil
	default:
		return MatchAll, fmt.Errorf("%w: %q", ErrInvalidMatch, s)
	}
}

// String returns the textual policy name.
func (m MatchPolicy) String() string {
	if m == MatchAny {
		return "any"
	}
	return "all"
}
