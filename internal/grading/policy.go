package grading

import "strings"

// Policy selects how adjusted exam grades combine into a classroom final grade.
type Policy string

const (
	// PolicySum adds every adjusted exam grade.
	PolicySum Policy = "SUM"
	// PolicyWeighted divides the adjusted sum by the sum of exam weights and scales to 100.
	PolicyWeighted Policy = "WEIGHTED"
)

// ParsePolicy reads a policy name case-insensitively. An empty name yields fallback.
func ParsePolicy(value string, fallback Policy) (Policy, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "":
		return fallback, nil
	case string(PolicySum):
		return PolicySum, nil
	case string(PolicyWeighted):
		return PolicyWeighted, nil
	default:
		return "", invalid("policy", "unknown grading policy %q", value)
	}
}

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	return p == PolicySum || p == PolicyWeighted
}

func (p Policy) String() string { return string(p) }

func (p Policy) combine(adjustedSum, weightSum float64) float64 {
	if p == PolicyWeighted {
		if weightSum == 0 {
			return 0
		}
		return adjustedSum / weightSum * 100
	}
	return adjustedSum
}
