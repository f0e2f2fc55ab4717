package walker

import (
	"fmt"

	"github.com/reedfield/strata/internal/spec"
)

// Validation scores one candidate outcome. Portfolio selection consults the
// actual validated result, never a predicted confidence.
type Validation struct {
	Score   float64
	Passed  bool
	Details string
}

// Policy is the pluggable pair of hooks that specialize a walker: how to
// propose candidate objectives and how to judge what came back. The core
// only promises to call GenerateStrategies when deriving child records and
// Validate once per portfolio candidate.
type Policy interface {
	// GenerateStrategies proposes n candidate objectives for the record.
	GenerateStrategies(rec *spec.Record, n int) []string
	// Validate scores an execution result.
	Validate(result any) Validation
}

// DefaultPolicy returns the built-in fallback policy: mechanical textual
// variants of the objective, and validation that passes any non-empty
// result with a full score.
func DefaultPolicy() Policy {
	return defaultPolicy{}
}

type defaultPolicy struct{}

func (defaultPolicy) GenerateStrategies(rec *spec.Record, n int) []string {
	base := "achieve goal"
	if what, ok := rec.Need(spec.What); ok && what != "" {
		base = what
	}
	strategies := make([]string, 0, n)
	for i := 0; i < n; i++ {
		strategies = append(strategies, fmt.Sprintf("%s (approach %d)", base, i+1))
	}
	return strategies
}

func (defaultPolicy) Validate(result any) Validation {
	if result == nil {
		return Validation{Details: "no result"}
	}
	if fmt.Sprint(result) == "" {
		return Validation{Details: "empty result"}
	}
	return Validation{Score: 1.0, Passed: true, Details: "result returned"}
}
