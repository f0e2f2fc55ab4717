package plugins

import (
	"fmt"
	"strings"

	"github.com/reedfield/strata/internal/spec"
	"github.com/reedfield/strata/internal/walker"
)

const (
	defaultPassScore = 0.7
	defaultFailScore = 0.1
)

// definitionPolicy turns a plugin definition into a live strategy policy.
// Strategies suffix the goal's objective with each configured template;
// validation scores a textual outcome against the definition's markers.
type definitionPolicy struct {
	def PolicyDefinition
}

// NewPolicy builds a policy from a validated definition.
func NewPolicy(def PolicyDefinition) (walker.Policy, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &definitionPolicy{def: def.Normalized()}, nil
}

func (p *definitionPolicy) GenerateStrategies(rec *spec.Record, n int) []string {
	objective := p.def.Strategies.Fallback
	if rec != nil {
		if what, ok := rec.Need(spec.What); ok && what != "" {
			objective = what
		}
	}
	if objective == "" {
		objective = "achieve goal"
	}
	templates := p.def.Strategies.Templates
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if i < len(templates) {
			out = append(out, fmt.Sprintf("%s %s", objective, templates[i]))
			continue
		}
		out = append(out, fmt.Sprintf("%s (alternative %d)", objective, i+1))
	}
	return out
}

func (p *definitionPolicy) Validate(result any) walker.Validation {
	failScore := p.def.Validation.FailScore
	if failScore == 0 {
		failScore = defaultFailScore
	}
	if result == nil {
		return walker.Validation{Score: 0, Passed: false, Details: "no result produced"}
	}
	text := fmt.Sprintf("%v", result)
	if strings.TrimSpace(text) == "" {
		return walker.Validation{Score: failScore, Passed: false, Details: "empty result"}
	}
	if p.def.Validation.MinLength > 0 && len(text) < p.def.Validation.MinLength {
		return walker.Validation{
			Score:   failScore,
			Passed:  false,
			Details: fmt.Sprintf("result shorter than %d characters", p.def.Validation.MinLength),
		}
	}
	if len(p.def.Validation.Require) > 0 && containsAll(text, p.def.Validation.Require) {
		return walker.Validation{Score: 1.0, Passed: true}
	}
	passScore := p.def.Validation.PassScore
	if passScore == 0 {
		passScore = defaultPassScore
	}
	return walker.Validation{Score: passScore, Passed: true}
}

// AppliesTo reports whether the definition targets the given ladder tier.
// A definition with no level list applies everywhere.
func (def PolicyDefinition) AppliesTo(level spec.Level) bool {
	if len(def.Levels) == 0 {
		return true
	}
	for _, name := range def.Levels {
		parsed, err := spec.ParseLevel(name)
		if err != nil {
			continue
		}
		if parsed == level {
			return true
		}
	}
	return false
}

func containsAll(text string, markers []string) bool {
	for _, marker := range markers {
		if !strings.Contains(text, marker) {
			return false
		}
	}
	return true
}
