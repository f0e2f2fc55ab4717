package walker

import (
	"fmt"
	"strings"

	"github.com/reedfield/strata/internal/spec"
)

// Built-in policy identifiers.
const (
	PolicyDefault    = "default"
	PolicyMission    = "mission-templates"
	PolicyCapability = "capability-templates"
)

// RegisterBuiltins installs the built-in policies into a registry.
func RegisterBuiltins(reg *Registry) {
	reg.MustRegister(PolicyDefault, func() (Policy, error) { return DefaultPolicy(), nil })
	reg.MustRegister(PolicyMission, func() (Policy, error) { return MissionPolicy(), nil })
	reg.MustRegister(PolicyCapability, func() (Policy, error) { return CapabilityPolicy(), nil })
}

// templatePolicy proposes objectives by suffixing the base objective with
// fixed phrasings, overflowing into numbered variants when asked for more
// candidates than it has templates.
type templatePolicy struct {
	fallback  string
	templates []string
}

func (p *templatePolicy) GenerateStrategies(rec *spec.Record, n int) []string {
	base := p.fallback
	if what, ok := rec.Need(spec.What); ok && what != "" {
		base = what
	}
	strategies := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if i < len(p.templates) {
			strategies = append(strategies, fmt.Sprintf("%s %s", base, p.templates[i]))
			continue
		}
		strategies = append(strategies, fmt.Sprintf("%s (alternative %d)", base, i+1))
	}
	return strategies
}

func (p *templatePolicy) Validate(result any) Validation {
	if result == nil {
		return Validation{Details: "no result"}
	}
	text := fmt.Sprint(result)
	switch {
	case text == "":
		return Validation{Score: 0.1, Details: "empty result"}
	case strings.Contains(text, "(because:"):
		return Validation{Score: 1.0, Passed: true, Details: "executed with purpose context"}
	default:
		return Validation{Score: 0.7, Passed: true, Details: "result returned"}
	}
}

// MissionPolicy proposes radically different strategic postures for the
// same ultimate purpose. Suited to the top of the ladder, where autonomy
// is extreme.
func MissionPolicy() Policy {
	return &templatePolicy{
		fallback: "achieve mission",
		templates: []string{
			"through organic growth",
			"through acquisition strategy",
			"through market expansion",
			"through product innovation",
			"through operational excellence",
			"through partnership ecosystem",
		},
	}
}

// CapabilityPolicy proposes alternative implementation approaches within
// established constraints, the typical starting tier for technical work.
func CapabilityPolicy() Policy {
	return &templatePolicy{
		fallback: "implement capability",
		templates: []string{
			"using the standard toolchain",
			"using a third-party service",
			"using a custom implementation",
			"using an existing framework",
			"using an event-driven design",
			"using a managed platform",
		},
	}
}
