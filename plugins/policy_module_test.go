package plugins

import (
	"strings"
	"testing"

	"github.com/reedfield/strata/internal/spec"
)

func growthDefinition() PolicyDefinition {
	return PolicyDefinition{
		ID:      "growth",
		Version: "1.0.0",
		Strategies: StrategyDefinition{
			Templates: []string{"through organic growth", "through acquisition"},
			Fallback:  "grow the business",
		},
		Validation: ValidationDefinition{
			Require:   []string{"(because:"},
			MinLength: 5,
			PassScore: 0.6,
			FailScore: 0.2,
		},
	}
}

func TestDefinitionPolicyStrategies(t *testing.T) {
	policy, err := NewPolicy(growthDefinition())
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	rec := spec.New("company", "pursues", "expansion")
	rec.Set(spec.What, "expand into new markets")

	got := policy.GenerateStrategies(rec, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 strategies, got %d", len(got))
	}
	if got[0] != "expand into new markets through organic growth" {
		t.Fatalf("first strategy = %q", got[0])
	}
	if !strings.Contains(got[2], "(alternative 3)") {
		t.Fatalf("overflow strategy = %q", got[2])
	}
}

func TestDefinitionPolicyFallbackObjective(t *testing.T) {
	policy, err := NewPolicy(growthDefinition())
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	got := policy.GenerateStrategies(spec.New("s", "p", "o"), 1)
	if len(got) != 1 || !strings.HasPrefix(got[0], "grow the business") {
		t.Fatalf("fallback strategy = %v", got)
	}
}

func TestDefinitionPolicyValidate(t *testing.T) {
	policy, err := NewPolicy(growthDefinition())
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	tests := []struct {
		name   string
		result any
		score  float64
		passed bool
	}{
		{name: "nil result", result: nil, score: 0, passed: false},
		{name: "too short", result: "ok", score: 0.2, passed: false},
		{name: "marker present", result: "executed: grow (because: mandate)", score: 1.0, passed: true},
		{name: "marker absent", result: "executed: grow the business", score: 0.6, passed: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := policy.Validate(tc.result)
			if got.Passed != tc.passed || got.Score != tc.score {
				t.Fatalf("validation = %+v, want score %v passed %v", got, tc.score, tc.passed)
			}
		})
	}
}

func TestDefinitionAppliesTo(t *testing.T) {
	def := growthDefinition()
	if !def.AppliesTo(spec.LevelBehavior) {
		t.Fatal("definition without levels should apply everywhere")
	}
	def.Levels = []string{"mission"}
	if !def.AppliesTo(spec.LevelMission) {
		t.Fatal("definition should apply to its listed tier")
	}
	if def.AppliesTo(spec.LevelEnvironment) {
		t.Fatal("definition should not apply to unlisted tiers")
	}
}
