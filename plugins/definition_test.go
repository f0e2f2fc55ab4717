package plugins

import (
	"strings"
	"testing"
)

func TestPolicyDefinitionValidate(t *testing.T) {
	def := PolicyDefinition{
		ID:      "growth",
		Name:    "Growth Strategies",
		Version: "1.0.0",
		Levels:  []string{"mission", "identity"},
		Strategies: StrategyDefinition{
			Templates: []string{"through organic growth", "through acquisition"},
		},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("expected definition to validate, got %v", err)
	}
}

func TestPolicyDefinitionValidateFailures(t *testing.T) {
	tests := []struct {
		name string
		def  PolicyDefinition
		msg  string
	}{
		{
			name: "missing id",
			def: PolicyDefinition{
				Version:    "1.0.0",
				Strategies: StrategyDefinition{Templates: []string{"fast"}},
			},
			msg: "id is required",
		},
		{
			name: "missing version",
			def: PolicyDefinition{
				ID:         "growth",
				Strategies: StrategyDefinition{Templates: []string{"fast"}},
			},
			msg: "version is required",
		},
		{
			name: "no templates",
			def: PolicyDefinition{
				ID:      "growth",
				Version: "1.0.0",
			},
			msg: "template",
		},
		{
			name: "unknown tier",
			def: PolicyDefinition{
				ID:         "growth",
				Version:    "1.0.0",
				Levels:     []string{"stratosphere"},
				Strategies: StrategyDefinition{Templates: []string{"fast"}},
			},
			msg: "levels[0]",
		},
		{
			name: "score out of range",
			def: PolicyDefinition{
				ID:         "growth",
				Version:    "1.0.0",
				Strategies: StrategyDefinition{Templates: []string{"fast"}},
				Validation: ValidationDefinition{PassScore: 1.5},
			},
			msg: "pass_score",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.def.Validate(); err == nil || !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("expected error containing %q, got %v", tc.msg, err)
			}
		})
	}
}

func TestPolicyDefinitionNormalized(t *testing.T) {
	def := PolicyDefinition{
		ID:      "  growth  ",
		Version: " 1.0.0 ",
		Levels:  []string{" Mission ", ""},
		Strategies: StrategyDefinition{
			Templates: []string{"  fast  ", ""},
		},
	}
	got := def.Normalized()
	if got.ID != "growth" || got.Version != "1.0.0" {
		t.Fatalf("unexpected normalization: %+v", got)
	}
	if len(got.Levels) != 1 || got.Levels[0] != "mission" {
		t.Fatalf("levels = %v", got.Levels)
	}
	if len(got.Strategies.Templates) != 1 || got.Strategies.Templates[0] != "fast" {
		t.Fatalf("templates = %v", got.Strategies.Templates)
	}
}
