package plugins

import (
	"fmt"
	"strings"

	"github.com/reedfield/strata/internal/spec"
)

// PolicyDefinition describes a strategy/validation policy loaded from a
// plugin file.
//
// The struct mirrors the on-disk schema under .strata/plugins/*.yaml and is
// intentionally narrow so the engine can validate plugin metadata before
// wiring it into the delegation runtime.
type PolicyDefinition struct {
	ID          string               `json:"id" yaml:"id"`
	Name        string               `json:"name,omitempty" yaml:"name,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string               `json:"version" yaml:"version"`
	Levels      []string             `json:"levels,omitempty" yaml:"levels,omitempty"`
	Strategies  StrategyDefinition   `json:"strategies" yaml:"strategies"`
	Validation  ValidationDefinition `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// StrategyDefinition declares how candidate objectives are derived from a
// goal.
type StrategyDefinition struct {
	Templates []string `json:"templates" yaml:"templates"`
	Fallback  string   `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// ValidationDefinition declares how outcomes are scored.
type ValidationDefinition struct {
	Require   []string `json:"require,omitempty" yaml:"require,omitempty"`
	MinLength int      `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	PassScore float64  `json:"pass_score,omitempty" yaml:"pass_score,omitempty"`
	FailScore float64  `json:"fail_score,omitempty" yaml:"fail_score,omitempty"`
}

// Normalized returns a trimmed, copy-on-write variant of the definition.
func (def PolicyDefinition) Normalized() PolicyDefinition {
	clone := PolicyDefinition{
		ID:          strings.TrimSpace(def.ID),
		Name:        strings.TrimSpace(def.Name),
		Description: strings.TrimSpace(def.Description),
		Version:     strings.TrimSpace(def.Version),
		Strategies:  def.Strategies.normalized(),
		Validation:  def.Validation.normalized(),
	}
	if len(def.Levels) > 0 {
		clone.Levels = make([]string, 0, len(def.Levels))
		for _, level := range def.Levels {
			trimmed := strings.ToLower(strings.TrimSpace(level))
			if trimmed == "" {
				continue
			}
			clone.Levels = append(clone.Levels, trimmed)
		}
	}
	return clone
}

// Validate ensures the plugin definition is well-formed and references known
// ladder tiers.
func (def PolicyDefinition) Validate() error {
	normalized := def.Normalized()
	if normalized.ID == "" {
		return fmt.Errorf("plugin: id is required")
	}
	if normalized.Version == "" {
		return fmt.Errorf("plugin %s: version is required", normalized.ID)
	}
	if err := normalized.Strategies.validate(); err != nil {
		return fmt.Errorf("plugin %s: strategies: %w", normalized.ID, err)
	}
	if err := normalized.Validation.validate(); err != nil {
		return fmt.Errorf("plugin %s: validation: %w", normalized.ID, err)
	}
	for idx, level := range normalized.Levels {
		if _, err := spec.ParseLevel(level); err != nil {
			return fmt.Errorf("plugin %s: levels[%d]: %w", normalized.ID, idx, err)
		}
	}
	return nil
}

func (def StrategyDefinition) normalized() StrategyDefinition {
	clone := StrategyDefinition{
		Fallback: strings.TrimSpace(def.Fallback),
	}
	if len(def.Templates) > 0 {
		clone.Templates = make([]string, 0, len(def.Templates))
		for _, template := range def.Templates {
			trimmed := strings.TrimSpace(template)
			if trimmed == "" {
				continue
			}
			clone.Templates = append(clone.Templates, trimmed)
		}
	}
	return clone
}

func (def StrategyDefinition) validate() error {
	if len(def.normalized().Templates) == 0 {
		return fmt.Errorf("at least one template is required")
	}
	return nil
}

func (def ValidationDefinition) normalized() ValidationDefinition {
	clone := ValidationDefinition{
		MinLength: def.MinLength,
		PassScore: def.PassScore,
		FailScore: def.FailScore,
	}
	if len(def.Require) > 0 {
		clone.Require = make([]string, 0, len(def.Require))
		for _, marker := range def.Require {
			trimmed := strings.TrimSpace(marker)
			if trimmed == "" {
				continue
			}
			clone.Require = append(clone.Require, trimmed)
		}
	}
	return clone
}

func (def ValidationDefinition) validate() error {
	if def.MinLength < 0 {
		return fmt.Errorf("min_length must be >= 0")
	}
	if def.PassScore < 0 || def.PassScore > 1 {
		return fmt.Errorf("pass_score must be within [0, 1]")
	}
	if def.FailScore < 0 || def.FailScore > 1 {
		return fmt.Errorf("fail_score must be within [0, 1]")
	}
	return nil
}
