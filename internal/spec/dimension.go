// Package spec defines the dimensional record model used across strata:
// six-dimensional records (who/what/when/where/how/why), per-dimension
// confidence scores, and the six-tier autonomy ladder that governs how
// deep a goal may be delegated.
package spec

import "fmt"

// Dimension names one of the six axes a record may describe.
type Dimension string

const (
	Who   Dimension = "who"   // actors, stakeholders, agents
	What  Dimension = "what"  // actions, objects, results
	When  Dimension = "when"  // temporal context
	Where Dimension = "where" // spatial context
	How   Dimension = "how"   // methods, processes
	Why   Dimension = "why"   // purpose, motivation
)

// Dimensions returns every dimension in canonical order.
func Dimensions() []Dimension {
	return []Dimension{Who, What, When, Where, How, Why}
}

// ParseDimension converts a wire/config string into a Dimension.
func ParseDimension(raw string) (Dimension, error) {
	switch Dimension(raw) {
	case Who, What, When, Where, How, Why:
		return Dimension(raw), nil
	}
	return "", fmt.Errorf("spec: unknown dimension %q", raw)
}

// Valid reports whether d is one of the six known dimensions.
func (d Dimension) Valid() bool {
	switch d {
	case Who, What, When, Where, How, Why:
		return true
	}
	return false
}
