package spec

import "fmt"

// Level is one tier of the six-step autonomy ladder. Higher ordinals carry
// more strategic freedom; delegation always moves one step down until it
// reaches the ground tier, which executes rather than delegates.
type Level int

const (
	// LevelEnvironment is the ground tier: zero autonomy, concrete action.
	LevelEnvironment Level = 1
	// LevelBehavior covers specific actions with very low autonomy.
	LevelBehavior Level = 2
	// LevelCapability covers methods and processes with low autonomy.
	LevelCapability Level = 3
	// LevelBeliefs covers principled choices with moderate autonomy.
	LevelBeliefs Level = 4
	// LevelIdentity covers self-definition with high autonomy.
	LevelIdentity Level = 5
	// LevelMission is the top tier: extreme autonomy, purpose setting.
	LevelMission Level = 6
)

// Autonomy labels the decision-making freedom of a ladder tier.
type Autonomy string

const (
	AutonomyExtreme  Autonomy = "extreme"
	AutonomyHigh     Autonomy = "high"
	AutonomyModerate Autonomy = "moderate"
	AutonomyLow      Autonomy = "low"
	AutonomyVeryLow  Autonomy = "very-low"
	AutonomyZero     Autonomy = "zero"
)

// levelEntry is one row of the ladder table.
type levelEntry struct {
	name     string
	primary  []Dimension
	autonomy Autonomy
}

// ladder is the process-wide, read-only level table. It is consulted by
// walkers when spawning children and by policies that branch on autonomy.
var ladder = map[Level]levelEntry{
	LevelMission:     {name: "mission", primary: []Dimension{Why}, autonomy: AutonomyExtreme},
	LevelIdentity:    {name: "identity", primary: []Dimension{Who}, autonomy: AutonomyHigh},
	LevelBeliefs:     {name: "beliefs", primary: []Dimension{Why}, autonomy: AutonomyModerate},
	LevelCapability:  {name: "capability", primary: []Dimension{How}, autonomy: AutonomyLow},
	LevelBehavior:    {name: "behavior", primary: []Dimension{What}, autonomy: AutonomyVeryLow},
	LevelEnvironment: {name: "environment", primary: []Dimension{Where, When}, autonomy: AutonomyZero},
}

// Levels returns every ladder tier from ground to top.
func Levels() []Level {
	return []Level{
		LevelEnvironment,
		LevelBehavior,
		LevelCapability,
		LevelBeliefs,
		LevelIdentity,
		LevelMission,
	}
}

// ParseLevel resolves a tier by name or ordinal string.
func ParseLevel(raw string) (Level, error) {
	for lvl, entry := range ladder {
		if entry.name == raw {
			return lvl, nil
		}
	}
	var ordinal int
	if _, err := fmt.Sscanf(raw, "%d", &ordinal); err == nil {
		lvl := Level(ordinal)
		if lvl.Valid() {
			return lvl, nil
		}
	}
	return 0, fmt.Errorf("spec: unknown level %q", raw)
}

// Valid reports whether l is a ladder tier.
func (l Level) Valid() bool {
	_, ok := ladder[l]
	return ok
}

// Name returns the tier's human-readable name.
func (l Level) Name() string {
	return ladder[l].name
}

// String implements fmt.Stringer.
func (l Level) String() string {
	if entry, ok := ladder[l]; ok {
		return fmt.Sprintf("L%d/%s", int(l), entry.name)
	}
	return fmt.Sprintf("L%d/unknown", int(l))
}

// PrimaryDimensions returns the dimensions this tier naturally emphasizes.
// The returned slice is a copy; the ladder itself is immutable.
func (l Level) PrimaryDimensions() []Dimension {
	entry := ladder[l]
	out := make([]Dimension, len(entry.primary))
	copy(out, entry.primary)
	return out
}

// Autonomy returns the tier's autonomy class.
func (l Level) Autonomy() Autonomy {
	return ladder[l].autonomy
}

// IsGround reports whether l is the terminal execution tier.
func (l Level) IsGround() bool {
	return l == LevelEnvironment
}

// Below returns the next lower tier. ok is false at the ground tier.
func (l Level) Below() (Level, bool) {
	next := l - 1
	return next, next.Valid()
}

// Above returns the next higher tier. ok is false at the top tier.
func (l Level) Above() (Level, bool) {
	next := l + 1
	return next, next.Valid()
}
