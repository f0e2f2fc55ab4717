// Package walker implements the delegation engine: a tree of execution
// nodes that carries purpose down a six-tier ladder. Each node inherits its
// parent's objective as its own motivating purpose, delegates one tier
// down until the ground tier performs concrete action, and can explore a
// portfolio of candidate objectives whose outcomes are validated before a
// winner is selected.
package walker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/reedfield/strata/internal/spec"
)

// GroundExecutor performs the concrete action at the ground tier. The
// engine hands it the objective and purpose tags and treats the returned
// value as opaque; only Validate interprets it.
type GroundExecutor interface {
	Execute(objective, purpose string) (any, error)
}

// GroundFunc adapts a function into a GroundExecutor.
type GroundFunc func(objective, purpose string) (any, error)

// Execute runs f(objective, purpose).
func (f GroundFunc) Execute(objective, purpose string) (any, error) {
	if f == nil {
		return nil, fmt.Errorf("walker: nil ground executor")
	}
	return f(objective, purpose)
}

// AnnounceGround is a trivial ground executor that narrates the action it
// was asked to perform. It keeps the engine exercisable without a
// domain-specific executor.
var AnnounceGround = GroundFunc(func(objective, purpose string) (any, error) {
	if purpose == "" {
		return fmt.Sprintf("executed: %s", objective), nil
	}
	return fmt.Sprintf("executed: %s (because: %s)", objective, purpose), nil
})

// CandidateOutcome records one portfolio candidate for error reporting and
// provenance inspection.
type CandidateOutcome struct {
	Index      int
	Objective  string
	Result     any
	Err        error
	Validation Validation
}

// RejectedError is returned by ExecutePortfolio when no candidate passed
// validation. Individual candidate failures are captured here rather than
// propagated directly.
type RejectedError struct {
	Candidates []CandidateOutcome
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	return fmt.Sprintf("walker: all %d strategies rejected", len(e.Candidates))
}

// Walker is one node of the delegation tree. It owns its workspace and its
// children; the parent pointer is a non-owning back-reference used only
// for upward lookups such as purpose inheritance and provenance tracing.
type Walker struct {
	id        string
	level     spec.Level
	parent    *Walker
	children  []*Walker
	workspace *Workspace
	context   map[spec.Dimension]string
	current   *spec.Record
	policy    Policy
	policies  PolicySelector
	ground    GroundExecutor
	descend   DescendFunc
}

// DescendFunc executes a spawned child with its derived record. The default
// descends via child.Traverse; the session layer interposes here to give
// every child its own lifecycle task.
type DescendFunc func(child *Walker, rec *spec.Record) (any, error)

// PolicySelector chooses a policy for a ladder tier. It lets configuration
// assign different strategy/validation behavior per tier; nil selections
// fall back to the walker's own policy.
type PolicySelector func(level spec.Level) Policy

// Option customizes walker construction.
type Option func(*Walker)

// WithParent attaches the new walker beneath parent. The propagation
// invariant applies: if the parent's current record carries an objective,
// it becomes this walker's purpose before any other context.
func WithParent(parent *Walker) Option {
	return func(w *Walker) {
		w.parent = parent
	}
}

// WithPolicy sets the strategy/validation policy for this walker and, by
// inheritance, its children.
func WithPolicy(policy Policy) Option {
	return func(w *Walker) {
		if policy != nil {
			w.policy = policy
		}
	}
}

// WithPolicySelector installs a per-tier policy chooser.
func WithPolicySelector(selector PolicySelector) Option {
	return func(w *Walker) {
		w.policies = selector
	}
}

// WithDescender overrides how spawned children are executed.
func WithDescender(fn DescendFunc) Option {
	return func(w *Walker) {
		w.descend = fn
	}
}

// WithGround injects the ground-tier executor.
func WithGround(ground GroundExecutor) Option {
	return func(w *Walker) {
		w.ground = ground
	}
}

// New constructs a walker at the given ladder tier.
func New(level spec.Level, opts ...Option) (*Walker, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("walker: invalid level %d", int(level))
	}
	w := &Walker{
		id:        fmt.Sprintf("walker-L%d-%s", int(level), uuid.NewString()[:8]),
		level:     level,
		workspace: NewWorkspace(),
		context:   map[spec.Dimension]string{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.parent != nil {
		// Inherit policy machinery from the parent unless overridden.
		if w.policy == nil {
			w.policy = w.parent.policy
		}
		if w.policies == nil {
			w.policies = w.parent.policies
		}
		if w.ground == nil {
			w.ground = w.parent.ground
		}
		if w.descend == nil {
			w.descend = w.parent.descend
		}
		// The propagation invariant: the parent's objective becomes this
		// walker's purpose. This is the only mechanism by which purpose
		// crosses a delegation boundary.
		if w.parent.current != nil {
			if what, ok := w.parent.current.Need(spec.What); ok && what != "" {
				w.context[spec.Why] = what
			}
		}
	}
	if w.policy == nil {
		w.policy = DefaultPolicy()
	}
	if selector := w.policies; selector != nil {
		if chosen := selector(level); chosen != nil {
			w.policy = chosen
		}
	}
	return w, nil
}

// ID returns the walker identifier.
func (w *Walker) ID() string { return w.id }

// Level returns the walker's ladder tier.
func (w *Walker) Level() spec.Level { return w.level }

// Parent returns the parent walker, or nil at the root.
func (w *Walker) Parent() *Walker { return w.parent }

// Children returns a snapshot of the walker's children in spawn order.
func (w *Walker) Children() []*Walker {
	out := make([]*Walker, len(w.children))
	copy(out, w.children)
	return out
}

// Workspace returns the walker's private scratch store.
func (w *Walker) Workspace() *Workspace { return w.workspace }

// Current returns the record the walker is acting on, or nil before the
// first traversal.
func (w *Walker) Current() *spec.Record { return w.current }

// Context returns a dimensional context value.
func (w *Walker) Context(dim spec.Dimension) (string, bool) {
	value, ok := w.context[dim]
	return value, ok
}

// AddContext appends a dimensional context value. Context is append-only
// during the walker's active lifetime.
func (w *Walker) AddContext(dim spec.Dimension, value string) {
	w.context[dim] = value
}

// Traverse walks the record down the ladder. At the ground tier the
// injected executor performs the concrete action; above it, exactly one
// child is spawned one tier down with a derived record (purpose = this
// walker's objective, objective = a single generated strategy) and the
// child's result bubbles back up.
func (w *Walker) Traverse(rec *spec.Record) (any, error) {
	if rec == nil {
		return nil, fmt.Errorf("walker: record is required")
	}
	w.adopt(rec)

	if w.level.IsGround() {
		if w.ground == nil {
			return nil, fmt.Errorf("walker: no ground executor at %s", w.level)
		}
		objective, _ := rec.Need(spec.What)
		purpose, _ := rec.Need(spec.Why)
		result, err := w.ground.Execute(objective, purpose)
		if err != nil {
			return nil, fmt.Errorf("walker: ground action failed: %w", err)
		}
		return result, nil
	}

	strategies := w.policy.GenerateStrategies(rec, 1)
	if len(strategies) == 0 {
		return nil, fmt.Errorf("walker: policy produced no strategy at %s", w.level)
	}
	child, childRec, err := w.spawn(rec, strategies[0])
	if err != nil {
		return nil, err
	}
	return w.descendInto(child, childRec)
}

// descendInto executes a spawned child, honoring any installed descender.
func (w *Walker) descendInto(child *Walker, rec *spec.Record) (any, error) {
	if w.descend != nil {
		return w.descend(child, rec)
	}
	return child.Traverse(rec)
}

// Spawn pairs a child walker with the record derived for it.
type Spawn struct {
	Child  *Walker
	Record *spec.Record
}

// SpawnChildren constructs n children one tier down, each with a derived
// record whose objective is the i-th generated strategy and whose purpose
// is this walker's objective. Nothing is executed and base is not mutated.
func (w *Walker) SpawnChildren(n int, base *spec.Record) ([]Spawn, error) {
	if base == nil {
		return nil, fmt.Errorf("walker: record is required")
	}
	if n <= 0 {
		return nil, fmt.Errorf("walker: candidate count must be positive, got %d", n)
	}
	if w.level.IsGround() {
		return nil, fmt.Errorf("walker: cannot delegate below %s", w.level)
	}
	strategies := w.policy.GenerateStrategies(base, n)
	if len(strategies) < n {
		return nil, fmt.Errorf("walker: policy produced %d strategies, want %d", len(strategies), n)
	}
	spawns := make([]Spawn, 0, n)
	for i := 0; i < n; i++ {
		child, childRec, err := w.spawn(base, strategies[i])
		if err != nil {
			return nil, err
		}
		spawns = append(spawns, Spawn{Child: child, Record: childRec})
	}
	return spawns, nil
}

// spawn creates one attached child a tier down and derives its record.
func (w *Walker) spawn(base *spec.Record, strategy string) (*Walker, *spec.Record, error) {
	below, ok := w.level.Below()
	if !ok {
		return nil, nil, fmt.Errorf("walker: cannot delegate below %s", w.level)
	}
	child, err := New(below, WithParent(w))
	if err != nil {
		return nil, nil, err
	}
	w.children = append(w.children, child)

	dims := base.Dimensions()
	if what, ok := w.context[spec.What]; ok && what != "" {
		dims[spec.Why] = what
	}
	dims[spec.What] = strategy
	childRec := base.CopyWith(spec.Overrides{
		Dimensions: dims,
		Level:      &below,
	})
	return child, childRec, nil
}

// ExecutePortfolio explores n candidate strategies, validates every
// outcome once all have finished, and returns the passing result with the
// strictly highest score; ties are broken by lowest spawn index. When no
// candidate passes, a *RejectedError carrying every outcome is returned.
// Attempted children stay attached for provenance tracing either way.
func (w *Walker) ExecutePortfolio(rec *spec.Record, n int) (any, error) {
	if rec == nil {
		return nil, fmt.Errorf("walker: record is required")
	}
	w.adopt(rec)

	spawns, err := w.SpawnChildren(n, rec)
	if err != nil {
		return nil, err
	}

	// Every candidate runs to completion before any selection happens, so
	// the ordering and tie-break rules hold regardless of execution order.
	outcomes := make([]CandidateOutcome, len(spawns))
	for i, sp := range spawns {
		objective, _ := sp.Record.Need(spec.What)
		outcome := CandidateOutcome{Index: i, Objective: objective}
		result, err := w.descendInto(sp.Child, sp.Record)
		if errors.Is(err, ErrInterrupted) {
			return nil, err
		}
		if err != nil {
			outcome.Err = err
			outcome.Validation = Validation{Details: err.Error()}
		} else {
			outcome.Result = result
			outcome.Validation = w.policy.Validate(result)
		}
		outcomes[i] = outcome
	}

	best := -1
	for i, outcome := range outcomes {
		if !outcome.Validation.Passed {
			continue
		}
		if best < 0 || outcome.Validation.Score > outcomes[best].Validation.Score {
			best = i
		}
	}
	if best < 0 {
		return nil, &RejectedError{Candidates: outcomes}
	}
	return outcomes[best].Result, nil
}

// TraceProvenance collects the objective chain from the root down to this
// walker, answering "why does this action exist". The returned slice is
// computed eagerly; index zero is the root's objective.
func (w *Walker) TraceProvenance() []string {
	var reversed []string
	for node := w; node != nil; node = node.parent {
		if what, ok := node.context[spec.What]; ok && what != "" {
			reversed = append(reversed, what)
		}
	}
	chain := make([]string, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		chain = append(chain, reversed[i])
	}
	return chain
}

// Release clears the walker's workspace and recursively releases its
// children. The parent keeps owning the subtree until it is released or
// dropped; Release only makes the cleanup eager instead of leaving it to
// the garbage collector.
func (w *Walker) Release() {
	for _, child := range w.children {
		child.Release()
	}
	w.children = nil
	w.workspace.Clear()
	w.current = nil
}

// adopt installs the record as current and mirrors its objective into the
// walker's context.
func (w *Walker) adopt(rec *spec.Record) {
	w.current = rec
	if what, ok := rec.Need(spec.What); ok && what != "" {
		w.context[spec.What] = what
	}
}
