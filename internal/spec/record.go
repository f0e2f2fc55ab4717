package spec

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrConfidenceOutOfRange is returned when a confidence score falls outside
// the closed interval [0, 1].
var ErrConfidenceOutOfRange = errors.New("spec: confidence must be in [0, 1]")

// Kind selects the required-dimension variant of a record. Completeness is
// always an explicit check, never an error raised by accessors.
type Kind string

const (
	// KindGeneric has no required dimensions.
	KindGeneric Kind = "generic"
	// KindCommit documents a change: purpose and method are required.
	KindCommit Kind = "commit"
	// KindFull is a full specification: actor, objective, and purpose.
	KindFull Kind = "full"
)

// RequiredDimensions returns the dimensions a record of this kind must carry
// with non-empty values before it counts as complete.
func (k Kind) RequiredDimensions() []Dimension {
	switch k {
	case KindCommit:
		return []Dimension{Why, How}
	case KindFull:
		return []Dimension{Who, What, Why}
	default:
		return nil
	}
}

// Record is a dimensionally-tagged description of an intent: a
// subject-predicate-object triple plus per-dimension values and confidence
// scores. Records are read-only by convention; derive variants with CopyWith
// instead of mutating a record other holders can see.
type Record struct {
	Subject   string
	Predicate string
	Object    string

	kind       Kind
	dimensions map[Dimension]string
	confidence map[Dimension]float64
	level      Level // zero means unassigned
}

// New builds a generic record with no dimensions set.
func New(subject, predicate, object string) *Record {
	return NewOfKind(KindGeneric, subject, predicate, object)
}

// NewOfKind builds a record of the given required-dimension variant.
func NewOfKind(kind Kind, subject, predicate, object string) *Record {
	return &Record{
		Subject:    subject,
		Predicate:  predicate,
		Object:     object,
		kind:       kind,
		dimensions: map[Dimension]string{},
		confidence: map[Dimension]float64{},
	}
}

// Kind returns the record's required-dimension variant.
func (r *Record) Kind() Kind {
	return r.kind
}

// Has reports whether the dimension carries a value.
func (r *Record) Has(dim Dimension) bool {
	_, ok := r.dimensions[dim]
	return ok
}

// Need fetches a dimension on demand. A missing dimension is reported via
// ok=false, never an error; required-dimension enforcement lives in
// IsComplete.
func (r *Record) Need(dim Dimension) (string, bool) {
	value, ok := r.dimensions[dim]
	return value, ok
}

// Set stores a dimension value with full confidence.
func (r *Record) Set(dim Dimension, value string) {
	r.dimensions[dim] = value
	r.confidence[dim] = 1.0
}

// SetWithConfidence stores a dimension value with an explicit confidence
// score. Both the value and confidence mappings are updated together so the
// record invariant (identical key sets) holds.
func (r *Record) SetWithConfidence(dim Dimension, value string, confidence float64) error {
	if math.IsNaN(confidence) || confidence < 0.0 || confidence > 1.0 {
		return fmt.Errorf("%w: got %v for %s", ErrConfidenceOutOfRange, confidence, dim)
	}
	r.dimensions[dim] = value
	r.confidence[dim] = confidence
	return nil
}

// Confidence returns the score recorded for a dimension, or 0 when the
// dimension is unset.
func (r *Record) Confidence(dim Dimension) float64 {
	return r.confidence[dim]
}

// Dimensions returns a copy of the dimension-value mapping.
func (r *Record) Dimensions() map[Dimension]string {
	out := make(map[Dimension]string, len(r.dimensions))
	for dim, value := range r.dimensions {
		out[dim] = value
	}
	return out
}

// SharedDimensions returns the dimensions set on both records, sorted for
// deterministic iteration. Values are not compared, only presence.
func (r *Record) SharedDimensions(other *Record) []Dimension {
	if other == nil {
		return nil
	}
	var shared []Dimension
	for dim := range r.dimensions {
		if _, ok := other.dimensions[dim]; ok {
			shared = append(shared, dim)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })
	return shared
}

// SameSystem reports whether two records overlap on at least one dimension.
// This is a loose clustering relation, not equality.
func (r *Record) SameSystem(other *Record) bool {
	return len(r.SharedDimensions(other)) > 0
}

// Level returns the ladder tier assigned to this record; ok is false when no
// tier has been assigned.
func (r *Record) Level() (Level, bool) {
	return r.level, r.level.Valid()
}

// AssignLevel tags the record with a ladder tier.
func (r *Record) AssignLevel(level Level) {
	r.level = level
}

// IsComplete reports whether every dimension required by the record's kind
// carries a non-empty value.
func (r *Record) IsComplete() bool {
	return len(r.MissingDimensions()) == 0
}

// MissingDimensions lists the required dimensions that are absent or empty.
func (r *Record) MissingDimensions() []Dimension {
	var missing []Dimension
	for _, dim := range r.kind.RequiredDimensions() {
		if value, ok := r.dimensions[dim]; !ok || value == "" {
			missing = append(missing, dim)
		}
	}
	return missing
}

// Overrides selectively replaces record fields during CopyWith. Nil pointer
// fields keep the original value; a non-nil Dimensions or Confidence map
// replaces the whole mapping.
type Overrides struct {
	Subject    *string
	Predicate  *string
	Object     *string
	Kind       *Kind
	Level      *Level
	Dimensions map[Dimension]string
	Confidence map[Dimension]float64
}

// CopyWith returns a new record with the given overrides applied. The
// original record is never modified; CopyWith with zero overrides is a
// structural round trip.
func (r *Record) CopyWith(ov Overrides) *Record {
	clone := &Record{
		Subject:    r.Subject,
		Predicate:  r.Predicate,
		Object:     r.Object,
		kind:       r.kind,
		level:      r.level,
		dimensions: make(map[Dimension]string, len(r.dimensions)),
		confidence: make(map[Dimension]float64, len(r.confidence)),
	}
	for dim, value := range r.dimensions {
		clone.dimensions[dim] = value
	}
	for dim, score := range r.confidence {
		clone.confidence[dim] = score
	}
	if ov.Subject != nil {
		clone.Subject = *ov.Subject
	}
	if ov.Predicate != nil {
		clone.Predicate = *ov.Predicate
	}
	if ov.Object != nil {
		clone.Object = *ov.Object
	}
	if ov.Kind != nil {
		clone.kind = *ov.Kind
	}
	if ov.Level != nil {
		clone.level = *ov.Level
	}
	if ov.Dimensions != nil {
		clone.dimensions = make(map[Dimension]string, len(ov.Dimensions))
		for dim, value := range ov.Dimensions {
			clone.dimensions[dim] = value
		}
	}
	if ov.Confidence != nil {
		clone.confidence = make(map[Dimension]float64, len(ov.Confidence))
		for dim, score := range ov.Confidence {
			clone.confidence[dim] = score
		}
	}
	clone.reconcile()
	return clone
}

// reconcile restores the shared-key invariant between the value and
// confidence mappings after a wholesale map replacement: values without a
// score default to full confidence, scores without a value are dropped.
func (r *Record) reconcile() {
	for dim := range r.dimensions {
		if _, ok := r.confidence[dim]; !ok {
			r.confidence[dim] = 1.0
		}
	}
	for dim := range r.confidence {
		if _, ok := r.dimensions[dim]; !ok {
			delete(r.confidence, dim)
		}
	}
}
