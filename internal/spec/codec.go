package spec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// recordDTO is the on-disk shape of a record. The core owns no storage
// format; this codec exists only so producers and consumers can round-trip
// the record fields without loss.
type recordDTO struct {
	Subject    string             `yaml:"subject" json:"subject"`
	Predicate  string             `yaml:"predicate" json:"predicate"`
	Object     string             `yaml:"object" json:"object"`
	Kind       string             `yaml:"kind,omitempty" json:"kind,omitempty"`
	Level      string             `yaml:"level,omitempty" json:"level,omitempty"`
	Dimensions map[string]string  `yaml:"dimensions,omitempty" json:"dimensions,omitempty"`
	Confidence map[string]float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`
}

func (r *Record) toDTO() recordDTO {
	dto := recordDTO{
		Subject:   r.Subject,
		Predicate: r.Predicate,
		Object:    r.Object,
	}
	if r.kind != "" && r.kind != KindGeneric {
		dto.Kind = string(r.kind)
	}
	if r.level.Valid() {
		dto.Level = r.level.Name()
	}
	if len(r.dimensions) > 0 {
		dto.Dimensions = make(map[string]string, len(r.dimensions))
		for dim, value := range r.dimensions {
			dto.Dimensions[string(dim)] = value
		}
	}
	if len(r.confidence) > 0 {
		dto.Confidence = make(map[string]float64, len(r.confidence))
		for dim, score := range r.confidence {
			dto.Confidence[string(dim)] = score
		}
	}
	return dto
}

func recordFromDTO(dto recordDTO) (*Record, error) {
	kind := KindGeneric
	switch Kind(dto.Kind) {
	case "", KindGeneric:
	case KindCommit, KindFull:
		kind = Kind(dto.Kind)
	default:
		return nil, fmt.Errorf("spec: unknown record kind %q", dto.Kind)
	}
	rec := NewOfKind(kind, dto.Subject, dto.Predicate, dto.Object)
	if dto.Level != "" {
		level, err := ParseLevel(dto.Level)
		if err != nil {
			return nil, err
		}
		rec.AssignLevel(level)
	}
	for raw, value := range dto.Dimensions {
		dim, err := ParseDimension(raw)
		if err != nil {
			return nil, err
		}
		score := 1.0
		if explicit, ok := dto.Confidence[raw]; ok {
			score = explicit
		}
		if err := rec.SetWithConfidence(dim, value, score); err != nil {
			return nil, err
		}
	}
	for raw := range dto.Confidence {
		if _, ok := dto.Dimensions[raw]; !ok {
			return nil, fmt.Errorf("spec: confidence for unset dimension %q", raw)
		}
	}
	return rec, nil
}

// MarshalYAML implements yaml.Marshaler.
func (r *Record) MarshalYAML() (any, error) {
	return r.toDTO(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	var dto recordDTO
	if err := node.Decode(&dto); err != nil {
		return fmt.Errorf("spec: decode record: %w", err)
	}
	rec, err := recordFromDTO(dto)
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toDTO())
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var dto recordDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return fmt.Errorf("spec: decode record: %w", err)
	}
	rec, err := recordFromDTO(dto)
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}

// DecodeRecord parses a YAML (or JSON) record payload.
func DecodeRecord(data []byte) (*Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("spec: record payload is empty")
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
