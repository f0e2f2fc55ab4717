package spec

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestRecordYAMLRoundTrip(t *testing.T) {
	rec := NewOfKind(KindFull, "system", "provides", "auth")
	rec.Set(Who, "end users")
	if err := rec.SetWithConfidence(What, "secure login", 0.6); err != nil {
		t.Fatalf("set: %v", err)
	}
	rec.Set(Why, "protect user data")
	rec.AssignLevel(LevelCapability)

	data, err := yaml.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Subject != "system" || decoded.Predicate != "provides" || decoded.Object != "auth" {
		t.Fatalf("triple lost in round trip: %+v", decoded)
	}
	if decoded.Kind() != KindFull {
		t.Fatalf("kind lost: %s", decoded.Kind())
	}
	if value, _ := decoded.Need(What); value != "secure login" {
		t.Fatalf("dimension lost: %q", value)
	}
	if got := decoded.Confidence(What); got != 0.6 {
		t.Fatalf("confidence lost: %v", got)
	}
	if got := decoded.Confidence(Who); got != 1.0 {
		t.Fatalf("implicit confidence lost: %v", got)
	}
	level, ok := decoded.Level()
	if !ok || level != LevelCapability {
		t.Fatalf("level lost: %s ok=%v", level, ok)
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	rec := New("dev", "ships", "feature")
	rec.Set(What, "ship feature")

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if value, _ := decoded.Need(What); value != "ship feature" {
		t.Fatalf("dimension lost: %q", value)
	}
}

func TestDecodeRecordRejectsBadPayloads(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{name: "empty", yaml: "   "},
		{name: "unknown-dimension", yaml: "subject: a\npredicate: b\nobject: c\ndimensions:\n  whither: nowhere\n"},
		{name: "unknown-kind", yaml: "subject: a\npredicate: b\nobject: c\nkind: partial\n"},
		{name: "unknown-level", yaml: "subject: a\npredicate: b\nobject: c\nlevel: cosmic\n"},
		{name: "orphan-confidence", yaml: "subject: a\npredicate: b\nobject: c\nconfidence:\n  what: 0.5\n"},
		{name: "confidence-out-of-range", yaml: "subject: a\npredicate: b\nobject: c\ndimensions:\n  what: x\nconfidence:\n  what: 1.5\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeRecord([]byte(tc.yaml)); err == nil {
				t.Fatalf("expected decode error")
			}
		})
	}
}
