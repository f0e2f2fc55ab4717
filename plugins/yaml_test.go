package plugins

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleDefinition = `id: growth
version: 1.0.0
name: Growth Strategies
levels:
  - mission
strategies:
  templates:
    - through organic growth
    - through acquisition
  fallback: grow the business
validation:
  require:
    - "(because:"
  pass_score: 0.6
`

func TestParseDefinitionYAML(t *testing.T) {
	def, err := ParseDefinitionYAML([]byte(sampleDefinition))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.ID != "growth" || len(def.Strategies.Templates) != 2 {
		t.Fatalf("unexpected definition: %+v", def)
	}
	if def.Validation.PassScore != 0.6 {
		t.Fatalf("pass_score = %v", def.Validation.PassScore)
	}
}

func TestParseDefinitionYAMLErrors(t *testing.T) {
	if _, err := ParseDefinitionYAML([]byte("")); err == nil {
		t.Fatalf("expected empty payload to fail validation")
	}
}

func TestLoadDefinitionDir(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "plugin.yaml")
	if err := os.WriteFile(path, []byte(sampleDefinition), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	defs, err := LoadDefinitionDir(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	if defs[0].Path != path {
		t.Fatalf("expected path %s, got %s", path, defs[0].Path)
	}
	if defs[0].Definition.ID != "growth" {
		t.Fatalf("unexpected id: %+v", defs[0].Definition)
	}
}

func TestLoadDefinitionDirMissing(t *testing.T) {
	defs, err := LoadDefinitionDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if defs != nil {
		t.Fatalf("expected nil slice for missing dir, got %v", defs)
	}
}
