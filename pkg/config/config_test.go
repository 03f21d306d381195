package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Input.ActivityColumn != "concept:name" {
		t.Errorf("activity column = %q", cfg.Input.ActivityColumn)
	}
	if cfg.Input.TimestampColumn != "time:timestamp" {
		t.Errorf("timestamp column = %q", cfg.Input.TimestampColumn)
	}
	if cfg.Input.Entities["case"] != "case:concept:name" {
		t.Errorf("case column = %q", cfg.Input.Entities["case"])
	}
	if cfg.Build.ErrorPolicy != "skip" {
		t.Errorf("error policy = %q", cfg.Build.ErrorPolicy)
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry enabled by default")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
version: 1
input:
  activity_column: action
  entities:
    application: application_id
    offer: offer_id
graph:
  reifications:
    - label: AO
      parts: [application, offer]
  dimensions:
    - name: activity
      source: activity
build:
  error_policy: strict
  workers: 4
`)

	m := NewManager()
	if err := m.LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := m.Get()

	if cfg.Input.ActivityColumn != "action" {
		t.Errorf("activity column = %q", cfg.Input.ActivityColumn)
	}
	// Untouched defaults survive the merge.
	if cfg.Input.TimestampColumn != "time:timestamp" {
		t.Errorf("timestamp column = %q", cfg.Input.TimestampColumn)
	}
	if cfg.Input.Entities["offer"] != "offer_id" {
		t.Errorf("entities = %v", cfg.Input.Entities)
	}
	if cfg.Build.ErrorPolicy != "strict" || cfg.Build.Workers != 4 {
		t.Errorf("build = %+v", cfg.Build)
	}
	if len(m.Paths()) != 1 {
		t.Errorf("paths = %v", m.Paths())
	}
}

func TestLoadFileMalformedYAML(t *testing.T) {
	path := writeConfig(t, "input: [not, a, map\n")
	if err := NewManager().LoadFile(path); err == nil {
		t.Fatal("malformed YAML accepted")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MEPG_ERROR_POLICY", "strict")
	t.Setenv("MEPG_OTLP_ENDPOINT", "collector:4317")

	m := NewManager()
	if err := m.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := m.Get()
	if cfg.Build.ErrorPolicy != "strict" {
		t.Errorf("error policy = %q", cfg.Build.ErrorPolicy)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint != "collector:4317" {
		t.Errorf("telemetry = %+v", cfg.Telemetry)
	}
}

func TestParserConfig(t *testing.T) {
	cfg := Default()
	cfg.Input.Delimiter = ";"
	cfg.Input.Entities = map[string]string{"case": "case_id"}

	pc := cfg.ParserConfig()
	if pc.Delimiter != ';' {
		t.Errorf("delimiter = %q", pc.Delimiter)
	}
	if pc.EntityColumns["case"] != "case_id" {
		t.Errorf("entity columns = %v", pc.EntityColumns)
	}
	if pc.ActivityColumn != "concept:name" {
		t.Errorf("activity column = %q", pc.ActivityColumn)
	}
}

func TestGraphSpecFromConfig(t *testing.T) {
	cfg := Default()
	cfg.Input.Entities = map[string]string{
		"offer":       "offer_id",
		"application": "application_id",
	}
	cfg.Graph.Reifications = []ReificationConfig{
		{Label: "AO", Parts: []string{"application", "offer"}},
	}
	cfg.Graph.Dimensions = []DimensionConfig{
		{Name: "activity", Source: "activity"},
		{Name: "by_offer", Source: "entity:offer"},
		{Name: "priority", Source: "attr:priority"},
	}

	spec, err := cfg.GraphSpec()
	if err != nil {
		t.Fatalf("graph spec: %v", err)
	}

	// Extractor order is sorted by type name for determinism.
	if spec.Extractors[0].Type != "application" || spec.Extractors[1].Type != "offer" {
		t.Errorf("extractor order: %s, %s", spec.Extractors[0].Type, spec.Extractors[1].Type)
	}
	if len(spec.Reifications) != 1 || spec.Reifications[0].Label != "AO" {
		t.Errorf("reifications = %+v", spec.Reifications)
	}
	if len(spec.Dimensions) != 3 {
		t.Errorf("dimensions = %d, want 3", len(spec.Dimensions))
	}
}

func TestGraphSpecRejectsUnknownConstituent(t *testing.T) {
	cfg := Default()
	cfg.Input.Entities = map[string]string{"case": "case_id"}
	cfg.Graph.Reifications = []ReificationConfig{
		{Label: "X", Parts: []string{"case", "ghost"}},
	}

	if _, err := cfg.GraphSpec(); err == nil {
		t.Fatal("unknown constituent accepted")
	}
}

func TestGraphSpecRejectsUnknownDimensionSource(t *testing.T) {
	cfg := Default()
	cfg.Graph.Dimensions = []DimensionConfig{{Name: "x", Source: "wavelength"}}

	if _, err := cfg.GraphSpec(); err == nil {
		t.Fatal("unknown dimension source accepted")
	}
}
