// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mepg/mepg/pkg/graph"
	"github.com/mepg/mepg/pkg/parser"
)

// Config holds all mepg configuration.
type Config struct {
	Version int `yaml:"version"`

	Input     InputConfig     `yaml:"input"`
	Graph     GraphConfig     `yaml:"graph"`
	Build     BuildConfig     `yaml:"build"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// InputConfig declares how source columns map to event fields.
type InputConfig struct {
	Format          string            `yaml:"format"` // csv | jsonl | "" = detect
	IDColumn        string            `yaml:"id_column"`
	ActivityColumn  string            `yaml:"activity_column"`
	TimestampColumn string            `yaml:"timestamp_column"`
	TimestampLayout string            `yaml:"timestamp_layout"`
	Delimiter       string            `yaml:"delimiter"`
	Entities        map[string]string `yaml:"entities"` // entity type -> column
}

// ReificationConfig declares one compound entity type.
type ReificationConfig struct {
	Label string   `yaml:"label"`
	Parts []string `yaml:"parts"`
}

// DimensionConfig declares one classification dimension.
// Source is "activity", "entity:<type>" or "attr:<column>".
type DimensionConfig struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

// GraphConfig declares the construction spec.
type GraphConfig struct {
	Reifications []ReificationConfig `yaml:"reifications"`
	Dimensions   []DimensionConfig   `yaml:"dimensions"`
}

// BuildConfig controls the build run.
type BuildConfig struct {
	ErrorPolicy string `yaml:"error_policy"` // skip | strict
	Workers     int    `yaml:"workers"`      // 0 = auto
}

// TelemetryConfig for optional tracing.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Input: InputConfig{
			IDColumn:        "event_id",
			ActivityColumn:  "concept:name",
			TimestampColumn: "time:timestamp",
			Delimiter:       ",",
			Entities: map[string]string{
				"case":     "case:concept:name",
				"resource": "org:resource",
			},
		},
		Graph: GraphConfig{
			Dimensions: []DimensionConfig{
				{Name: "activity", Source: "activity"},
			},
		},
		Build: BuildConfig{
			ErrorPolicy: "skip",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{config: Default()}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = Default()

	for _, path := range m.configPaths() {
		if err := m.loadFile(path); err != nil {
			if !os.IsNotExist(err) {
				return err
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	m.loadEnv()
	return nil
}

// LoadFile merges a single explicit config file over the defaults.
func (m *Manager) LoadFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.loadFile(path); err != nil {
		return err
	}
	m.paths = append(m.paths, path)
	return nil
}

// configPaths returns config file paths in priority order.
func (m *Manager) configPaths() []string {
	var paths []string

	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/mepg/config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".mepg", "config.yaml"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".mepg.yaml"))
	}

	return paths
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into config.
func (m *Manager) merge(src *Config) {
	if src.Input.Format != "" {
		m.config.Input.Format = src.Input.Format
	}
	if src.Input.IDColumn != "" {
		m.config.Input.IDColumn = src.Input.IDColumn
	}
	if src.Input.ActivityColumn != "" {
		m.config.Input.ActivityColumn = src.Input.ActivityColumn
	}
	if src.Input.TimestampColumn != "" {
		m.config.Input.TimestampColumn = src.Input.TimestampColumn
	}
	if src.Input.TimestampLayout != "" {
		m.config.Input.TimestampLayout = src.Input.TimestampLayout
	}
	if src.Input.Delimiter != "" {
		m.config.Input.Delimiter = src.Input.Delimiter
	}
	if len(src.Input.Entities) > 0 {
		m.config.Input.Entities = src.Input.Entities
	}
	if len(src.Graph.Reifications) > 0 {
		m.config.Graph.Reifications = src.Graph.Reifications
	}
	if len(src.Graph.Dimensions) > 0 {
		m.config.Graph.Dimensions = src.Graph.Dimensions
	}
	if src.Build.ErrorPolicy != "" {
		m.config.Build.ErrorPolicy = src.Build.ErrorPolicy
	}
	if src.Build.Workers != 0 {
		m.config.Build.Workers = src.Build.Workers
	}
	if src.Telemetry.Enabled {
		m.config.Telemetry = src.Telemetry
	}
}

// loadEnv loads configuration overrides from environment variables.
func (m *Manager) loadEnv() {
	if v := os.Getenv("MEPG_FORMAT"); v != "" {
		m.config.Input.Format = v
	}
	if v := os.Getenv("MEPG_ERROR_POLICY"); v != "" {
		m.config.Build.ErrorPolicy = v
	}
	if v := os.Getenv("MEPG_OTLP_ENDPOINT"); v != "" {
		m.config.Telemetry.Enabled = true
		m.config.Telemetry.Endpoint = v
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Paths returns the config files that were loaded.
func (m *Manager) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// ParserConfig converts the input section to a parser configuration.
func (c *Config) ParserConfig() parser.Config {
	pc := parser.DefaultConfig()
	pc.IDColumn = c.Input.IDColumn
	pc.ActivityColumn = c.Input.ActivityColumn
	pc.TimestampColumn = c.Input.TimestampColumn
	pc.EntityColumns = c.Input.Entities
	if c.Input.Delimiter != "" {
		pc.Delimiter = c.Input.Delimiter[0]
	}
	return pc
}

// GraphSpec converts the graph section to a validated construction
// spec. Extractors are derived from the declared entity columns.
func (c *Config) GraphSpec() (graph.Spec, error) {
	spec := graph.Spec{}

	// Deterministic extractor order: sorted by type name.
	types := make([]string, 0, len(c.Input.Entities))
	for t := range c.Input.Entities {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		spec.Extractors = append(spec.Extractors, graph.KeyExtractor(t))
	}

	for _, r := range c.Graph.Reifications {
		spec.Reifications = append(spec.Reifications, graph.Reification{
			Label: r.Label,
			Parts: r.Parts,
		})
	}

	for _, d := range c.Graph.Dimensions {
		dim, err := dimensionFromConfig(d)
		if err != nil {
			return graph.Spec{}, err
		}
		spec.Dimensions = append(spec.Dimensions, dim)
	}

	if err := spec.Validate(); err != nil {
		return graph.Spec{}, err
	}
	return spec, nil
}

// dimensionFromConfig resolves a dimension source declaration.
func dimensionFromConfig(d DimensionConfig) (graph.Dimension, error) {
	switch {
	case d.Source == "activity":
		dim := graph.ActivityDimension()
		if d.Name != "" {
			dim.Name = d.Name
		}
		return dim, nil
	case strings.HasPrefix(d.Source, "entity:"):
		return graph.EntityKeyDimension(d.Name, strings.TrimPrefix(d.Source, "entity:")), nil
	case strings.HasPrefix(d.Source, "attr:"):
		return graph.AttrDimension(d.Name, strings.TrimPrefix(d.Source, "attr:")), nil
	default:
		return graph.Dimension{}, fmt.Errorf("config: unknown dimension source %q", d.Source)
	}
}
