// internal/config/config.go
//
// This package handles configuration and the .sampler directory structure.
// Every directory the sampler runs in gets a .sampler/ folder holding the
// project config, logs and exported reports.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/tree-sampler/internal/catalog"
)

const (
	// SamplerDir is the name of the directory we create in each project
	SamplerDir = ".sampler"

	configFileName = "config.yaml"
)

const defaultProjectConfigYAML = `# tree sampler project configuration
version: 1

# Demo garden catalog. seed: 0 picks a new seed every run; any other value
# reproduces the same gardens and the same auto-selections.
catalog:
  plots: 20
  seed: 0
  areas: [North, South]
  age_buckets: ["0-5", "6-10", "11-15"]
  area_ha:
    min: 1.0
    max: 5.0

# Ideal number of gardens to sample per area and age bucket.
# Combinations not listed here have an ideal sample size of 0.
sample_sizes:
  North: {"0-5": 3, "6-10": 2, "11-15": 1}
  South: {"0-5": 2, "6-10": 3, "11-15": 2}

# Trees measured per hectare of garden (rounded half to even).
# Omitting it or setting 0 uses the default of 10; negative values are rejected.
tree_density: 10

measurements:
  # true rejects height/yield text that is not a non-negative number
  strict: false

report:
  dir: .sampler/reports
`

// CatalogConfig configures the demo plot generator.
type CatalogConfig struct {
	Plots      int                 `yaml:"plots"`
	Seed       uint64              `yaml:"seed"`
	Areas      []catalog.Area      `yaml:"areas"`
	AgeBuckets []catalog.AgeBucket `yaml:"age_buckets"`
	AreaHa     catalog.Range       `yaml:"area_ha"`
}

// MeasurementConfig controls step 4 validation.
type MeasurementConfig struct {
	Strict bool `yaml:"strict"`
}

// ReportConfig controls where CSV exports land.
type ReportConfig struct {
	Dir string `yaml:"dir"`
}

// ProjectConfig models .sampler/config.yaml.
type ProjectConfig struct {
	Version      int               `yaml:"version"`
	Catalog      CatalogConfig     `yaml:"catalog"`
	SampleSizes  catalog.SizeTable `yaml:"sample_sizes"`
	TreeDensity  float64           `yaml:"tree_density"`
	Measurements MeasurementConfig `yaml:"measurements"`
	Report       ReportConfig      `yaml:"report"`
}

// Config holds the runtime configuration for the sampler.
type Config struct {
	// ProjectDir is the directory where the user ran `sampler` from
	ProjectDir string

	// SamplerProjectDir is ProjectDir/.sampler
	SamplerProjectDir string

	// path overrides the config file location (--config)
	path string

	Project ProjectConfig
}

// InitSamplerDir creates the .sampler directory structure in the given
// project directory and writes a commented default config if none exists.
//
// Structure created:
// .sampler/
// ├── config.yaml
// ├── logs/       <- sampler.log (diagnostics) and journey.log (journal)
// └── reports/    <- tree_sampling_report.csv exports
func InitSamplerDir(projectDir string) error {
	samplerDir := filepath.Join(projectDir, SamplerDir)
	dirs := []string{
		filepath.Join(samplerDir, "logs"),
		filepath.Join(samplerDir, "reports"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(samplerDir, configFileName))
}

// NewConfig loads the project config for projectDir. configPath, when not
// empty, replaces .sampler/config.yaml as the file to read.
func NewConfig(projectDir, configPath string) (*Config, error) {
	cfg := &Config{
		ProjectDir:        projectDir,
		SamplerProjectDir: filepath.Join(projectDir, SamplerDir),
		path:              strings.TrimSpace(configPath),
		Project:           DefaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.SamplerProjectDir, "logs")
}

// JournalPath returns the operator journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journey.log")
}

// ReportDir returns the directory CSV exports are written to.
func (c *Config) ReportDir() string {
	return c.Project.Report.Dir
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	if c.path != "" {
		return c.path
	}
	return filepath.Join(c.SamplerProjectDir, configFileName)
}

// GenerateOptions converts the catalog block into generator options.
func (c *Config) GenerateOptions() catalog.GenerateOptions {
	return catalog.GenerateOptions{
		Count:      c.Project.Catalog.Plots,
		Areas:      append([]catalog.Area(nil), c.Project.Catalog.Areas...),
		AgeBuckets: append([]catalog.AgeBucket(nil), c.Project.Catalog.AgeBuckets...),
		AreaHa:     c.Project.Catalog.AreaHa,
	}
}

// SizeTable returns a copy of the configured sample sizes.
func (c *Config) SizeTable() catalog.SizeTable {
	return c.Project.SampleSizes.Clone()
}

// Seed returns the configured seed; 0 means "pick one".
func (c *Config) Seed() uint64 {
	return c.Project.Catalog.Seed
}

// SetSeed pins the catalog seed and persists it so the next run reproduces
// the same gardens. Only catalog.seed changes on disk: flag overrides held in
// memory, comments and relative paths in the file are left alone.
func (c *Config) SetSeed(seed uint64) error {
	if seed == 0 {
		return fmt.Errorf("config: seed must be non-zero to be reproducible")
	}
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data = []byte(defaultProjectConfigYAML)
	} else if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	updated, err := setYAMLScalar(data, strconv.FormatUint(seed, 10), "!!int", "catalog", "seed")
	if err != nil {
		return fmt.Errorf("config: update %s: %w", path, err)
	}

	var check ProjectConfig
	if err := yaml.Unmarshal(updated, &check); err != nil {
		return fmt.Errorf("config: parse updated config: %w", err)
	}
	check.applyDefaults()
	check.normalize(c.ProjectDir)
	if err := check.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: ensure config dir: %w", err)
	}
	if err := os.WriteFile(path, updated, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	c.Project.Catalog.Seed = seed
	return nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && c.path == "" {
			c.Project.normalize(c.ProjectDir)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

// DefaultProjectConfig returns the settings used when no config file exists.
func DefaultProjectConfig() ProjectConfig {
	gen := catalog.DefaultGenerateOptions()
	return ProjectConfig{
		Version: 1,
		Catalog: CatalogConfig{
			Plots:      gen.Count,
			Areas:      gen.Areas,
			AgeBuckets: gen.AgeBuckets,
			AreaHa:     gen.AreaHa,
		},
		SampleSizes: catalog.DefaultSizeTable(),
		TreeDensity: catalog.DefaultTreeDensity,
		Report:      ReportConfig{Dir: filepath.Join(SamplerDir, "reports")},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	defaults := DefaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Catalog.Plots == 0 {
		pc.Catalog.Plots = defaults.Catalog.Plots
	}
	if len(pc.Catalog.Areas) == 0 {
		pc.Catalog.Areas = defaults.Catalog.Areas
	}
	if len(pc.Catalog.AgeBuckets) == 0 {
		pc.Catalog.AgeBuckets = defaults.Catalog.AgeBuckets
	}
	if pc.Catalog.AreaHa == (catalog.Range{}) {
		pc.Catalog.AreaHa = defaults.Catalog.AreaHa
	}
	if pc.SampleSizes == nil {
		pc.SampleSizes = defaults.SampleSizes
	}
	// 0 is indistinguishable from an omitted key
	if pc.TreeDensity == 0 {
		pc.TreeDensity = defaults.TreeDensity
	}
	if strings.TrimSpace(pc.Report.Dir) == "" {
		pc.Report.Dir = defaults.Report.Dir
	}
}

func (pc *ProjectConfig) normalize(base string) {
	for i, a := range pc.Catalog.Areas {
		pc.Catalog.Areas[i] = catalog.Area(strings.TrimSpace(string(a)))
	}
	for i, b := range pc.Catalog.AgeBuckets {
		pc.Catalog.AgeBuckets[i] = catalog.AgeBucket(strings.TrimSpace(string(b)))
	}
	pc.Report.Dir = resolvePath(base, pc.Report.Dir)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Catalog.Plots < 0 {
		return fmt.Errorf("catalog.plots must be >= 0")
	}
	if pc.Catalog.AreaHa.Min < 0 || pc.Catalog.AreaHa.Max < pc.Catalog.AreaHa.Min {
		return fmt.Errorf("catalog.area_ha must satisfy 0 <= min <= max")
	}
	if err := uniqueNonEmpty("catalog.areas", pc.Catalog.Areas); err != nil {
		return err
	}
	if err := uniqueNonEmpty("catalog.age_buckets", pc.Catalog.AgeBuckets); err != nil {
		return err
	}
	for area, buckets := range pc.SampleSizes {
		for bucket, n := range buckets {
			if n < 0 {
				return fmt.Errorf("sample_sizes[%s][%s] must be >= 0", area, bucket)
			}
		}
	}
	if pc.TreeDensity <= 0 || math.IsInf(pc.TreeDensity, 0) || math.IsNaN(pc.TreeDensity) {
		return fmt.Errorf("tree_density must be a positive number (0 selects the default)")
	}
	return nil
}

func uniqueNonEmpty[T ~string](field string, values []T) error {
	seen := map[T]struct{}{}
	for i, v := range values {
		if v == "" {
			return fmt.Errorf("%s[%d] is empty", field, i)
		}
		if _, dup := seen[v]; dup {
			return fmt.Errorf("%s: duplicate value %q", field, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

// setYAMLScalar sets the scalar at keys inside a YAML document, creating
// missing mappings on the way, and re-encodes it with comments intact.
func setYAMLScalar(data []byte, value, tag string, keys ...string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("unexpected document layout")
	}
	node := doc.Content[0]
	for i, key := range keys {
		if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
			node.Kind, node.Tag, node.Value = yaml.MappingNode, "!!map", ""
		}
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%s is not a mapping", strings.Join(keys[:i], "."))
		}
		var child *yaml.Node
		for j := 0; j+1 < len(node.Content); j += 2 {
			if node.Content[j].Value == key {
				child = node.Content[j+1]
				break
			}
		}
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, child)
		}
		node = child
	}
	node.Kind, node.Tag, node.Value, node.Style, node.Content = yaml.ScalarNode, tag, value, 0, nil

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
