package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/tree-sampler/internal/catalog"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir, "")
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.Project.Catalog.Plots != 20 {
		t.Fatalf("expected 20 plots, got %d", c.Project.Catalog.Plots)
	}
	if got := c.SizeTable().IdealSampleSize(catalog.AreaNorth, catalog.AgeYoung); got != 3 {
		t.Fatalf("default North/0-5 sample size = %d, want 3", got)
	}
	if want := filepath.Join(projectDir, SamplerDir, "reports"); c.ReportDir() != want {
		t.Fatalf("report dir = %s, want %s", c.ReportDir(), want)
	}
}

func TestInitSamplerDirWritesParsableDefault(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitSamplerDir(projectDir); err != nil {
		t.Fatalf("init sampler dir: %v", err)
	}
	for _, dir := range []string{"logs", "reports"} {
		if info, err := os.Stat(filepath.Join(projectDir, SamplerDir, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s dir, err=%v", dir, err)
		}
	}
	c, err := NewConfig(projectDir, "")
	if err != nil {
		t.Fatalf("parse default config: %v", err)
	}
	if c.Project.TreeDensity != 10 {
		t.Fatalf("tree density = %v, want 10", c.Project.TreeDensity)
	}
	if got := c.SizeTable().IdealSampleSize(catalog.AreaSouth, catalog.AgeMiddle); got != 3 {
		t.Fatalf("South/6-10 = %d, want 3", got)
	}
	if c.Seed() != 0 {
		t.Fatalf("default seed = %d, want 0", c.Seed())
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	samplerDir := filepath.Join(projectDir, SamplerDir)
	if err := os.MkdirAll(samplerDir, 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
catalog:
  plots: 8
  seed: 42
  areas: [" East ", West]
  age_buckets: [young, old]
  area_ha: {min: 0.5, max: 2}
sample_sizes:
  East: {young: 4}
tree_density: 12
measurements:
  strict: true
report:
  dir: out
`)
	if err := os.WriteFile(filepath.Join(samplerDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir, "")
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	opts := c.GenerateOptions()
	if opts.Count != 8 || opts.AreaHa.Min != 0.5 || opts.AreaHa.Max != 2 {
		t.Fatalf("unexpected generate options: %+v", opts)
	}
	if opts.Areas[0] != "East" {
		t.Fatalf("area not trimmed: %q", opts.Areas[0])
	}
	if c.Seed() != 42 {
		t.Fatalf("seed = %d, want 42", c.Seed())
	}
	if got := c.SizeTable().IdealSampleSize("East", "young"); got != 4 {
		t.Fatalf("East/young = %d, want 4", got)
	}
	if got := c.SizeTable().IdealSampleSize("West", "old"); got != 0 {
		t.Fatalf("West/old = %d, want 0", got)
	}
	if !c.Project.Measurements.Strict {
		t.Fatalf("expected strict measurements")
	}
	if want := filepath.Join(projectDir, "out"); c.ReportDir() != want {
		t.Fatalf("report dir = %s, want %s", c.ReportDir(), want)
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	cases := map[string]string{
		"negative size":  "sample_sizes:\n  North: {\"0-5\": -1}\n",
		"inverted range": "catalog:\n  area_ha: {min: 4, max: 1}\n",
		"duplicate area": "catalog:\n  areas: [North, North]\n",
		"bad yaml":       "catalog: [",
		"negative trees": "tree_density: -2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "custom.yaml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := NewConfig(t.TempDir(), path); err == nil {
				t.Fatalf("expected validation error but got none")
			}
		})
	}
}

func TestExplicitConfigPathMustExist(t *testing.T) {
	if _, err := NewConfig(t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestSetSeedPersists(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitSamplerDir(projectDir); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetSeed(0); err == nil {
		t.Fatalf("expected error for zero seed")
	}
	if err := c.SetSeed(1234); err != nil {
		t.Fatalf("set seed: %v", err)
	}
	reloaded, err := NewConfig(projectDir, "")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Seed() != 1234 {
		t.Fatalf("seed after reload = %d, want 1234", reloaded.Seed())
	}
}

func TestZeroTreeDensitySelectsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zero.yaml")
	if err := os.WriteFile(path, []byte("tree_density: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(t.TempDir(), path)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.TreeDensity != catalog.DefaultTreeDensity {
		t.Fatalf("tree density = %v, want default %v", c.Project.TreeDensity, catalog.DefaultTreeDensity)
	}
}

func TestSetSeedOnlyTouchesSeed(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitSamplerDir(projectDir); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir, "")
	if err != nil {
		t.Fatal(err)
	}
	c.Project.Catalog.Plots = 3
	c.Project.Measurements.Strict = true
	if err := c.SetSeed(42); err != nil {
		t.Fatalf("set seed: %v", err)
	}
	if c.Seed() != 42 {
		t.Fatalf("in-memory seed = %d, want 42", c.Seed())
	}

	data, err := os.ReadFile(c.ProjectConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"# tree sampler project configuration", "seed: 42", "dir: .sampler/reports", "plots: 20"} {
		if !strings.Contains(text, want) {
			t.Fatalf("config file missing %q:\n%s", want, text)
		}
	}
	reloaded, err := NewConfig(projectDir, "")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Project.Catalog.Plots != 20 || reloaded.Project.Measurements.Strict {
		t.Fatalf("overrides leaked into config: plots=%d strict=%v",
			reloaded.Project.Catalog.Plots, reloaded.Project.Measurements.Strict)
	}
}

func TestSetSeedAddsMissingCatalogBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("# keep me\ntree_density: 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(t.TempDir(), path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetSeed(7); err != nil {
		t.Fatalf("set seed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# keep me") {
		t.Fatalf("comment dropped:\n%s", data)
	}
	reloaded, err := NewConfig(t.TempDir(), path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Seed() != 7 || reloaded.Project.TreeDensity != 12 {
		t.Fatalf("reloaded seed=%d density=%v", reloaded.Seed(), reloaded.Project.TreeDensity)
	}
}
