package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/tree-sampler/internal/config"
	"github.com/kingrea/tree-sampler/internal/report"
)

const singleSegmentConfig = `version: 1
catalog:
  plots: 5
  areas: [North]
  age_buckets: ["0-5"]
  area_ha: {min: 0.1, max: 0.4}
sample_sizes:
  North: {"0-5": 2}
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("sampler %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogCommandIsReproducible(t *testing.T) {
	t.Chdir(t.TempDir())
	first := execute(t, "catalog", "--seed", "99", "--plots", "4")
	second := execute(t, "catalog", "--seed", "99", "--plots", "4")
	if first != second {
		t.Fatalf("same seed printed different catalogs:\n%s\n%s", first, second)
	}
	if !strings.Contains(first, "Seed: 99") {
		t.Fatalf("catalog output missing seed:\n%s", first)
	}
	if _, err := os.Stat(filepath.Join(config.SamplerDir, "config.yaml")); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}
}

func TestSizesCommandPrintsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	out := execute(t, "sizes")
	for _, want := range []string{"North", "South", "0-5", "6-10", "11-15"} {
		if !strings.Contains(out, want) {
			t.Fatalf("sizes output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommandExportsReport(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	configPath := filepath.Join(dir, "single.yaml")
	writeFile(t, configPath, singleSegmentConfig)
	scriptPath := filepath.Join(dir, "session.yaml")
	writeFile(t, scriptPath, "area: north\nage_bucket: \"0-5\"\nsample: {auto: true}\ndefault: {height: \"1.0\", yield: \"2\"}\n")

	out := execute(t, "run", "--config", configPath, "--seed", "5", "--script", scriptPath)
	if !strings.Contains(out, "Data Saved Successfully!") {
		t.Fatalf("missing success banner:\n%s", out)
	}
	path := filepath.Join(dir, config.SamplerDir, "reports", report.Filename)
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()
	rep, err := report.ParseCSV(f)
	if err != nil {
		t.Fatalf("parse exported report: %v", err)
	}
	if rep.Summary.GardensSampled != 2 {
		t.Fatalf("gardens sampled = %d, want 2", rep.Summary.GardensSampled)
	}
	if rep.Summary.TotalTreesSampled != len(rep.Measurements) {
		t.Fatalf("summary total %d != %d measurement rows", rep.Summary.TotalTreesSampled, len(rep.Measurements))
	}
	for _, m := range rep.Measurements {
		if m.Height != "1.0" || m.Yield != "2" {
			t.Fatalf("default reading not applied: %+v", m)
		}
	}
}

func TestPinSeedPersists(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	execute(t, "sizes", "--seed", "321", "--pin-seed")
	cfg, err := config.NewConfig(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed() != 321 {
		t.Fatalf("pinned seed = %d, want 321", cfg.Seed())
	}
}

func TestPinSeedIgnoresOneOffFlags(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := config.InitSamplerDir(dir); err != nil {
		t.Fatal(err)
	}
	before, err := config.NewConfig(dir, "")
	if err != nil {
		t.Fatal(err)
	}

	execute(t, "sizes", "--plots", "3", "--strict", "--seed", "42", "--pin-seed")

	after, err := config.NewConfig(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	want := before.Project
	want.Catalog.Seed = 42
	if diff := cmp.Diff(want, after.Project); diff != "" {
		t.Fatalf("pinning changed more than the seed (-want +got):\n%s", diff)
	}
	data, err := os.ReadFile(after.ProjectConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	for _, keep := range []string{"# tree sampler project configuration", "dir: .sampler/reports", "strict: false"} {
		if !strings.Contains(string(data), keep) {
			t.Fatalf("config file lost %q:\n%s", keep, data)
		}
	}
}
