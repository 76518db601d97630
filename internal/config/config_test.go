package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"jobscout/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ── Defaults ───────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Salary.MonthlyCutoff != 2_500_000 {
		t.Errorf("default monthly cutoff = %d, want 2500000", cfg.Salary.MonthlyCutoff)
	}
	if cfg.Match.MinScore != 50 {
		t.Errorf("default min score = %d, want 50", cfg.Match.MinScore)
	}
	if !cfg.Scrape.Parallel || cfg.Scrape.Workers != 3 {
		t.Errorf("default scrape mode = parallel=%v workers=%d, want parallel=true workers=3",
			cfg.Scrape.Parallel, cfg.Scrape.Workers)
	}
}

// ── Per-adapter override merging ───────────────────────────────────────────

func TestMerged_OverridesWin(t *testing.T) {
	path := writeConfig(t, `
scrape:
  global:
    keywords: ["デザイナー"]
    location: "東京"
    max_pages: 2
    delay_min_ms: 2000
    delay_max_ms: 3000
    timeout_seconds: 30
  adapters:
    doda:
      keywords: ["UXデザイナー"]
      max_pages: 3
  workers: 3
  parallel: true
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	doda := cfg.Scrape.Merged("doda")
	if len(doda.Keywords) != 1 || doda.Keywords[0] != "UXデザイナー" {
		t.Errorf("doda keywords = %v, want [UXデザイナー]", doda.Keywords)
	}
	if doda.MaxPages != 3 {
		t.Errorf("doda max_pages = %d, want 3", doda.MaxPages)
	}
	// Fields without an override keep the global value.
	if doda.Location != "東京" {
		t.Errorf("doda location = %q, want 東京", doda.Location)
	}

	// An adapter without any override gets the global block untouched.
	green := cfg.Scrape.Merged("green")
	if green.MaxPages != 2 || green.Keywords[0] != "デザイナー" {
		t.Errorf("green merged = %+v, want pure globals", green)
	}
}

func TestEnabled(t *testing.T) {
	path := writeConfig(t, `
scrape:
  workers: 1
  adapters:
    indeed:
      enabled: false
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Scrape.Enabled("indeed") {
		t.Error("indeed should be disabled")
	}
	if !cfg.Scrape.Enabled("doda") {
		t.Error("doda should default to enabled")
	}
}

// ── Command-line overrides ─────────────────────────────────────────────────

func TestScrapeOverrides_Apply(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	names := []string{"doda", "green", "indeed", "wantedly"}
	ov := config.ScrapeOverrides{
		Keywords:   []string{"エンジニア"},
		Location:   "大阪",
		MaxPages:   5,
		Sequential: true,
		Only:       []string{"green", "indeed"},
	}
	ov.Apply(&cfg.Scrape, names)

	green := cfg.Scrape.Merged("green")
	if len(green.Keywords) != 1 || green.Keywords[0] != "エンジニア" {
		t.Errorf("keywords = %v, want [エンジニア]", green.Keywords)
	}
	if green.Location != "大阪" || green.MaxPages != 5 {
		t.Errorf("location/max_pages = %q/%d, want 大阪/5", green.Location, green.MaxPages)
	}
	if cfg.Scrape.Parallel {
		t.Error("--sequential must clear parallel mode")
	}
	for _, name := range names {
		want := name == "green" || name == "indeed"
		if cfg.Scrape.Enabled(name) != want {
			t.Errorf("Enabled(%s) = %v, want %v", name, cfg.Scrape.Enabled(name), want)
		}
	}
}

func TestScrapeOverrides_ZeroValueIsNoOp(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	before := cfg.Scrape.Merged("doda")

	config.ScrapeOverrides{}.Apply(&cfg.Scrape, []string{"doda"})

	after := cfg.Scrape.Merged("doda")
	if after.Location != before.Location || after.MaxPages != before.MaxPages ||
		len(after.Keywords) != len(before.Keywords) {
		t.Errorf("zero overrides changed the config: %+v -> %+v", before, after)
	}
	if !cfg.Scrape.Parallel {
		t.Error("zero overrides must not clear parallel mode")
	}
	if !cfg.Scrape.Enabled("doda") {
		t.Error("zero overrides must not disable adapters")
	}
}

// ── Validation ─────────────────────────────────────────────────────────────

func TestLoad_RejectsBadWeights(t *testing.T) {
	path := writeConfig(t, `
match:
  title_weight: 50
  description_weight: 30
  location_weight: 15
  salary_weight: 15
`)
	if _, err := config.Load(path); err == nil {
		t.Error("weights summing to 110 should be rejected")
	}
}

func TestLoad_EnvOverridesDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-wins")
	path := writeConfig(t, `database_url: "postgres://file"`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://env-wins" {
		t.Errorf("DatabaseURL = %q, want env override", cfg.DatabaseURL)
	}
}
