package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: debug
analysis:
  danger_zone_policy: two_rule
  revenue_model: price
refresh:
  interval: 1m
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log_level = %q", cfg.LogLevel)
	}
	if cfg.Analysis.DangerZonePolicy != PolicyTwoRule {
		t.Fatalf("policy = %q", cfg.Analysis.DangerZonePolicy)
	}
	if cfg.Analysis.RevenueModel != RevenueModelPrice {
		t.Fatalf("revenue model = %q", cfg.Analysis.RevenueModel)
	}
	if cfg.Refresh.Interval != time.Minute {
		t.Fatalf("interval = %v", cfg.Refresh.Interval)
	}
	// fields absent from the file keep defaults
	if cfg.Analysis.DefaultTimeframeDays != 30 {
		t.Fatalf("timeframe default = %d", cfg.Analysis.DefaultTimeframeDays)
	}
	if !cfg.Analysis.InstrumentFilter {
		t.Fatal("instrument filter default lost")
	}
	if cfg.Sources.WordPress.PageSize != 100 {
		t.Fatalf("page size default = %d", cfg.Sources.WordPress.PageSize)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"analysis": {"revenue_per_participant": 650}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.RevenuePerParticipant != 650 {
		t.Fatalf("revenue per participant = %v", cfg.Analysis.RevenuePerParticipant)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte("  \n"), 0o644)
	if _, err := Load(empty); err == nil {
		t.Fatal("empty config accepted")
	}

	badPolicy := filepath.Join(dir, "policy.yaml")
	os.WriteFile(badPolicy, []byte("analysis:\n  danger_zone_policy: five_rule\n"), 0o644)
	if _, err := Load(badPolicy); err == nil {
		t.Fatal("bad danger_zone_policy accepted")
	}

	badFeed := filepath.Join(dir, "feed.yaml")
	os.WriteFile(badFeed, []byte("feed:\n  enabled: true\n"), 0o644)
	if _, err := Load(badFeed); err == nil {
		t.Fatal("feed without brokers accepted")
	}
}

func TestValidateDefaults(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestManagerReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("log_level: info\n"), 0o644)

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.Get().LogLevel != "info" {
		t.Fatalf("log_level = %q", m.Get().LogLevel)
	}

	// mtime granularity on some filesystems is one second
	future := time.Now().Add(2 * time.Second)
	os.WriteFile(path, []byte("log_level: warn\n"), 0o644)
	os.Chtimes(path, future, future)

	needs, err := m.NeedsReload()
	if err != nil {
		t.Fatalf("NeedsReload: %v", err)
	}
	if !needs {
		t.Fatal("modified file not flagged for reload")
	}
	cfg, err := m.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("reloaded log_level = %q", cfg.LogLevel)
	}
}

func TestStaticManager(t *testing.T) {
	m := NewStaticManager(nil)
	if m.Get().Analysis.DangerZonePolicy != PolicyThreeRule {
		t.Fatalf("static default policy = %q", m.Get().Analysis.DangerZonePolicy)
	}
	needs, err := m.NeedsReload()
	if err != nil || needs {
		t.Fatalf("static NeedsReload = %v, %v", needs, err)
	}
}
