package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFallsBackToDefaultWhenFileMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := Default()
	if *cfg != want {
		t.Fatalf("expected default config, got %+v", cfg)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.BaseURL = "https://api.example.com/v1"
	cfg.APIKey = "sk-test-key"
	cfg.MaxSteps = 42

	if err := Save(&cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.BaseURL != cfg.BaseURL || loaded.APIKey != cfg.APIKey || loaded.MaxSteps != cfg.MaxSteps {
		t.Fatalf("round trip mismatch: got %+v, want %+v", loaded, cfg)
	}
}

func TestSaveWritesFilePermissions(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	if err := Save(&cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	path, err := Path()
	if err != nil {
		t.Fatalf("Path returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

func TestEnvironmentOverridesFileValue(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := Default()
	cfg.Model = "gpt-4o"
	if err := Save(&cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	t.Setenv("PILOT_MODEL", "claude-vision")
	t.Setenv("PILOT_MAX_STEPS", "7")

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Model != "claude-vision" {
		t.Fatalf("expected env override to win, got %q", loaded.Model)
	}
	if loaded.MaxSteps != 7 {
		t.Fatalf("expected PILOT_MAX_STEPS override, got %d", loaded.MaxSteps)
	}
}

func TestDurationTextRoundTrip(t *testing.T) {
	d := Duration(45 * time.Second)
	text, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText returned error: %v", err)
	}
	if string(text) != "45s" {
		t.Fatalf("got %q", text)
	}

	var parsed Duration
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText returned error: %v", err)
	}
	if parsed != d {
		t.Fatalf("got %v, want %v", parsed, d)
	}
}

func TestValidateRejectsMissingBaseURL(t *testing.T) {
	cfg := Default()
	cfg.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for empty base_url")
	}
}

func TestValidateRejectsUnknownLang(t *testing.T) {
	cfg := Default()
	cfg.Lang = "fr"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unrecognized lang")
	}
}

func TestRedactedMasksAPIKey(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "sk-super-secret"
	redacted := cfg.Redacted()
	if redacted.APIKey == cfg.APIKey {
		t.Fatal("expected APIKey to be masked")
	}
	if cfg.APIKey != "sk-super-secret" {
		t.Fatal("Redacted must not mutate the receiver")
	}
}

func TestConfigPathUnderConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := Path()
	if err != nil {
		t.Fatalf("Path returned error: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, "pilot") {
		t.Fatalf("got %q", path)
	}
}
