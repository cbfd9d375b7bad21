package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points every config source at an empty temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvBaselineSerial, "")
	t.Setenv(EnvListingURL, "")
	return dir
}

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	want := "/custom/config/patentwatch/config.yml"
	if got := GlobalConfigPath(); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Journal.BaselineSerial != "44/2025" {
		t.Errorf("BaselineSerial = %q, want 44/2025", cfg.Journal.BaselineSerial)
	}
	if len(cfg.SoftwarePrefixes) != 4 {
		t.Errorf("SoftwarePrefixes = %v, want 4 defaults", cfg.SoftwarePrefixes)
	}
	if cfg.DBPath() != filepath.Join("data", DBFile) {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "pw.yml")
	content := `data_dir: /srv/patents
journal:
  baseline_serial: "10/2026"
  download_timeout: 10m
software_prefixes: [G06F]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "/srv/patents" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Journal.BaselineSerial != "10/2026" {
		t.Errorf("BaselineSerial = %q", cfg.Journal.BaselineSerial)
	}
	if cfg.Journal.DownloadTimeout != 10*time.Minute {
		t.Errorf("DownloadTimeout = %v", cfg.Journal.DownloadTimeout)
	}
	// Unset keys keep their defaults.
	if cfg.Journal.ListingURL == "" || cfg.Search.BaseURL == "" {
		t.Error("unset URLs should keep defaults")
	}
	if len(cfg.SoftwarePrefixes) != 1 || cfg.SoftwarePrefixes[0] != "G06F" {
		t.Errorf("SoftwarePrefixes = %v", cfg.SoftwarePrefixes)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvDataDir, "/tmp/pw")
	t.Setenv(EnvBaselineSerial, "1/2026")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "/tmp/pw" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Journal.BaselineSerial != "1/2026" {
		t.Errorf("BaselineSerial = %q", cfg.Journal.BaselineSerial)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := isolate(t)

	if _, err := Load(filepath.Join(dir, "missing.yml")); err == nil {
		t.Error("explicit missing config should fail")
	}

	bad := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(bad, []byte("journal: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("malformed YAML should fail")
	}

	t.Setenv(EnvBaselineSerial, "week 44")
	if _, err := Load(""); err == nil {
		t.Error("invalid baseline serial should fail")
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got := ExpandTilde("~/data"); got != filepath.Join(home, "data") {
		t.Errorf("ExpandTilde(~/data) = %q", got)
	}
	if got := ExpandTilde("/abs"); got != "/abs" {
		t.Errorf("ExpandTilde(/abs) = %q", got)
	}
}
