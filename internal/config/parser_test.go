package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rivenlabs/patchd/internal/types"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    Format
	}{
		{"yaml extension", "config.yaml", "", FormatYAML},
		{"yml extension", "config.yml", "", FormatYAML},
		{"toml extension", "config.toml", "", FormatTOML},
		{"json extension", "config.json", "", FormatJSON},
		{"sniff json object", "patchdrc", `{"api_port": 1}`, FormatJSON},
		{"sniff toml assignment", "patchdrc", "api_port = 1", FormatTOML},
		{"sniff toml section", "patchdrc", "[snapshots]\ndir = \"x\"", FormatTOML},
		{"sniff yaml mapping", "patchdrc", "api_port: 1", FormatYAML},
		{"unknown", "patchdrc", "just words", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.path, []byte(tt.content)); got != tt.want {
				t.Errorf("detectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	content := `
api_url: https://updates.example.test
client_type: editor
install_root: /opt/game
check_interval: 1h
snapshots:
  dir: /var/snaps
  keep: 3
live_edit:
  initial_delay: 500ms
  max_delay: 10s
  max_retries: 5
`
	cfg := loadFrom(t, "patchd.yaml", content)

	if cfg.APIURL != "https://updates.example.test" {
		t.Errorf("APIURL = %s", cfg.APIURL)
	}
	if cfg.ClientType != types.ClientTypeEditor {
		t.Errorf("ClientType = %s", cfg.ClientType)
	}
	if cfg.InstallRoot != "/opt/game" || cfg.SnapshotDir != "/var/snaps" || cfg.SnapshotKeep != 3 {
		t.Errorf("paths/keep wrong: %+v", cfg)
	}
	if cfg.CheckInterval != time.Hour {
		t.Errorf("CheckInterval = %s", cfg.CheckInterval)
	}
	if cfg.LiveEdit.InitialDelay != 500*time.Millisecond || cfg.LiveEdit.MaxDelay != 10*time.Second || cfg.LiveEdit.MaxRetries != 5 {
		t.Errorf("live edit = %+v", cfg.LiveEdit)
	}
}

func TestLoadTOML(t *testing.T) {
	content := `
api_port = 9000
check_interval = "30m"

[snapshots]
keep = 0
`
	cfg := loadFrom(t, "patchd.toml", content)

	if cfg.APIPort != 9000 {
		t.Errorf("APIPort = %d", cfg.APIPort)
	}
	if cfg.CheckInterval != 30*time.Minute {
		t.Errorf("CheckInterval = %s", cfg.CheckInterval)
	}
	// keep = 0 is an explicit value, not an absent one.
	if cfg.SnapshotKeep != 0 {
		t.Errorf("SnapshotKeep = %d, want explicit 0", cfg.SnapshotKeep)
	}
}

func TestLoadJSON(t *testing.T) {
	content := `{"api_url": "http://h:1", "client_type": "headless"}`
	cfg := loadFrom(t, "patchd.json", content)

	if cfg.APIURL != "http://h:1" || cfg.ClientType != types.ClientTypeHeadless {
		t.Errorf("got %+v", cfg)
	}
	// Unset values keep their defaults.
	if cfg.CheckInterval != 24*time.Hour || cfg.SnapshotKeep != 10 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad duration", "patchd.yaml", "check_interval: soon"},
		{"bad client type", "patchd.yaml", "client_type: kiosk"},
		{"unparseable yaml", "patchd.yaml", "api_port: [nope"},
		{"unknown format", "patchdrc", "just words"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected Load() to fail")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func loadFrom(t *testing.T, name, content string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}
