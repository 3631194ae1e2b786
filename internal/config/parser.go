package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/rivenlabs/patchd/internal/types"
)

// Format represents the file format of a config file.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatTOML
	FormatJSON
)

// detectFormat determines the file format based on extension or content.
func detectFormat(path string, content []byte) Format {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	}

	// Content sniffing for extensionless files
	return sniffFormat(content)
}

// sniffFormat attempts to detect format from content.
func sniffFormat(content []byte) Format {
	trimmed := strings.TrimSpace(string(content))

	// JSON starts with { or [
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return FormatJSON
	}

	// TOML typically has [sections] or key = value; YAML uses key: value.
	if strings.Contains(trimmed, " = ") || strings.HasPrefix(trimmed, "[") {
		lines := strings.Split(trimmed, "\n")
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if strings.Contains(line, " = ") || strings.HasPrefix(line, "[") {
				return FormatTOML
			}
			// : without = is likely YAML
			if strings.Contains(line, ":") && !strings.Contains(line, "=") {
				return FormatYAML
			}
		}
	}

	if strings.Contains(trimmed, ":") {
		return FormatYAML
	}

	return FormatUnknown
}

// rawConfig is the intermediate representation for parsing. Durations are
// strings in the file ("24h", "90s") and converted once here.
type rawConfig struct {
	APIURL        string      `yaml:"api_url" toml:"api_url" json:"api_url"`
	APIPort       int         `yaml:"api_port" toml:"api_port" json:"api_port"`
	ClientType    string      `yaml:"client_type" toml:"client_type" json:"client_type"`
	InstallRoot   string      `yaml:"install_root" toml:"install_root" json:"install_root"`
	CheckInterval string      `yaml:"check_interval" toml:"check_interval" json:"check_interval"`
	Snapshots     rawSnapshot `yaml:"snapshots" toml:"snapshots" json:"snapshots"`
	LiveEdit      rawLiveEdit `yaml:"live_edit" toml:"live_edit" json:"live_edit"`
}

type rawSnapshot struct {
	Dir  string `yaml:"dir" toml:"dir" json:"dir"`
	Keep *int   `yaml:"keep" toml:"keep" json:"keep"`
}

type rawLiveEdit struct {
	InitialDelay string `yaml:"initial_delay" toml:"initial_delay" json:"initial_delay"`
	MaxDelay     string `yaml:"max_delay" toml:"max_delay" json:"max_delay"`
	MaxRetries   *int   `yaml:"max_retries" toml:"max_retries" json:"max_retries"`
}

// parse decodes the file content in whatever format it is written in.
func parse(path string, content []byte) (*rawConfig, error) {
	format := detectFormat(path, content)

	var raw rawConfig
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to determine config format for %s", path)
	}
	return &raw, nil
}

// toConfig layers the raw file values over the defaults.
func (r *rawConfig) toConfig() (*Config, error) {
	cfg := Default()

	if r.APIURL != "" {
		cfg.APIURL = r.APIURL
	}
	if r.APIPort != 0 {
		cfg.APIPort = r.APIPort
	}
	if r.ClientType != "" {
		cfg.ClientType = types.ClientType(r.ClientType)
	}
	if r.InstallRoot != "" {
		cfg.InstallRoot = r.InstallRoot
	}
	if r.Snapshots.Dir != "" {
		cfg.SnapshotDir = r.Snapshots.Dir
	}
	if r.Snapshots.Keep != nil {
		cfg.SnapshotKeep = *r.Snapshots.Keep
	}
	if r.LiveEdit.MaxRetries != nil {
		cfg.LiveEdit.MaxRetries = *r.LiveEdit.MaxRetries
	}

	var err error
	if cfg.CheckInterval, err = parseDuration(r.CheckInterval, cfg.CheckInterval); err != nil {
		return nil, fmt.Errorf("invalid check_interval: %w", err)
	}
	if cfg.LiveEdit.InitialDelay, err = parseDuration(r.LiveEdit.InitialDelay, cfg.LiveEdit.InitialDelay); err != nil {
		return nil, fmt.Errorf("invalid live_edit.initial_delay: %w", err)
	}
	if cfg.LiveEdit.MaxDelay, err = parseDuration(r.LiveEdit.MaxDelay, cfg.LiveEdit.MaxDelay); err != nil {
		return nil, fmt.Errorf("invalid live_edit.max_delay: %w", err)
	}

	return cfg, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
