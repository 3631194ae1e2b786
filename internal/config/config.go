// Package config handles updater configuration: file parsing, environment
// overrides, and resolution of the update authority's base address.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rivenlabs/patchd/internal/types"
)

// DefaultAPIPort is the hard default when neither an explicit URL nor a
// port is configured.
const DefaultAPIPort = 7737

// Default file and directory names.
const (
	ConfigFileName     = "patchd.yaml"
	DefaultSnapshotDir = "snapshots"
)

// Environment override variables.
const (
	EnvAPIURL        = "PATCHD_API_URL"
	EnvAPIPort       = "PATCHD_API_PORT"
	EnvCheckInterval = "PATCHD_CHECK_INTERVAL"
)

// Config is the resolved updater configuration.
type Config struct {
	APIURL        string           // explicit authority base URL, highest precedence
	APIPort       int              // port against loopback when APIURL is empty
	ClientType    types.ClientType // tag sent with version checks
	InstallRoot   string
	SnapshotDir   string
	SnapshotKeep  int
	CheckInterval time.Duration
	LiveEdit      LiveEditConfig
}

// LiveEditConfig bounds the live-edit channel's reconnect behavior.
type LiveEditConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxRetries   int
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		APIPort:       DefaultAPIPort,
		ClientType:    types.ClientTypeLauncher,
		InstallRoot:   ".",
		SnapshotKeep:  10,
		CheckInterval: 24 * time.Hour,
		LiveEdit: LiveEditConfig{
			InitialDelay: 2 * time.Second,
			MaxDelay:     2 * time.Minute,
			MaxRetries:   30,
		},
	}
}

// ResolveBaseURL resolves the authority base address with precedence:
// explicit URL override, else the configured port against loopback, else
// the hard default port.
func (c *Config) ResolveBaseURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	port := c.APIPort
	if port == 0 {
		port = DefaultAPIPort
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// ResolveSnapshotDir returns the snapshot directory, defaulting to a
// subdirectory of the install root.
func (c *Config) ResolveSnapshotDir() string {
	if c.SnapshotDir != "" {
		return c.SnapshotDir
	}
	return filepath.Join(c.InstallRoot, "."+DefaultSnapshotDir)
}

// ApplyEnv layers environment overrides onto the config. Unparseable values
// are logged and skipped rather than failing startup.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := os.LookupEnv(EnvAPIPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			log.Errorf("Failed to parse %s value %q as integer", EnvAPIPort, v)
		} else {
			c.APIPort = port
		}
	}
	if v, ok := os.LookupEnv(EnvCheckInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Errorf("Failed to parse %s value %q as duration", EnvCheckInterval, v)
		} else {
			c.CheckInterval = d
		}
	}
}

// FindConfig locates the config file: the explicit path if given, else
// ./patchd.yaml, else ~/.config/patchd/patchd.yaml. An empty return with no
// error means no config file exists and defaults apply.
func FindConfig(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}
	candidate := filepath.Join(home, ".config", "patchd", ConfigFileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", nil
}

// Load reads and parses a config file, layering it over the defaults.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	raw, err := parse(path, content)
	if err != nil {
		return nil, err
	}

	cfg, err := raw.toConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
