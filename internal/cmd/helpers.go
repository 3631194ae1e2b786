package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rivenlabs/patchd/internal/api"
	"github.com/rivenlabs/patchd/internal/config"
	"github.com/rivenlabs/patchd/internal/host"
	"github.com/rivenlabs/patchd/internal/update"
)

// loadConfig resolves configuration with precedence: flags > environment >
// config file > defaults.
func loadConfig() (*config.Config, error) {
	path, err := config.FindConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()

	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if installRoot != "" {
		cfg.InstallRoot = installRoot
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildClient creates the authority client from config.
func buildClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.ResolveBaseURL(), cfg.ClientType.String())
}

// buildUpdater wires the full update engine.
func buildUpdater(cfg *config.Config) (*update.Updater, *host.OSBridge) {
	bridge := host.NewOSBridge(cfg.InstallRoot)
	updater := update.NewUpdater(update.Options{
		Client:        buildClient(cfg),
		Bridge:        bridge,
		Fallback:      host.NewFallbackSaver(fallbackDir(), ""),
		SnapshotDir:   cfg.ResolveSnapshotDir(),
		InstallRoot:   cfg.InstallRoot,
		CheckInterval: cfg.CheckInterval,
		SnapshotKeep:  cfg.SnapshotKeep,
	})
	return updater, bridge
}

// contextWithSignals returns a context cancelled on SIGINT/SIGTERM, so
// in-flight transfers stop cleanly when the user interrupts a command.
func contextWithSignals() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}

// fallbackDir is where files land when the privileged bridge cannot write.
func fallbackDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "patchd-downloads")
	}
	return filepath.Join(home, "Downloads", "patchd")
}
