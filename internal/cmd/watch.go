package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rivenlabs/patchd/internal/liveedit"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the periodic version check and the live-edit channel",
		Long: `Watch runs the resident side of the updater: the recurring version check
(default every 24 hours) and the persistent live-edit channel that receives
hot patches outside the version cycle. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch()
		},
	}
}

func runWatch() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	updater, bridge := buildUpdater(cfg)
	ctx := contextWithSignals()

	checker := updater.Checker()
	checker.Start(ctx)
	defer checker.Stop()

	channel, err := liveedit.NewChannel(buildClient(cfg), bridge, liveedit.Policy{
		InitialDelay: cfg.LiveEdit.InitialDelay,
		MaxDelay:     cfg.LiveEdit.MaxDelay,
		MaxRetries:   uint64(cfg.LiveEdit.MaxRetries),
	})
	if err != nil {
		return err
	}

	channelDone := make(chan error, 1)
	go func() {
		channelDone <- channel.Run(ctx)
	}()

	for {
		select {
		case n := <-checker.Notifications():
			fmt.Printf("Update available: %s\n", n.LatestVersion)
			if n.ForceUpdate {
				fmt.Println("The authority marked this update as mandatory")
			}
		case e := <-channel.Events():
			fmt.Printf("Live edit: %s (%s)\n", e.Path, e.Kind)
		case err := <-channelDone:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("live-edit channel stopped: %w", err)
		case <-ctx.Done():
			return nil
		}
	}
}
