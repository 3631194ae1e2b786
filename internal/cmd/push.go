package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rivenlabs/patchd/internal/host"
	"github.com/rivenlabs/patchd/internal/liveedit"
)

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <remote-path> <local-file>",
		Short: "Publish a live edit to other connected clients",
		Long: `Push uploads a local file as a hot patch for the given install-relative
path. Connected clients receive it over the live-edit channel without waiting
for a version cycle. The local file-updated event is raised optimistically,
before the change is confirmed to have propagated.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(args[0], args[1])
		},
	}
}

func runPush(remotePath, localFile string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	content, err := os.ReadFile(localFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localFile, err)
	}

	channel, err := liveedit.NewChannel(buildClient(cfg), host.NewOSBridge(cfg.InstallRoot), liveedit.DefaultPolicy())
	if err != nil {
		return err
	}

	if err := channel.Push(contextWithSignals(), remotePath, content); err != nil {
		return err
	}

	fmt.Printf("Pushed %s (%d bytes)\n", remotePath, len(content))
	return nil
}
