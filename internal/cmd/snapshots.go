package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rivenlabs/patchd/internal/host"
	"github.com/rivenlabs/patchd/internal/output"
	"github.com/rivenlabs/patchd/internal/update"
)

func newSnapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Manage pre-patch snapshots",
		Long: `Snapshots are captured before each delta apply so a bad patch can be
undone locally without re-downloading the previous version.`,
	}

	cmd.AddCommand(newSnapshotsListCmd())
	cmd.AddCommand(newSnapshotsRestoreCmd())
	cmd.AddCommand(newSnapshotsPruneCmd())
	return cmd
}

func newSnapshotsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := snapshotManager()
			if err != nil {
				return err
			}
			infos, err := manager.List()
			if err != nil {
				return err
			}

			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			if format != output.FormatText {
				return output.NewWriter(os.Stdout, format).Write(infos)
			}

			if len(infos) == 0 {
				fmt.Println("No snapshots")
				return nil
			}
			for _, info := range infos {
				fmt.Printf("%s  %d files  (%s)\n", info.ID, info.Files, info.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newSnapshotsRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Write a snapshot's files back into the install root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			manager := update.NewSnapshotManager(cfg.ResolveSnapshotDir(), cfg.InstallRoot)
			if err := manager.Restore(args[0], host.NewOSBridge(cfg.InstallRoot)); err != nil {
				return err
			}
			fmt.Printf("Restored snapshot %s\n", args[0])
			return nil
		},
	}
}

func newSnapshotsPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old snapshots, keeping the most recent N",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := snapshotManager()
			if err != nil {
				return err
			}
			deleted, err := manager.Prune(keep)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d snapshot(s)\n", deleted)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", update.DefaultSnapshotKeep, "Number of snapshots to retain")
	return cmd
}

func snapshotManager() (*update.SnapshotManager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return update.NewSnapshotManager(cfg.ResolveSnapshotDir(), cfg.InstallRoot), nil
}
