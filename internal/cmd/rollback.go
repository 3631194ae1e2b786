package cmd

import (
	"github.com/spf13/cobra"
)

func newRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <version>",
		Short: "Revert to a prior version and restart the host",
		Long: `Rollback asks the update authority to revert this install to the given
version, then restarts the host process unconditionally. The restart is how
the reverted state takes effect; this command does not return on success.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollback(args[0])
		},
	}
}

func runRollback(version string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	updater, _ := buildUpdater(cfg)
	return updater.RollbackVersion(contextWithSignals(), version)
}
