package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	apiURL       string
	installRoot  string
	verbose      bool
	quiet        bool
)

// Build metadata, injected by main.
var (
	patchdVersion = "dev"
	patchdCommit  = "none"
	patchdDate    = "unknown"
)

func Execute(version, commit, date string) error {
	patchdVersion = version
	patchdCommit = commit
	patchdDate = date

	rootCmd := &cobra.Command{
		Use:   "patchd",
		Short: "Update and live-patch client for the launcher",
		Long: `patchd keeps an installed application synchronized with its update authority.

It negotiates versions, applies incremental delta patches or full downloads with
per-file integrity verification, maintains pre-patch snapshots for recovery, and
listens on a live-edit channel for out-of-band hot patches.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch {
			case quiet:
				log.SetLevel(log.ErrorLevel)
			case verbose:
				log.SetLevel(log.DebugLevel)
			default:
				log.SetLevel(log.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Update authority base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&installRoot, "install-root", "", "Install root directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Add subcommands
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newRollbackCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newPushCmd())
	rootCmd.AddCommand(newSnapshotsCmd())
	rootCmd.AddCommand(newVersionCmd())

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd.Execute()
}
