package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rivenlabs/patchd/internal/output"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Ask the update authority whether a newer version exists",
		Long: `Check sends the installed version to the update authority and reports
whether an update is available. Network failures are reported as "no update";
this command never fails because the authority is unreachable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck()
		},
	}
}

func runCheck() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	updater, _ := buildUpdater(cfg)
	result := updater.CheckForUpdates(contextWithSignals())

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if format != output.FormatText {
		return output.NewWriter(os.Stdout, format).Write(result)
	}

	if !result.UpdateAvailable {
		fmt.Println("Already running the latest version")
		return nil
	}

	fmt.Printf("Update available: %s\n", result.LatestVersion)
	if result.ForceUpdate {
		fmt.Println("This update is marked as mandatory by the authority")
	}
	if result.Changelog != "" {
		fmt.Println("\nChangelog:")
		fmt.Println(result.Changelog)
	}
	fmt.Printf("\nRun 'patchd apply %s' to install\n", result.LatestVersion)
	return nil
}
