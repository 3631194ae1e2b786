package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var showBuild bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show patchd version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuild {
				fmt.Printf("patchd version %s (commit %s, built %s)\n", patchdVersion, patchdCommit, patchdDate)
				return nil
			}
			fmt.Printf("patchd version %s\n", patchdVersion)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showBuild, "build", false, "Include commit and build date")
	return cmd
}
