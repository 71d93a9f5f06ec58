package main

import (
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:          "robocmd",
		Short:        "cooperative command scheduler for a robot control loop",
		Long:         `robocmd runs a fixed-rate control loop that schedules commands onto robot subsystems.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "./robocmd.yaml", "path to config (json or yaml)")

	cmd.AddCommand(
		newRunCommand(g),
		newCheckConfigCommand(g),
		newJournalCommand(g),
	)
	return cmd
}
