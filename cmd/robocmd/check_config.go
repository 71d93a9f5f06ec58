package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"robocmd/internal/config"
	logx "robocmd/pkg/logx"
)

func newCheckConfigCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the config file and print the resolved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logx.NewConsole("INFO").With(logx.String("comp", "check-config"))
			m := config.NewManager(g.configPath)
			cfg, err := m.Load(context.Background())
			if err != nil {
				return fmt.Errorf("%s: %w", g.configPath, err)
			}
			res, err := cfg.Resolve()
			if err != nil {
				return err
			}

			fields := []logx.Field{
				logx.String("path", g.configPath),
				logx.Duration("period", res.Period),
				logx.Duration("overrun_budget", res.OverrunBudget),
				logx.String("initial_mode", res.InitialMode.String()),
				logx.Duration("auto_timeout", res.AutoTimeout),
				logx.String("timezone", res.Location.String()),
			}
			if res.SelfCheck != nil {
				fields = append(fields, logx.String("self_check", res.SelfCheck.Kind.String()))
			}
			if cfg.Journal != nil {
				fields = append(fields, logx.String("journal", cfg.Journal.Driver))
			}
			log.Info("config ok", fields...)
			return nil
		},
	}
}
