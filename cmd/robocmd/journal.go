package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"robocmd/internal/config"
	"robocmd/internal/storage"
	logx "robocmd/pkg/logx"
)

func newJournalCommand(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the most recent lifecycle records as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewManager(g.configPath).Load(context.Background())
			if err != nil {
				return err
			}
			res, err := cfg.Resolve()
			if err != nil {
				return err
			}
			if cfg.Journal == nil || strings.TrimSpace(cfg.Journal.Driver) == "" {
				return fmt.Errorf("journal: %w", storage.ErrDisabled)
			}
			st, err := storage.Open(storage.Config{
				Driver:      cfg.Journal.Driver,
				Path:        cfg.Journal.Path,
				BusyTimeout: res.JournalBusyTimeout,
			}, logx.Nop())
			if err != nil {
				return err
			}
			if st == nil {
				return fmt.Errorf("journal: %w", storage.ErrDisabled)
			}
			defer st.Close()

			recs, err := st.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range recs {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of records")
	return cmd
}
