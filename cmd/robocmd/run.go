package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"robocmd/internal/app"
	"robocmd/internal/control"
	logx "robocmd/pkg/logx"
)

const stopTimeout = 10 * time.Second

func newRunCommand(g *globalFlags) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the control loop until interrupted",
		Long: `Run starts the control loop and blocks until SIGINT or SIGTERM.
SIGUSR1 prints a status snapshot as JSON to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []app.Option
			if mode != "" {
				m, err := control.ParseMode(mode)
				if err != nil {
					return err
				}
				opts = append(opts, app.WithMode(m))
			}
			return run(cmd.Context(), g.configPath, opts...)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "override control.initial_mode (disabled, teleop, autonomous, test)")
	return cmd
}

func run(ctx context.Context, cfgPath string, opts ...app.Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.NewApp(cfgPath, opts...)
	if err != nil {
		return err
	}

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	defer signal.Stop(sigs)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := a.Start(runCtx); err != nil {
		_ = a.Stop(context.Background(), app.StopFatalError)
		return err
	}

	reason := app.StopAppStop
wait:
	for {
		select {
		case sig := <-sigs:
			if sig == syscall.SIGUSR1 {
				dumpStatus(runCtx, a)
				continue
			}
			reason = app.StopReasonFromSignal(sig)
			break wait
		case <-a.Done():
			reason = app.StopFatalError
			break wait
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)
	return a.Err()
}

func dumpStatus(ctx context.Context, a *app.App) {
	sctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	st, err := a.Status(sctx)
	if err != nil {
		logx.NewConsole("INFO").Warn("status unavailable", logx.Err(err))
	}
	enc := json.NewEncoder(logx.Stdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(st)
}
