package app

import (
	"context"
	"strings"

	"robocmd/internal/config"
	logx "robocmd/pkg/logx"
)

// watchReloads applies published configs until ctx is done. Logging and the loop
// period change live; other sections are logged as needing a restart.
func (a *App) watchReloads(ctx context.Context, sub chan *config.Config) error {
	defer a.cfgm.Unsubscribe(sub)
	// Track last applied config to generate a safe diff summary.
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-sub:
			if !ok {
				return nil
			}
			// Coalesce bursts: keep only the latest config in the channel.
			cfg = latest(sub, cfg)
			a.applyConfig(ctx, last, cfg)
			last = cfg
		}
	}
}

func latest(sub chan *config.Config, cfg *config.Config) *config.Config {
	for {
		select {
		case newer, ok := <-sub:
			if !ok {
				return cfg
			}
			if newer != nil {
				cfg = newer
			}
		default:
			return cfg
		}
	}
}

func (a *App) applyConfig(ctx context.Context, old, cfg *config.Config) {
	if cfg == nil {
		return
	}
	ch := config.Summarize(old, cfg)
	if ch.Empty() {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(ch.Sections, ","))}, ch.Fields...)
	a.log.Debug("config change summary", fields...)

	if ch.Has("logging") {
		a.logs.Apply(cfg.LogConfig())
	}
	if ch.Has("loop") {
		// The manager only publishes configs that resolve.
		res, err := cfg.Resolve()
		if err != nil {
			a.log.Warn("invalid loop config; keeping previous", logx.Err(err))
		} else if err := a.loop.SetPeriod(res.Period); err != nil {
			a.log.Warn("loop period not applied", logx.Err(err), logx.Duration("period", res.Period))
		}
	}
	if ch.Has("debug") {
		a.dbg.Reconfigure(ctx, cfg.DebugServerConfig())
	}
	if len(ch.Restart) > 0 {
		a.log.Warn("config changed; restart required for changes to take effect",
			logx.String("sections", strings.Join(ch.Restart, ",")))
	}
	a.log.Info("config reloaded", logx.String("changed", strings.Join(ch.Sections, ",")))
}
