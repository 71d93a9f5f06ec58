package app

import (
	"strings"
	"time"

	"robocmd/internal/config"
	"robocmd/internal/loop"
	"robocmd/internal/robot"
	"robocmd/internal/storage"
)

// mapJournalConfig reports whether the journal is enabled and, if so, how to open it.
func mapJournalConfig(cfg *config.Config, res config.Resolved) (storage.Config, bool) {
	if cfg == nil || cfg.Journal == nil {
		return storage.Config{}, false
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Journal.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false
	}
	return storage.Config{
		Driver:      driver,
		Path:        strings.TrimSpace(cfg.Journal.Path),
		BusyTimeout: res.JournalBusyTimeout,
	}, true
}

func mapLoopConfig(res config.Resolved) loop.Config {
	return loop.Config{
		Period:           res.Period,
		OverrunBudget:    res.OverrunBudget,
		OverrunLogPerSec: res.OverrunLogPerSec,
		QueueSize:        res.QueueSize,
	}
}

func mapRobotConfig(cfg *config.Config, res config.Resolved) robot.Config {
	return robot.Config{
		AutoTimeout:     res.AutoTimeout,
		ShootWhenLoaded: cfg.Robot.ShootWhenLoaded,
		SelfCheck:       strings.TrimSpace(cfg.Robot.SelfCheck),
		Location:        res.Location,
	}
}

// loopNotifier picks the systemd integration the config asks for.
func loopNotifier(cfg *config.Config) (loop.Option, bool) {
	if !cfg.Systemd.Notify && !cfg.Systemd.Watchdog {
		return nil, false
	}
	var watchdog time.Duration
	if cfg.Systemd.Watchdog {
		watchdog = loop.SystemdWatchdog()
	}
	return loop.WithNotifier(loop.SystemdNotifier{}, watchdog), true
}
