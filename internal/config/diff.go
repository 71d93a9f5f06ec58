package config

import (
	"sort"
	"strings"

	logx "robocmd/pkg/logx"
)

// Changes lists the sections that differ between two configs and which of them
// can be applied without a restart.
type Changes struct {
	Sections []string
	// Restart lists changed sections that only take effect on restart.
	Restart []string
	Fields  []logx.Field
}

func (c Changes) Empty() bool { return len(c.Sections) == 0 }

func (c Changes) Has(section string) bool {
	for _, s := range c.Sections {
		if s == section {
			return true
		}
	}
	return false
}

// Summarize compares two configs section by section. Fields carry the new values
// for logging; file paths are reported as set/unset only.
func Summarize(oldCfg, newCfg *Config) Changes {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var ch Changes
	mark := func(section string, restart bool, fields ...logx.Field) {
		ch.Sections = append(ch.Sections, section)
		if restart {
			ch.Restart = append(ch.Restart, section)
		}
		ch.Fields = append(ch.Fields, fields...)
	}

	o, n := oldCfg.Logging, newCfg.Logging
	if o.Level != n.Level || o.Console != n.Console || o.File.Enabled != n.File.Enabled ||
		strings.TrimSpace(o.File.Path) != strings.TrimSpace(n.File.Path) {
		mark("logging", false,
			logx.String("logging.level", n.Level),
			logx.Bool("logging.console", n.Console),
			logx.Bool("logging.file_enabled", n.File.Enabled),
		)
	}

	if oldCfg.Loop != newCfg.Loop {
		// Only the period is live-tunable; the rest is read when the loop starts.
		restart := oldCfg.Loop.OverrunBudget != newCfg.Loop.OverrunBudget ||
			oldCfg.Loop.OverrunLogPerSec != newCfg.Loop.OverrunLogPerSec ||
			oldCfg.Loop.QueueSize != newCfg.Loop.QueueSize
		mark("loop", restart,
			logx.String("loop.period", strings.TrimSpace(newCfg.Loop.Period)),
			logx.String("loop.overrun_budget", strings.TrimSpace(newCfg.Loop.OverrunBudget)),
		)
	}

	if !strings.EqualFold(strings.TrimSpace(oldCfg.Control.InitialMode), strings.TrimSpace(newCfg.Control.InitialMode)) {
		mark("control", true, logx.String("control.initial_mode", newCfg.Control.InitialMode))
	}

	if oldCfg.Robot != newCfg.Robot {
		mark("robot", true,
			logx.String("robot.self_check", newCfg.Robot.SelfCheck),
			logx.String("robot.auto_timeout", newCfg.Robot.AutoTimeout),
		)
	}

	if oldCfg.Systemd != newCfg.Systemd {
		mark("systemd", true, logx.Bool("systemd.notify", newCfg.Systemd.Notify), logx.Bool("systemd.watchdog", newCfg.Systemd.Watchdog))
	}

	if oldCfg.Debug != newCfg.Debug {
		mark("debug", false,
			logx.Bool("debug.enabled", newCfg.Debug.Enabled),
			logx.String("debug.addr", newCfg.Debug.Addr),
			logx.Bool("debug.token_set", newCfg.Debug.Token != ""),
		)
	}

	var oj, nj JournalConfig
	if oldCfg.Journal != nil {
		oj = *oldCfg.Journal
	}
	if newCfg.Journal != nil {
		nj = *newCfg.Journal
	}
	if (oldCfg.Journal == nil) != (newCfg.Journal == nil) || oj != nj {
		mark("journal", true,
			logx.String("journal.driver", strings.TrimSpace(nj.Driver)),
			logx.Bool("journal.path_set", strings.TrimSpace(nj.Path) != ""),
		)
	}

	sort.Strings(ch.Sections)
	sort.Strings(ch.Restart)
	return ch
}
