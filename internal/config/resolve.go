package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"robocmd/internal/control"
	"robocmd/internal/observability/debug"
	"robocmd/internal/trigger"
	logx "robocmd/pkg/logx"
)

const (
	DefaultPeriod        = 20 * time.Millisecond
	DefaultJournalBuffer = 256
)

// Resolved holds validated, typed values derived from a Config.
type Resolved struct {
	Period           time.Duration
	OverrunBudget    time.Duration
	OverrunLogPerSec int
	QueueSize        int

	InitialMode control.Mode

	SelfCheck   *trigger.ParsedSpec
	Location    *time.Location
	AutoTimeout time.Duration

	JournalBusyTimeout time.Duration
	JournalBuffer      int
}

// Resolve validates cfg and fills in defaults. Errors are prefixed with the
// offending key path.
func (c *Config) Resolve() (Resolved, error) {
	var r Resolved
	var errs []error

	if lvl := strings.TrimSpace(c.Logging.Level); lvl != "" {
		if _, ok := logx.ParseLevel(lvl); !ok {
			errs = append(errs, fmt.Errorf("logging.level: unknown level %q", lvl))
		}
	}
	if c.Logging.File.Enabled && strings.TrimSpace(c.Logging.File.Path) == "" {
		errs = append(errs, fmt.Errorf("logging.file.path: required when file logging is enabled"))
	}

	var err error
	if r.Period, err = ParseDurationOrDefault("loop.period", c.Loop.Period, DefaultPeriod); err != nil {
		errs = append(errs, err)
	}
	if r.OverrunBudget, err = ParseDurationOrDefault("loop.overrun_budget", c.Loop.OverrunBudget, r.Period); err != nil {
		errs = append(errs, err)
	}
	r.OverrunLogPerSec = c.Loop.OverrunLogPerSec
	if r.OverrunLogPerSec <= 0 {
		r.OverrunLogPerSec = 1
	}
	if c.Loop.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("loop.queue_size: must be >= 0"))
	}
	r.QueueSize = c.Loop.QueueSize

	if r.InitialMode, err = control.ParseMode(c.Control.InitialMode); err != nil {
		errs = append(errs, fmt.Errorf("control.initial_mode: %w", err))
	}

	if raw := strings.TrimSpace(c.Robot.SelfCheck); raw != "" {
		spec, err := trigger.ParseSchedule(raw)
		if err == nil {
			_, err = spec.Compile()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("robot.self_check: %w", err))
		} else {
			r.SelfCheck = &spec
		}
	}
	r.Location = time.Local
	if tz := strings.TrimSpace(c.Robot.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			errs = append(errs, fmt.Errorf("robot.timezone: %w", err))
		} else {
			r.Location = loc
		}
	}
	if r.AutoTimeout, err = ParseDurationOrDefault("robot.auto_timeout", c.Robot.AutoTimeout, 3*time.Second); err != nil {
		errs = append(errs, err)
	}

	if d := c.Debug; d.Enabled {
		addr := strings.TrimSpace(d.Addr)
		if addr == "" {
			addr = debug.DefaultAddr
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Errorf("debug.addr: %w", err))
		} else if strings.TrimSpace(d.Token) == "" && !d.AllowInsecure && !debug.IsLoopbackAddr(addr) {
			errs = append(errs, fmt.Errorf("debug.addr: %q is not loopback; set debug.token or debug.allow_insecure", addr))
		}
	}

	if j := c.Journal; j != nil {
		switch strings.ToLower(strings.TrimSpace(j.Driver)) {
		case "", "none", "file", "sqlite":
		default:
			errs = append(errs, fmt.Errorf("journal.driver: unknown driver %q", j.Driver))
		}
		if r.JournalBusyTimeout, err = ParseDurationField("journal.busy_timeout", j.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
		r.JournalBuffer = j.Buffer
		if r.JournalBuffer <= 0 {
			r.JournalBuffer = DefaultJournalBuffer
		}
	}

	return r, errors.Join(errs...)
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// DebugServerConfig converts the debug section to server settings.
func (c *Config) DebugServerConfig() debug.Config {
	return debug.Config{
		Enabled:       c.Debug.Enabled,
		Addr:          strings.TrimSpace(c.Debug.Addr),
		Token:         strings.TrimSpace(c.Debug.Token),
		AllowInsecure: c.Debug.AllowInsecure,
	}
}

// LogConfig converts the logging section to logx settings.
func (c *Config) LogConfig() logx.Config {
	return logx.Config{
		Level:   c.Logging.Level,
		Console: c.Logging.Console,
		File: logx.FileConfig{
			Enabled: c.Logging.File.Enabled,
			Path:    c.Logging.File.Path,
		},
	}
}
