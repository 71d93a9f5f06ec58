package config

// Config is the on-disk configuration (JSON, or YAML coerced to JSON).
//
// All durations are Go duration strings (e.g. "20ms", "5s").
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Loop    LoopConfig    `json:"loop"`
	Control ControlConfig `json:"control"`
	Robot   RobotConfig   `json:"robot"`
	Systemd SystemdConfig `json:"systemd"`
	Debug   DebugConfig   `json:"debug"`

	// Journal is optional; nil disables lifecycle persistence.
	Journal *JournalConfig `json:"journal,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoopConfig controls the tick driver.
//
// Defaults (when fields are omitted/zero):
//   - period: "20ms"
//   - overrun_budget: same as period
//   - overrun_log_per_sec: 1
//   - queue_size: 64
type LoopConfig struct {
	Period           string `json:"period"`
	OverrunBudget    string `json:"overrun_budget,omitempty"`
	OverrunLogPerSec int    `json:"overrun_log_per_sec,omitempty"`
	QueueSize        int    `json:"queue_size,omitempty"`
}

// ControlConfig sets the control mode the process starts in. Anything other
// than "disabled" makes outputs live immediately.
type ControlConfig struct {
	InitialMode string `json:"initial_mode"`
}

// RobotConfig tunes the bundled demo robot.
type RobotConfig struct {
	// SelfCheck is a schedule (cron, interval or at:HH:MM) for the periodic
	// self-check command. Empty disables it.
	SelfCheck string `json:"self_check,omitempty"`
	// Timezone for SelfCheck (IANA name). Empty means local time.
	Timezone string `json:"timezone,omitempty"`
	// AutoTimeout bounds each timed step of the autonomous routine.
	AutoTimeout string `json:"auto_timeout,omitempty"`
	// ShootWhenLoaded picks the shooting branch of the autonomous routine when
	// the feeder reports a ball at start.
	ShootWhenLoaded bool `json:"shoot_when_loaded"`
}

// SystemdConfig controls service manager integration. Both are no-ops outside
// systemd.
type SystemdConfig struct {
	Notify   bool `json:"notify"`
	Watchdog bool `json:"watchdog"`
}

// DebugConfig controls the debug HTTP server (/healthz, /status, /debug/pprof/).
// It can be toggled and moved without a restart.
type DebugConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"` // default 127.0.0.1:6060
	Token         string `json:"token,omitempty"`
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
}

// JournalConfig controls the lifecycle journal.
//
// Example:
//
//	"journal": { "driver": "sqlite", "path": "./robocmd_journal.db" }
type JournalConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite
	Buffer      int    `json:"buffer,omitempty"`       // bus subscription buffer, default 256
}
