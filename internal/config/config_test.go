package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robocmd/internal/control"
	"robocmd/internal/trigger"
)

const sampleYAML = `
logging:
  level: debug
  console: true
loop:
  period: 10ms
  overrun_log_per_sec: 2
control:
  initial_mode: teleop
robot:
  self_check: "every:5s"
  auto_timeout: 2s
  shoot_when_loaded: true
journal:
  driver: sqlite
  path: ./journal.db
  busy_timeout: 2s
`

func TestDecodeYAMLAndResolve(t *testing.T) {
	t.Parallel()
	cfg, err := Decode("robocmd.yaml", []byte(sampleYAML))
	require.NoError(t, err)

	r, err := cfg.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, r.Period)
	assert.Equal(t, 10*time.Millisecond, r.OverrunBudget, "budget defaults to period")
	assert.Equal(t, 2, r.OverrunLogPerSec)
	assert.Equal(t, control.ModeTeleop, r.InitialMode)
	require.NotNil(t, r.SelfCheck)
	assert.Equal(t, trigger.SpecInterval, r.SelfCheck.Kind)
	assert.Equal(t, 2*time.Second, r.AutoTimeout)
	assert.Equal(t, 2*time.Second, r.JournalBusyTimeout)
	assert.Equal(t, DefaultJournalBuffer, r.JournalBuffer)
	assert.True(t, cfg.Robot.ShootWhenLoaded)
}

func TestDecodeIsStrict(t *testing.T) {
	t.Parallel()
	_, err := Decode("c.json", []byte(`{"loop":{"period":"10ms","tick":"1s"}}`))
	assert.Error(t, err, "unknown field")

	_, err = Decode("c.json", []byte(`{"loop":{}} {"loop":{}}`))
	assert.Error(t, err, "trailing data")

	_, err = Decode("c.yml", []byte("loop: [unclosed"))
	assert.Error(t, err)

	cfg, err := Decode("empty.yaml", nil)
	require.NoError(t, err)
	r, err := cfg.Resolve()
	require.NoError(t, err)
	assert.Equal(t, DefaultPeriod, r.Period)
	assert.Equal(t, control.ModeDisabled, r.InitialMode)
	assert.Nil(t, r.SelfCheck)
}

func TestResolveReportsEveryBadKey(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Logging: LoggingConfig{Level: "loud", File: LoggingFile{Enabled: true}},
		Loop:    LoopConfig{Period: "fast"},
		Control: ControlConfig{InitialMode: "sandstorm"},
		Robot:   RobotConfig{SelfCheck: "cron:99 * * * *", Timezone: "Mars/Olympus"},
		Journal: &JournalConfig{Driver: "postgres", BusyTimeout: "-1s"},
	}
	_, err := cfg.Resolve()
	require.Error(t, err)
	for _, key := range []string{
		"logging.level", "logging.file.path", "loop.period", "control.initial_mode",
		"robot.self_check", "robot.timezone", "journal.driver", "journal.busy_timeout",
	} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	a := &Config{Loop: LoopConfig{Period: "20ms"}}
	b := &Config{Loop: LoopConfig{Period: "10ms"}, Logging: LoggingConfig{Level: "debug"}, Journal: &JournalConfig{Driver: "file"}}

	ch := Summarize(a, b)
	assert.Equal(t, []string{"journal", "logging", "loop"}, ch.Sections)
	assert.Equal(t, []string{"journal"}, ch.Restart)
	assert.True(t, ch.Has("loop"))
	assert.NotEmpty(t, ch.Fields)

	assert.True(t, Summarize(b, b).Empty())
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestManagerLoadAndReload(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "robocmd.json")
	writeFile(t, path, `{"loop":{"period":"20ms"}}`)

	m := NewManager(path)
	var validated int
	m.SetValidator(func(ctx context.Context, cfg *Config) error {
		validated++
		return nil
	})
	cfg, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20ms", cfg.Loop.Period)
	assert.Same(t, cfg, m.Get())

	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	published, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, published, "unchanged content is not republished")

	writeFile(t, path, `{"loop":{"period":"30ms"}}`)
	published, err = m.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, published)
	assert.Equal(t, "30ms", (<-sub).Loop.Period)

	writeFile(t, path, `{"loop":{"period":"nope"}}`)
	_, err = m.Reload(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "30ms", m.Get().Loop.Period, "invalid config is not committed")
	assert.Equal(t, 2, validated)
}

func TestManagerPublishKeepsNewest(t *testing.T) {
	t.Parallel()
	m := NewManager("unused.json")
	sub := m.Subscribe(1)
	m.publish(&Config{Loop: LoopConfig{Period: "1ms"}})
	m.publish(&Config{Loop: LoopConfig{Period: "2ms"}})
	assert.Equal(t, "2ms", (<-sub).Loop.Period)
	m.Unsubscribe(sub)
	_, ok := <-sub
	assert.False(t, ok)
}

func TestManagerWatchPublishesOnWrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "robocmd.yaml")
	writeFile(t, path, "loop:\n  period: 20ms\n")
	m := NewManager(path)
	m.SetDebounce(10 * time.Millisecond)
	_, err := m.Load(context.Background())
	require.NoError(t, err)
	sub := m.Subscribe(4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// The watcher may not be registered yet; keep rewriting until a publish lands.
	require.Eventually(t, func() bool {
		writeFile(t, path, "loop:\n  period: 15ms\n")
		select {
		case cfg := <-sub:
			return cfg.Loop.Period == "15ms"
		default:
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestResolveDebugAddr(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name string
		dbg  DebugConfig
		err  string
	}{
		{name: "default loopback", dbg: DebugConfig{Enabled: true}},
		{name: "public with token", dbg: DebugConfig{Enabled: true, Addr: ":6060", Token: "t"}},
		{name: "public insecure", dbg: DebugConfig{Enabled: true, Addr: "0.0.0.0:6060", AllowInsecure: true}},
		{name: "public without token", dbg: DebugConfig{Enabled: true, Addr: ":6060"}, err: "not loopback"},
		{name: "bad addr", dbg: DebugConfig{Enabled: true, Addr: "6060"}, err: "debug.addr"},
		{name: "disabled ignores addr", dbg: DebugConfig{Addr: "6060"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Debug: tc.dbg}
			_, err := cfg.Resolve()
			if tc.err == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}

	ch := Summarize(&Config{}, &Config{Debug: DebugConfig{Enabled: true}})
	assert.Equal(t, []string{"debug"}, ch.Sections)
	assert.Empty(t, ch.Restart)
}
