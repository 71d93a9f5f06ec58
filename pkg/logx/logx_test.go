package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

func TestWithAndFieldOrder(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "scheduler"))
	log.Info("scheduled", String("command", "drive"), Int("tick", 3), String("comp", "override"))
	log.Trace("hidden")

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "scheduled", got[0]["message"])
	assert.Equal(t, "override", got[0]["comp"], "later fields win")
	assert.Equal(t, float64(3), got[0]["tick"])
	assert.Contains(t, got[0]["caller"], "logx_test.go:")
}

func TestZeroLoggerIsNoop(t *testing.T) {
	t.Parallel()
	var l Logger
	assert.True(t, l.IsZero())
	l.Error("nothing", Err(nil))
	assert.False(t, Nop().IsZero())
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	lvl, ok := ParseLevel(" warning ")
	assert.True(t, ok)
	assert.Equal(t, LevelWarn, lvl)
	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}

func TestLimitedDropsAndReportsSuppressed(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	lim := NewLimited(NewWriter(&buf, "debug"), 1)
	for i := 0; i < 5; i++ {
		lim.Warn("overrun")
	}
	assert.Equal(t, uint64(4), lim.Suppressed())
	assert.Len(t, lines(t, &buf), 1)

	quiet := NewLimited(NewWriter(&buf, "warn"), 1)
	quiet.Debug("below level")
	assert.Zero(t, quiet.Suppressed(), "filtered lines don't spend budget")

	var nilLim *Limited
	nilLim.Warn("ignored")
}

func TestServiceApplySwitchesSinks(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "robocmd.log")
	svc, log := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}})
	defer svc.Close()

	log.Info("to file", String("k", "v"))
	log.Debug("filtered")
	svc.Apply(Config{Level: "debug", File: FileConfig{Enabled: true, Path: path}})
	log.Debug("now visible")
	require.NoError(t, svc.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"to file"`)
	assert.NotContains(t, string(b), "filtered")
	assert.Contains(t, string(b), "now visible")
}
