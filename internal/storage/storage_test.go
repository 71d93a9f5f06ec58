package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "robocmd/pkg/logx"
)

func sampleRecords() []Record {
	at := time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC)
	return []Record{
		{At: at, Type: "command.scheduled", RunID: "r1", Command: "drive", Requirements: []string{"drivetrain"}, Tick: 1},
		{At: at.Add(20 * time.Millisecond), Type: "command.interrupted", RunID: "r1", Command: "drive", Requirements: []string{"drivetrain"}, Interrupted: true, Reason: "replaced", Tick: 2, RanMS: 20},
		{At: at.Add(40 * time.Millisecond), Type: "control.mode", Meta: `{"from":"disabled","to":"teleop"}`},
	}
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "none"}, logx.Nop())
	require.NoError(t, err)
	assert.Nil(t, st)

	_, err = Open(Config{Driver: "mongo", Path: "x"}, logx.Nop())
	assert.Error(t, err)
	_, err = Open(Config{Driver: "file"}, logx.Nop())
	assert.Error(t, err)
}

func TestDriversRoundTripRecent(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"file", "sqlite"} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "nested", "journal.db")
			st, err := Open(Config{Driver: driver, Path: path, BusyTimeout: time.Second}, logx.Nop())
			require.NoError(t, err)
			require.NotNil(t, st)

			ctx := context.Background()
			recs := sampleRecords()
			require.NoError(t, st.Append(ctx, recs[:2]...))
			require.NoError(t, st.Append(ctx, recs[2]))

			got, err := st.Recent(ctx, 2)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "command.interrupted", got[0].Type)
			assert.True(t, got[0].Interrupted)
			assert.Equal(t, []string{"drivetrain"}, got[0].Requirements)
			assert.Equal(t, int64(20), got[0].RanMS)
			assert.Equal(t, "control.mode", got[1].Type)
			assert.True(t, got[1].At.Equal(recs[2].At))

			all, err := st.Recent(ctx, 10)
			require.NoError(t, err)
			assert.Len(t, all, 3)

			require.NoError(t, st.Close())
		})
	}
}

func TestFileStoreSkipsTornLine(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "j.json")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Append(context.Background(), sampleRecords()[0]))

	f, err := os.OpenFile(filepath.Join(filepath.Dir(path), "j.journal.jsonl"), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(`{"type":"command.fin`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := st.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFileStoreClosed(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "j")}, logx.Nop())
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.NoError(t, st.Close())
	assert.ErrorIs(t, st.Append(context.Background(), Record{Type: "x"}), ErrClosed)
}
