package debug

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "robocmd/pkg/logx"
)

func get(t *testing.T, url, bearer string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestHandlerRoutes(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop(), func(context.Context) (any, error) {
		return map[string]any{"mode": "teleop", "ticks": 42}, nil
	})
	ts := httptest.NewServer(s.Handler(Config{}))
	defer ts.Close()

	code, body := get(t, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, body = get(t, ts.URL+"/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"mode":"teleop","ticks":42}`, body)

	code, _ = get(t, ts.URL+"/debug/pprof/", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestHandlerToken(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop(), nil)
	ts := httptest.NewServer(s.Handler(Config{Token: "s3cret"}))
	defer ts.Close()

	code, _ := get(t, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = get(t, ts.URL+"/healthz", "wrong")
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = get(t, ts.URL+"/healthz", "s3cret")
	assert.Equal(t, http.StatusOK, code)
	code, _ = get(t, ts.URL+"/healthz?token=s3cret", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = get(t, ts.URL+"/status?token=s3cret", "")
	assert.Equal(t, http.StatusNotFound, code, "no status source")
}

func TestStatusError(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop(), func(context.Context) (any, error) { return nil, errors.New("loop not running") })
	ts := httptest.NewServer(s.Handler(Config{}))
	defer ts.Close()
	code, body := get(t, ts.URL+"/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "loop not running")
}

func TestReconfigureStartsAndStops(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop(), nil)
	ctx := context.Background()

	s.Reconfigure(ctx, Config{Enabled: true, Addr: "127.0.0.1:0"})
	require.Eventually(t, func() bool { return s.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	code, _ := get(t, "http://"+s.Addr()+"/healthz", "")
	assert.Equal(t, http.StatusOK, code)

	s.Reconfigure(ctx, Config{Enabled: false, Addr: "127.0.0.1:0"})
	assert.Empty(t, s.Addr())
	s.Stop(ctx)
}

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()
	assert.True(t, IsLoopbackAddr("127.0.0.1:6060"))
	assert.True(t, IsLoopbackAddr("localhost:6060"))
	assert.True(t, IsLoopbackAddr("[::1]:6060"))
	assert.False(t, IsLoopbackAddr(":6060"))
	assert.False(t, IsLoopbackAddr("10.0.0.2:6060"))
	assert.False(t, IsLoopbackAddr("nonsense"))
}
