package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/helix-lab/helix/brcwatch/internal/gtest"
	"github.com/helix-lab/helix/brcwatch/pkg/metrics"
	"github.com/helix-lab/helix/brcwatch/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestServer_routes(t *testing.T) {
	m := metrics.New()
	m.SetConnectionCount(17)

	relay := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "relay")
	})
	tr := state.NewTracker()
	require.NoError(t, tr.ConnectionCount(time.UnixMilli(1700000000000), 17))

	s := New(Config{Gatherer: m.Registry(), Relay: relay, Status: tr, Log: gtest.NewLogger(t)})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	code, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)

	code, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "brcwatch_connection_count 17")

	code, body = get(t, srv.URL+"/ws")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "relay", body)

	code, body = get(t, srv.URL+"/status")
	assert.Equal(t, http.StatusOK, code)
	var snap state.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	assert.Equal(t, uint64(17), snap.ConnectionCount)
	assert.Nil(t, snap.LastTransaction)

	code, _ = get(t, srv.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_noRelay(t *testing.T) {
	s := New(Config{Log: gtest.NewLogger(t)})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	code, _ := get(t, srv.URL+"/ws")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_startShutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0", Log: gtest.NewLogger(t)})
	require.NoError(t, s.Start())

	code, body := get(t, "http://"+s.Addr().String()+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, strings.HasPrefix(body, "ok"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}
