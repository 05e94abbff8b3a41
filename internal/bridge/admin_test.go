package bridge

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/touchbridge/internal/version"
)

func newAdminMux(t *testing.T) (*testRig, *http.ServeMux) {
	t.Helper()
	r := newTestRig(t, nil)
	mux := http.NewServeMux()
	r.bridge.AttachAdminRoutes(mux)
	return r, mux
}

// loopbackRequest builds a request that tsweb's debug access check allows.
func loopbackRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

func TestAdmin_BridgeStatus(t *testing.T) {
	r, mux := newAdminMux(t)
	r.bridge.setMode(ModeStreaming)
	r.bridge.setLastCommand([]byte("{STAT}"))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, loopbackRequest(http.MethodGet, "/debug/bridge"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got struct {
		Mode        string `json:"mode"`
		Sessions    uint64 `json:"sessions"`
		LastCommand string `json:"last_command"`
		Display     string `json:"display"`
		Sensor      string `json:"sensor"`
		Version     string `json:"version"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, ModeStreaming, got.Mode)
	assert.Equal(t, uint64(1), got.Sessions)
	assert.Equal(t, "{STAT}", got.LastCommand)
	assert.Equal(t, "ALLS", got.Display)
	assert.Equal(t, "ADX", got.Sensor)
	assert.Equal(t, version.String(), got.Version)
}

func TestAdmin_Metrics(t *testing.T) {
	r, mux := newAdminMux(t)
	r.metrics.Commands.WithLabelValues("stat").Inc()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, loopbackRequest(http.MethodGet, "/debug/bridge-metrics"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `touchbridge_relay_commands_total{kind="stat"} 1`)
}

func TestAdmin_RejectsRemoteClients(t *testing.T) {
	_, mux := newAdminMux(t)

	req := httptest.NewRequest(http.MethodGet, "/debug/bridge", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.NotEqual(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"mode"`)
}

func TestAdmin_TailMethodNotAllowed(t *testing.T) {
	_, mux := newAdminMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, loopbackRequest(http.MethodPost, "/debug/tail"))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAdmin_TailStreamsLines(t *testing.T) {
	r, mux := newAdminMux(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(srv.URL + "/debug/tail")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewReader(resp.Body)
	ping, err := lines.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": ping\n", ping)

	// the handler subscribed before sending the ping
	r.bridge.Tap().Publish(`ALLS> "{STAT}"`)

	for {
		line, err := lines.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			assert.Equal(t, "data: ALLS> \"{STAT}\"\n", line)
			break
		}
	}

	// closing the tap ends the stream
	r.bridge.Tap().Close()
	_, err = lines.ReadString('\n')
	for err == nil {
		_, err = lines.ReadString('\n')
	}
}
