package status

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ampac/iceseq/pkg/events"
	"github.com/ampac/iceseq/pkg/sequencer"
	"github.com/ampac/iceseq/pkg/types"
	"github.com/ampac/iceseq/pkg/version"
)

type fixedSource sequencer.Snapshot

func (f fixedSource) Snapshot() sequencer.Snapshot {
	return sequencer.Snapshot(f)
}

func testSnapshot() fixedSource {
	return fixedSource{
		Kind:      sequencer.KindStartup,
		Phase:     sequencer.PhaseStabilizing,
		Boxes:     []string{"COM3", "COM4"},
		Cycle:     7,
		Window:    []bool{true, true, false, false, false},
		Tolerance: 0.005,
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(w, req)
	return w
}

func TestGetStatus(t *testing.T) {
	s := NewServer(testSnapshot(), nil)

	w := get(t, s.Handler(), "/status")
	require.Equal(t, http.StatusOK, w.Code)

	var snap sequencer.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, sequencer.PhaseStabilizing, snap.Phase)
	assert.Equal(t, []string{"COM3", "COM4"}, snap.Boxes)
	assert.Equal(t, 7, snap.Cycle)
}

func TestGetWindow(t *testing.T) {
	s := NewServer(testSnapshot(), nil)

	w := get(t, s.Handler(), "/window")
	require.Equal(t, http.StatusOK, w.Code)

	var ws types.WindowStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ws))
	assert.Equal(t, types.WindowStatus{
		Cycle:     7,
		Window:    []bool{true, true, false, false, false},
		Tolerance: 0.005,
	}, ws)
}

func TestGetVersion(t *testing.T) {
	w := get(t, NewServer(testSnapshot(), nil).Handler(), "/version")
	require.Equal(t, http.StatusOK, w.Code)

	var v string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, version.Version, v)
}

func TestEventsWithoutHub(t *testing.T) {
	w := get(t, NewServer(testSnapshot(), nil).Handler(), "/events")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamEvents(t *testing.T) {
	hub := events.NewHub()
	srv := httptest.NewServer(NewServer(testSnapshot(), hub).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(events.PhaseChanged, events.PhaseEvent{Kind: "startup", From: "Idle", To: "BoxesOpened"})

	sc := bufio.NewScanner(resp.Body)
	var name, data string
	for sc.Scan() {
		line := sc.Text()
		if line == "" && name != "" {
			break
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			switch k {
			case "event":
				name = strings.TrimSpace(v)
			case "data":
				data = strings.TrimSpace(v)
			}
		}
	}

	assert.Equal(t, events.PhaseChanged, name)
	p, err := events.DecodeAs[events.PhaseEvent](events.Event{Name: name, Data: json.RawMessage(data)})
	require.NoError(t, err)
	assert.Equal(t, "BoxesOpened", p.To)

	// closing the hub ends the stream
	hub.Close()
	for sc.Scan() {
	}
	assert.NoError(t, sc.Err())
}

func shortTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "iceseq")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func TestStartRefusesToReplaceRegularFile(t *testing.T) {
	p := filepath.Join(shortTempDir(t), "notes.txt")
	require.NoError(t, os.WriteFile(p, []byte("keep me"), 0o644))

	err := NewServer(testSnapshot(), nil).Start(p, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a socket")

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(b))
}

func TestStartReplacesStaleSocket(t *testing.T) {
	p := filepath.Join(shortTempDir(t), "s.sock")
	l, err := net.Listen("unix", p)
	require.NoError(t, err)
	l.(*net.UnixListener).SetUnlinkOnClose(false)
	require.NoError(t, l.Close())

	srv := NewServer(testSnapshot(), nil)
	require.NoError(t, srv.Start(p, false))
	require.NoError(t, srv.Stop(context.Background()))

	_, err = os.Lstat(p)
	assert.True(t, os.IsNotExist(err))
}
