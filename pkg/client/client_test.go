package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ampac/iceseq/pkg/events"
	"github.com/ampac/iceseq/pkg/sequencer"
	"github.com/ampac/iceseq/pkg/status"
	"github.com/ampac/iceseq/pkg/version"
)

type fixedSource sequencer.Snapshot

func (f fixedSource) Snapshot() sequencer.Snapshot {
	return sequencer.Snapshot(f)
}

// socketPath returns a short socket path; unix socket paths are length limited.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "iceseq")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func startServer(t *testing.T, hub *events.Hub) *Client {
	t.Helper()
	sock := socketPath(t)
	srv := status.NewServer(fixedSource{
		Kind:      sequencer.KindShutdown,
		Phase:     sequencer.PhaseLasersDisabling,
		Boxes:     []string{"COM3"},
		Window:    []bool{false, false, false, false, false},
		Tolerance: 0.005,
	}, hub)
	require.NoError(t, srv.Start(sock, false))
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return NewClient(sock)
}

func TestClientGetStatus(t *testing.T) {
	c := startServer(t, nil)
	ctx := context.Background()

	snap, err := c.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, sequencer.KindShutdown, snap.Kind)
	assert.Equal(t, sequencer.PhaseLasersDisabling, snap.Phase)

	w, err := c.GetWindow(ctx)
	require.NoError(t, err)
	assert.Len(t, w.Window, 5)
	assert.False(t, w.Stable)

	v, err := c.GetVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, version.Version, v)
}

func TestClientNotFound(t *testing.T) {
	c := startServer(t, nil)

	_, err := c.Get(context.Background(), "/limit")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientNoRun(t *testing.T) {
	c := NewClient(socketPath(t))

	_, err := c.GetStatus(context.Background())
	assert.ErrorIs(t, err, ErrRunNotActive)
}

func TestClientEvents(t *testing.T) {
	hub := events.NewHub()
	c := startServer(t, hub)

	go func() {
		for hub.Subscribers() == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		hub.Publish(events.PhaseChanged, events.PhaseEvent{Kind: "shutdown", From: "PortsVerified", To: "LasersDisabling"})
		hub.Publish(events.PhaseChanged, events.PhaseEvent{Kind: "shutdown", From: "LasersDisabling", To: "LasersVerifiedOff"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errDone := errors.New("done")
	var phases []string
	err := c.Events(ctx, func(e events.Event) error {
		p, err := events.DecodeAs[events.PhaseEvent](e)
		if err != nil {
			return err
		}
		phases = append(phases, p.To)
		if len(phases) == 2 {
			return errDone
		}
		return nil
	})

	require.ErrorIs(t, err, errDone)
	assert.Equal(t, []string{"LasersDisabling", "LasersVerifiedOff"}, phases)
}
