package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ampac/iceseq/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestNewFileMissingUsesDefaults(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "station.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), f.Station)
}

func TestNewFileEmptyUsesDefaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "station.yaml", "  \n")
	f, err := NewFile(p)
	require.NoError(t, err)
	assert.Equal(t, Default(), f.Station)
}

func TestNewFileOverridesKeepOtherDefaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "station.yaml", `
serial:
  settleDelay: 20ms
stabilization:
  timeout: 10m
  disableServosOnAbort: false
auxiliaryShutoff:
  enabled: false
verify:
  - box: 0
    card: 2
    query: "TempSet? 1"
`)
	f, err := NewFile(p)
	require.NoError(t, err)

	assert.Equal(t, 20*time.Millisecond, f.Serial.SettleDelay)
	assert.Equal(t, 115200, f.Serial.BaudRate)
	assert.Equal(t, 10*time.Minute, f.Stabilization.Timeout)
	assert.Equal(t, time.Second, f.Stabilization.Interval)
	assert.False(t, f.Stabilization.DisableServosOnAbort)
	assert.False(t, f.Auxiliary.Enabled)
	assert.Equal(t, 5, f.Stabilization.Window)
	assert.Equal(t, []types.Probe{{Box: 0, Card: 2, Query: "TempSet? 1"}}, f.Probes(1))
}

func TestNewFileMalformed(t *testing.T) {
	p := writeFile(t, t.TempDir(), "station.yaml", "serial: [")
	_, err := NewFile(p)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "station.yaml")
	f, err := NewFile(p)
	require.NoError(t, err)
	f.Stabilization.Tolerance = 0.01
	require.NoError(t, f.Save())

	g, err := NewFile(p)
	require.NoError(t, err)
	assert.Equal(t, f.Station, g.Station)
}

func TestProbesDefaultsFollowBoxCount(t *testing.T) {
	s := Default()
	assert.Equal(t, DefaultProbes()[:1], s.Probes(1))
	assert.Equal(t, DefaultProbes(), s.Probes(2))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Station)
		boxes  int
		ok     bool
	}{
		{name: "defaults with two boxes", mutate: func(*Station) {}, boxes: 2, ok: true},
		{name: "auxiliary box missing", mutate: func(*Station) {}, boxes: 1},
		{name: "auxiliary disabled", mutate: func(s *Station) { s.Auxiliary.Enabled = false }, boxes: 1, ok: true},
		{name: "bounds inverted", mutate: func(s *Station) { s.Temperature.Min = 40 }, boxes: 2},
		{name: "zero settle delay", mutate: func(s *Station) { s.Serial.SettleDelay = 0 }, boxes: 2},
		{name: "zero window", mutate: func(s *Station) { s.Stabilization.Window = 0 }, boxes: 2},
		{name: "probe on missing box", mutate: func(s *Station) {
			s.Verify = []types.Probe{{Box: 3, Card: 1, Query: "Laser?"}}
		}, boxes: 2},
		{name: "probe without query", mutate: func(s *Station) {
			s.Verify = []types.Probe{{Box: 0, Card: 1}}
		}, boxes: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			err := s.Validate(tt.boxes)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
			}
		})
	}
}
