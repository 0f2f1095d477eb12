package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ampac/iceseq/pkg/types"
)

func TestLoadTempLoops(t *testing.T) {
	p := writeFile(t, t.TempDir(), "temp.csv", "\ufeffName,Box,Card,Channel,Set,Gain\n"+
		"Temp1,0,4,2,25,3\n"+
		"# spare,,,,,\n"+
		"Temp2, 1, 3, 1, 22.5, 0.8\n")

	loops, err := LoadTempLoops(p)
	require.NoError(t, err)
	assert.Equal(t, []types.TempLoop{
		{Box: 0, Card: 4, Channel: 2, Setpoint: 25, Gain: 3},
		{Box: 1, Card: 3, Channel: 1, Setpoint: 22.5, Gain: 0.8},
	}, loops)
}

func TestLoadTempLoopsBadValue(t *testing.T) {
	p := writeFile(t, t.TempDir(), "temp.csv", "Temp1,0,four,2,25,3\n")
	_, err := LoadTempLoops(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), ":1:")
}

func TestLoadTempLoopsShortRow(t *testing.T) {
	p := writeFile(t, t.TempDir(), "temp.csv", "Temp1,0,4\n")
	_, err := LoadTempLoops(p)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadCurrentLoops(t *testing.T) {
	p := writeFile(t, t.TempDir(), "current.csv", "Name,Box,Card,Set,Limit\n"+
		"Current1,0,1,120,150\n")

	loops, err := LoadCurrentLoops(p)
	require.NoError(t, err)
	assert.Equal(t, []types.CurrentLoop{{Box: 0, Card: 1, Current: 120, Limit: 150}}, loops)
}

func TestLoadCurrentLoopsAboveLimit(t *testing.T) {
	p := writeFile(t, t.TempDir(), "current.csv", "Current1,0,1,200,150\n")
	_, err := LoadCurrentLoops(p)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadPortsOrdersByBoxIndex(t *testing.T) {
	p := writeFile(t, t.TempDir(), "ports.csv", "Name,Box,Port\n"+
		"COM-B,1,7\n"+
		"COM-A,0,/dev/ttyUSB0\n")

	ports, err := LoadPorts(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/ttyUSB0", "COM7"}, ports)
}

func TestLoadPortsErrors(t *testing.T) {
	tests := map[string]string{
		"out of range": "COM-A,2,6\n",
		"duplicate":    "COM-A,0,6\nCOM-B,0,7\n",
		"empty port":   "COM-A,0, \n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			p := writeFile(t, t.TempDir(), "ports.csv", content)
			_, err := LoadPorts(p)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestFileLoadPlan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tempsetvalues.csv", "Temp1,0,4,2,25,3\n")
	writeFile(t, dir, "currentsetvalues.csv", "Current1,0,1,120,150\n")
	writeFile(t, dir, "comportvalues.csv", "COM-A,0,6\n")

	f, err := NewFile(filepath.Join(dir, "station.yaml"))
	require.NoError(t, err)

	plan, err := f.LoadPlan()
	require.NoError(t, err)
	assert.Equal(t, []string{"COM6"}, plan.Addresses)
	assert.Len(t, plan.TempLoops, 1)
	assert.Len(t, plan.CurrentLoops, 1)
}

func TestFileLoadPlanUnknownBox(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tempsetvalues.csv", "Temp1,1,4,2,25,3\n")
	writeFile(t, dir, "currentsetvalues.csv", "")
	writeFile(t, dir, "comportvalues.csv", "COM-A,0,6\n")

	f, err := NewFile(filepath.Join(dir, "station.yaml"))
	require.NoError(t, err)

	_, err = f.LoadPlan()
	assert.True(t, errors.Is(err, types.ErrInvalidPlan))
}
