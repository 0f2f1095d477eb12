package ice

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimulatorRejectsUnknownCard(t *testing.T) {
	s := NewSimulator(4)

	assert.Equal(t, "3\r\n", s.Respond("#slave 3"))
	assert.Equal(t, "Invalid Command\r\n", s.Respond("TempSet? 4"))

	s.Respond("#slave 4")
	assert.Equal(t, "0\r\n", s.Respond("TempSet? 4"))
}

func TestSimulatorErrorSignalSettles(t *testing.T) {
	s := NewSimulator(4)
	s.Respond("#slave 4")
	s.Respond("TempSet 2 25")

	// servo off: error holds
	v, _ := strconv.ParseFloat(strings.TrimSpace(s.Respond("TError? 2")), 64)
	assert.InDelta(t, 5.0, v, 1e-9)

	s.Respond("Servo 2 On")
	assert.True(t, s.ServoOn(4, 2))

	for i := 0; i < 20; i++ {
		v, _ = strconv.ParseFloat(strings.TrimSpace(s.Respond("TError? 2")), 64)
	}
	assert.Less(t, math.Abs(v), 0.005)
}

func TestSimulatorLaser(t *testing.T) {
	s := NewSimulator(6)
	s.Respond("#slave 6")

	assert.Equal(t, "Off\r\n", s.Respond("Laser?"))
	s.Respond("Laser On")
	assert.True(t, s.LaserOn(6))
	assert.Equal(t, "On\r\n", s.Respond("Laser?"))

	s.SetOutput(6, 1, true)
	s.Respond("Laser 1 Off")
	assert.False(t, s.OutputOn(6, 1))
}
