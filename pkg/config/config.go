package config

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ampac/iceseq/pkg/ice"
	"github.com/ampac/iceseq/pkg/stability"
	"github.com/ampac/iceseq/pkg/types"
)

// ErrInvalidConfig is returned when the station file or a set-value table
// cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Station holds the tunables of an ICE station. Fields missing from the file
// keep their defaults.
type Station struct {
	Serial        SerialConfig           `yaml:"serial"`
	Temperature   TemperatureConfig      `yaml:"temperature"`
	Stabilization StabilizationConfig    `yaml:"stabilization"`
	Verify        []types.Probe          `yaml:"verify,omitempty"`
	Auxiliary     types.AuxiliaryShutoff `yaml:"auxiliaryShutoff"`
	Tables        TablesConfig           `yaml:"tables"`
}

// SerialConfig configures the serial link to every box.
type SerialConfig struct {
	BaudRate    int           `yaml:"baudRate"`
	ReadTimeout time.Duration `yaml:"readTimeout"`
	SettleDelay time.Duration `yaml:"settleDelay"`
}

// TemperatureConfig holds the servo bounds written before a servo is enabled.
type TemperatureConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// StabilizationConfig controls the wait for the temperature loops to settle.
type StabilizationConfig struct {
	Window    int           `yaml:"window"`
	Tolerance float64       `yaml:"tolerance"`
	Interval  time.Duration `yaml:"interval"`
	Timeout   time.Duration `yaml:"timeout"`
	// DisableServosOnAbort turns the enabled servos back off when a startup
	// is aborted before any laser is energized.
	DisableServosOnAbort bool `yaml:"disableServosOnAbort"`
}

// TablesConfig locates the set-value tables. Relative paths are resolved
// against the directory of the station file.
type TablesConfig struct {
	Temperature string `yaml:"temperature"`
	Current     string `yaml:"current"`
	Ports       string `yaml:"ports"`
}

// Default returns the station used when no file is present.
func Default() *Station {
	return &Station{
		Serial: SerialConfig{
			BaudRate:    ice.DefaultBaudRate,
			ReadTimeout: ice.DefaultReadTimeout,
			SettleDelay: ice.DefaultSettleDelay,
		},
		Temperature: TemperatureConfig{
			Min: 10,
			Max: 35,
		},
		Stabilization: StabilizationConfig{
			Window:               stability.DefaultWindowSize,
			Tolerance:            stability.DefaultTolerance,
			Interval:             time.Second,
			Timeout:              6 * time.Minute,
			DisableServosOnAbort: true,
		},
		// The amplifier outputs on card 6 of the second box feed the lasers and
		// are always switched off first.
		Auxiliary: types.AuxiliaryShutoff{
			Enabled:  true,
			Box:      1,
			Card:     6,
			Channels: []int{1, 2},
		},
		Tables: TablesConfig{
			Temperature: "tempsetvalues.csv",
			Current:     "currentsetvalues.csv",
			Ports:       "comportvalues.csv",
		},
	}
}

// DefaultProbes identifies the first two boxes by a card only they host.
func DefaultProbes() []types.Probe {
	return []types.Probe{
		{Box: 0, Card: 4, Query: "TempSet? 4"},
		{Box: 1, Card: 3, Query: "TempSet? 4"},
	}
}

// Probes returns the configured port probes, or the default probes for the
// boxes that exist.
func (s *Station) Probes(boxes int) []types.Probe {
	if len(s.Verify) > 0 {
		return s.Verify
	}

	var probes []types.Probe
	for _, p := range DefaultProbes() {
		if p.Box < boxes {
			probes = append(probes, p)
		}
	}
	return probes
}

// LogrusFields summarizes the station for logging.
func (s *Station) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"baudRate":             s.Serial.BaudRate,
		"readTimeout":          s.Serial.ReadTimeout,
		"settleDelay":          s.Serial.SettleDelay,
		"tempMin":              s.Temperature.Min,
		"tempMax":              s.Temperature.Max,
		"window":               s.Stabilization.Window,
		"tolerance":            s.Stabilization.Tolerance,
		"interval":             s.Stabilization.Interval,
		"timeout":              s.Stabilization.Timeout,
		"disableServosOnAbort": s.Stabilization.DisableServosOnAbort,
		"auxiliaryShutoff":     s.Auxiliary.Enabled,
	}
}
