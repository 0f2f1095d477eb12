package types

import "fmt"

// TempLoop is one temperature servo to configure and monitor.
type TempLoop struct {
	Box      int     `json:"box" yaml:"box"`
	Card     int     `json:"card" yaml:"card"`
	Channel  int     `json:"channel" yaml:"channel"`
	Setpoint float64 `json:"setpoint" yaml:"setpoint"`
	Gain     float64 `json:"gain" yaml:"gain"`
}

func (l TempLoop) String() string {
	return fmt.Sprintf("box %d card %d channel %d", l.Box, l.Card, l.Channel)
}

// CurrentLoop is one laser to energize. Current and Limit are in mA.
type CurrentLoop struct {
	Box     int     `json:"box" yaml:"box"`
	Card    int     `json:"card" yaml:"card"`
	Current float64 `json:"current" yaml:"current"`
	Limit   float64 `json:"limit" yaml:"limit"`
}

func (l CurrentLoop) String() string {
	return fmt.Sprintf("box %d card %d", l.Box, l.Card)
}

// Probe is a query used to check that a box sits on the expected serial port.
// The box must host Card and must accept Query on it.
type Probe struct {
	Box   int    `json:"box" yaml:"box"`
	Card  int    `json:"card" yaml:"card"`
	Query string `json:"query" yaml:"query"`
}

// AuxiliaryShutoff names the outputs switched off unconditionally at the start
// of a shutdown, before any laser.
type AuxiliaryShutoff struct {
	Enabled  bool  `json:"enabled" yaml:"enabled"`
	Box      int   `json:"box" yaml:"box"`
	Card     int   `json:"card" yaml:"card"`
	Channels []int `json:"channels" yaml:"channels"`
}
