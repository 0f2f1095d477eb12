package config

import (
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Validate checks the station against a plan with the given number of boxes.
func (s *Station) Validate(boxes int) error {
	if s.Serial.BaudRate <= 0 {
		return pkgerrors.Wrapf(ErrInvalidConfig, "serial.baudRate must be positive, got %d", s.Serial.BaudRate)
	}
	if s.Serial.ReadTimeout <= 0 {
		return pkgerrors.Wrapf(ErrInvalidConfig, "serial.readTimeout must be positive, got %s", s.Serial.ReadTimeout)
	}
	if s.Serial.SettleDelay <= 0 {
		return pkgerrors.Wrapf(ErrInvalidConfig, "serial.settleDelay must be positive, got %s", s.Serial.SettleDelay)
	}
	if s.Temperature.Min >= s.Temperature.Max {
		return pkgerrors.Wrapf(ErrInvalidConfig, "temperature.min (%g) must be below temperature.max (%g)", s.Temperature.Min, s.Temperature.Max)
	}

	st := s.Stabilization
	if st.Window <= 0 {
		return pkgerrors.Wrapf(ErrInvalidConfig, "stabilization.window must be positive, got %d", st.Window)
	}
	if st.Tolerance <= 0 {
		return pkgerrors.Wrapf(ErrInvalidConfig, "stabilization.tolerance must be positive, got %g", st.Tolerance)
	}
	if st.Interval <= 0 || st.Timeout <= 0 {
		return pkgerrors.Wrapf(ErrInvalidConfig, "stabilization.interval and stabilization.timeout must be positive, got %s and %s", st.Interval, st.Timeout)
	}

	for i, p := range s.Verify {
		if p.Box < 0 || p.Box >= boxes {
			return pkgerrors.Wrapf(ErrInvalidConfig, "verify[%d]: box %d is not configured (%d boxes)", i, p.Box, boxes)
		}
		if strings.TrimSpace(p.Query) == "" {
			return pkgerrors.Wrapf(ErrInvalidConfig, "verify[%d]: empty query", i)
		}
	}

	if aux := s.Auxiliary; aux.Enabled {
		if aux.Box < 0 || aux.Box >= boxes {
			return pkgerrors.Wrapf(ErrInvalidConfig, "auxiliaryShutoff: box %d is not configured (%d boxes); disable it explicitly if the station has no such box", aux.Box, boxes)
		}
		if len(aux.Channels) == 0 {
			return pkgerrors.Wrap(ErrInvalidConfig, "auxiliaryShutoff: no channels")
		}
	}

	return nil
}
