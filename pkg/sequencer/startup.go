package sequencer

import (
	"context"
	"math"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ampac/iceseq/pkg/events"
	"github.com/ampac/iceseq/pkg/ice"
	"github.com/ampac/iceseq/pkg/stability"
	"github.com/ampac/iceseq/pkg/types"
)

func (s *Sequencer) startup(ctx context.Context) error {
	s.setPhase(PhaseConfiguring, "")
	if err := s.configureServos(); err != nil {
		s.releaseServos()
		return err
	}

	s.setPhase(PhaseStabilizing, "")
	if err := s.stabilize(ctx); err != nil {
		s.releaseServos()
		return err
	}

	// Last chance to stop before any laser is energized.
	if err := ctx.Err(); err != nil {
		s.releaseServos()
		return pkgerrors.Wrap(err, "startup interrupted before energizing lasers")
	}

	s.setPhase(PhaseEnergizingLasers, "")
	return s.energizeLasers()
}

// configureServos writes setpoint, bounds and gain before enabling each
// servo, so that no loop ever runs with default limits.
func (s *Sequencer) configureServos() error {
	for _, l := range s.opts.Plan.TempLoops {
		l := l
		d := s.device(l.Box)
		if err := s.selectCard(d, l.Card); err != nil {
			return err
		}
		s.servos = append(s.servos, l)

		err := s.runSteps(d, l.String(), []step{
			{"set setpoint", func() (string, error) { return d.SetTemperature(l.Channel, l.Setpoint) }},
			{"set minimum temperature", func() (string, error) { return d.SetTempMin(l.Channel, s.opts.TempMin) }},
			{"set maximum temperature", func() (string, error) { return d.SetTempMax(l.Channel, s.opts.TempMax) }},
			{"set gain", func() (string, error) { return d.SetGain(l.Channel, l.Gain) }},
			{"enable servo", func() (string, error) { return d.SetServo(l.Channel, true) }},
		})
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"box":      l.Box,
			"card":     l.Card,
			"channel":  l.Channel,
			"setpoint": l.Setpoint,
			"gain":     l.Gain,
		}).Info("temperature servo enabled")
	}
	return nil
}

// stabilize polls every error signal once per interval until the detector
// reports a full window of in-tolerance cycles.
func (s *Sequencer) stabilize(ctx context.Context) error {
	s.detector = stability.New(s.opts.Window, s.opts.Tolerance)
	start := s.now()

	for cycle := 1; ; cycle++ {
		values, readings, err := s.readErrors()
		if err != nil {
			return err
		}

		ok := s.detector.RecordSample(values)
		stable := s.detector.IsStable()
		s.recordCycle(cycle, readings, ok, stable)

		elapsed := s.now().Sub(start)
		if stable {
			logrus.WithFields(logrus.Fields{
				"elapsed": elapsed.Round(time.Millisecond),
				"cycles":  cycle,
			}).Info("all temperature loops stabilized")
			return nil
		}
		if elapsed > s.opts.Timeout {
			return pkgerrors.Wrapf(ErrStabilizationTimeout,
				"temperature loops not stable after %s (%d cycles)", elapsed.Round(time.Second), cycle)
		}

		if err := s.sleep(ctx, s.opts.PollInterval); err != nil {
			return pkgerrors.Wrap(err, "stabilization interrupted")
		}
	}
}

func (s *Sequencer) readErrors() ([]float64, []events.Reading, error) {
	loops := s.opts.Plan.TempLoops
	values := make([]float64, 0, len(loops))
	readings := make([]events.Reading, 0, len(loops))

	for _, l := range loops {
		d := s.device(l.Box)
		if err := s.selectCard(d, l.Card); err != nil {
			return nil, nil, err
		}

		v, err := d.TempError(l.Channel)
		if err != nil {
			if !ice.IsResponseError(err) {
				return nil, nil, pkgerrors.Wrapf(err, "failed to read error signal on %s", l)
			}
			logrus.WithField("loop", l.String()).Warnf("unusable error signal, counting it as out of tolerance: %v", err)
			v = math.NaN()
		}

		values = append(values, v)
		r := events.Reading{Box: l.Box, Card: l.Card, Channel: l.Channel}
		if !math.IsNaN(v) {
			r.Value = &v
		}
		readings = append(readings, r)
	}

	return values, readings, nil
}

// releaseServos turns off the servos this run enabled. It is only called
// before any laser is energized.
func (s *Sequencer) releaseServos() {
	if len(s.servos) == 0 {
		return
	}
	if !s.opts.DisableServosOnAbort {
		logrus.WithField("servos", len(s.servos)).Warn("startup aborted, leaving temperature servos running")
		return
	}

	logrus.WithField("servos", len(s.servos)).Warn("startup aborted, disabling temperature servos")
	for _, l := range s.servos {
		if err := s.disableServo(l); err != nil {
			logrus.WithField("loop", l.String()).Errorf("failed to disable servo: %v", err)
		}
	}
	s.servos = nil
}

func (s *Sequencer) disableServo(l types.TempLoop) error {
	d := s.device(l.Box)
	if err := s.selectCard(d, l.Card); err != nil {
		return err
	}
	return s.runSteps(d, l.String(), []step{
		{"disable servo", func() (string, error) { return d.SetServo(l.Channel, false) }},
	})
}

// energizeLasers writes the current limit before the current, then turns
// the laser on.
func (s *Sequencer) energizeLasers() error {
	for _, l := range s.opts.Plan.CurrentLoops {
		l := l
		d := s.device(l.Box)
		if err := s.selectCard(d, l.Card); err != nil {
			return err
		}

		err := s.runSteps(d, l.String(), []step{
			{"set current limit", func() (string, error) { return d.SetCurrentLimit(l.Limit) }},
			{"set current", func() (string, error) { return d.SetCurrent(l.Current) }},
			{"turn laser on", func() (string, error) { return d.SetLaser(true) }},
		})
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"box":     l.Box,
			"card":    l.Card,
			"current": l.Current,
			"limit":   l.Limit,
		}).Info("laser energized")
	}
	return nil
}
