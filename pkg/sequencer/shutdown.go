package sequencer

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ampac/iceseq/pkg/ice"
)

// shutdown never disables a servo while a laser may still be on.
func (s *Sequencer) shutdown(_ context.Context) error {
	s.setPhase(PhaseLasersDisabling, "")
	if err := s.auxiliaryShutoff(); err != nil {
		return err
	}
	if err := s.disableLasers(); err != nil {
		return err
	}
	if err := s.verifyLasersOff(); err != nil {
		return err
	}
	s.setPhase(PhaseLasersVerifiedOff, "")

	s.setPhase(PhaseServosDisabling, "")
	for _, l := range s.opts.Plan.TempLoops {
		if err := s.disableServo(l); err != nil {
			return err
		}
		logrus.WithField("loop", l.String()).Info("temperature servo disabled")
	}
	return nil
}

// auxiliaryShutoff switches off the configured outputs regardless of the
// set-value tables.
func (s *Sequencer) auxiliaryShutoff() error {
	aux := s.opts.Auxiliary
	if !aux.Enabled {
		return nil
	}

	d := s.device(aux.Box)
	if err := s.selectCard(d, aux.Card); err != nil {
		return err
	}

	steps := make([]step, 0, len(aux.Channels))
	for _, ch := range aux.Channels {
		ch := ch
		steps = append(steps, step{
			what: fmt.Sprintf("switch off output %d", ch),
			do:   func() (string, error) { return d.SetLaserChannel(ch, false) },
		})
	}
	target := fmt.Sprintf("box %d card %d", aux.Box, aux.Card)
	if err := s.runSteps(d, target, steps); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"box":      aux.Box,
		"card":     aux.Card,
		"channels": aux.Channels,
	}).Info("auxiliary outputs switched off")
	return nil
}

func (s *Sequencer) disableLasers() error {
	for _, l := range s.opts.Plan.CurrentLoops {
		d := s.device(l.Box)
		if err := s.selectCard(d, l.Card); err != nil {
			return err
		}
		err := s.runSteps(d, l.String(), []step{
			{"turn laser off", func() (string, error) { return d.SetLaser(false) }},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// verifyLasersOff queries every laser. Only an explicit "Off" counts.
func (s *Sequencer) verifyLasersOff() error {
	var notOff []string
	for _, l := range s.opts.Plan.CurrentLoops {
		d := s.device(l.Box)
		if err := s.selectCard(d, l.Card); err != nil {
			return err
		}

		state, resp, err := d.Laser()
		if err != nil && !ice.IsResponseError(err) {
			return pkgerrors.Wrapf(err, "failed to query laser on %s", l)
		}

		logrus.WithFields(logrus.Fields{
			"loop":  l.String(),
			"state": state,
		}).Debug("laser state")

		if state != ice.LaserOff {
			notOff = append(notOff, fmt.Sprintf("%s answered %q", l, strings.TrimSpace(resp)))
		}
	}

	if len(notOff) > 0 {
		return pkgerrors.Wrapf(ErrShutdownVerificationFailed,
			"leaving temperature loops on: %s", strings.Join(notOff, "; "))
	}
	return nil
}
