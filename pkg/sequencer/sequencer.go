package sequencer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ampac/iceseq/pkg/events"
	"github.com/ampac/iceseq/pkg/ice"
	"github.com/ampac/iceseq/pkg/stability"
	"github.com/ampac/iceseq/pkg/types"
)

const (
	DefaultPollInterval = time.Second
	DefaultTimeout      = 6 * time.Minute
	DefaultTempMin      = 10.0
	DefaultTempMax      = 35.0
)

// Options configures a run.
type Options struct {
	Plan *types.Plan
	Open ice.Opener
	// SettleDelay is the wait between writing a command and reading its answer.
	// There is no way to turn it off.
	SettleDelay time.Duration

	Probes    []types.Probe
	Auxiliary types.AuxiliaryShutoff

	TempMin float64
	TempMax float64

	Window       int
	Tolerance    float64
	PollInterval time.Duration
	Timeout      time.Duration
	// DisableServosOnAbort turns enabled servos back off when a startup
	// fails before the lasers are energized.
	DisableServosOnAbort bool

	Hub *events.Hub
}

// Sequencer runs one startup or shutdown.
type Sequencer struct {
	opts Options

	devices  []*ice.Device
	detector *stability.Detector
	// temperature loops whose servo this run may have enabled
	servos []types.TempLoop
	ran    bool

	mu   sync.RWMutex
	snap Snapshot

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New returns a sequencer. Zero-valued tunables take their defaults.
func New(opts Options) *Sequencer {
	if opts.Window <= 0 {
		opts.Window = stability.DefaultWindowSize
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = stability.DefaultTolerance
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TempMin == 0 && opts.TempMax == 0 {
		opts.TempMin, opts.TempMax = DefaultTempMin, DefaultTempMax
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = ice.DefaultSettleDelay
	}
	if opts.Open == nil {
		opts.Open = ice.SerialOpener(ice.SerialOptions{})
	}

	s := &Sequencer{
		opts:  opts,
		now:   time.Now,
		sleep: sleepContext,
	}
	s.snap = Snapshot{
		Phase:     PhaseIdle,
		Tolerance: opts.Tolerance,
	}
	if opts.Plan != nil {
		s.snap.Boxes = append([]string(nil), opts.Plan.Addresses...)
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Startup configures the temperature loops, waits for them to settle and
// energizes the lasers.
func (s *Sequencer) Startup(ctx context.Context) error {
	return s.run(ctx, KindStartup, s.startup)
}

// Shutdown switches off every laser and, once all are confirmed off, every
// temperature servo.
func (s *Sequencer) Shutdown(ctx context.Context) error {
	return s.run(ctx, KindShutdown, s.shutdown)
}

func (s *Sequencer) run(ctx context.Context, kind Kind, protocol func(context.Context) error) (err error) {
	if s.ran {
		return ErrAlreadyRun
	}
	s.ran = true
	s.begin(kind)

	defer func() {
		s.closeAll()
		s.finish(err)
	}()

	if err = s.validate(); err != nil {
		return err
	}
	if err = s.openAll(); err != nil {
		return err
	}
	if err = s.verifyPorts(); err != nil {
		return err
	}

	return protocol(ctx)
}

func (s *Sequencer) validate() error {
	plan := s.opts.Plan
	if plan == nil {
		return pkgerrors.Wrap(types.ErrInvalidPlan, "no plan")
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	for _, p := range s.opts.Probes {
		if !plan.HasBox(p.Box) {
			return pkgerrors.Wrapf(types.ErrInvalidPlan, "probe on box %d: only %d boxes configured", p.Box, len(plan.Addresses))
		}
	}
	if aux := s.opts.Auxiliary; aux.Enabled && !plan.HasBox(aux.Box) {
		return pkgerrors.Wrapf(types.ErrInvalidPlan, "auxiliary shutoff on box %d: only %d boxes configured", aux.Box, len(plan.Addresses))
	}
	return nil
}

// openAll opens every box in order. Boxes opened before a failure stay in
// s.devices so that they are closed.
func (s *Sequencer) openAll() error {
	for i, addr := range s.opts.Plan.Addresses {
		d, err := ice.OpenDevice(i, addr, s.opts.Open, s.opts.SettleDelay)
		if err != nil {
			return err
		}
		s.devices = append(s.devices, d)
	}
	s.setPhase(PhaseBoxesOpened, "")
	return nil
}

func (s *Sequencer) closeAll() {
	for _, d := range s.devices {
		d.Close()
	}
	logrus.WithField("boxes", len(s.devices)).Debug("all ICE boxes closed")
}

// verifyPorts sends every probe query to its box and card. A box that
// rejects the query is not the box the port table says it is.
func (s *Sequencer) verifyPorts() error {
	for _, p := range s.opts.Probes {
		d := s.devices[p.Box]
		if err := s.selectCard(d, p.Card); err != nil {
			return err
		}

		resp, err := d.Send(p.Query)
		if err != nil && !ice.IsResponseError(err) {
			return pkgerrors.Wrapf(err, "failed to verify box %d", p.Box)
		}
		if err != nil {
			return pkgerrors.Wrapf(ErrIdentityMismatch,
				"ICE box #%d on %s not verified: %v", p.Box+1, d.Address(), err)
		}
		if _, err := ice.ClassifyResponse(resp); err != nil {
			return pkgerrors.Wrapf(ErrIdentityMismatch,
				"ICE box #%d is not on %s: card %d answered %q to %q",
				p.Box+1, d.Address(), p.Card, strings.TrimSpace(resp), p.Query)
		}

		logrus.WithFields(logrus.Fields{
			"box":     p.Box,
			"address": d.Address(),
			"card":    p.Card,
		}).Debug("box identity verified")
	}

	s.setPhase(PhasePortsVerified, "")
	return nil
}

// selectCard aborts the run when the box rejects the card, since every
// following command would reach whichever card was active before.
func (s *Sequencer) selectCard(d *ice.Device, card int) error {
	_, err := d.SelectCard(card)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ice.ErrInvalidCommand):
		return pkgerrors.Wrapf(ErrIdentityMismatch,
			"ICE box #%d on %s has no card %d: %v", d.Box()+1, d.Address(), card, err)
	case ice.IsResponseError(err):
		logrus.WithFields(logrus.Fields{
			"box":  d.Box(),
			"card": card,
		}).Warnf("unexpected answer to card selection: %v", err)
		return nil
	}
	return err
}

type step struct {
	what string
	do   func() (string, error)
}

// runSteps issues steps in order. Rejected or undecodable answers are logged;
// only transport failures stop the sequence.
func (s *Sequencer) runSteps(d *ice.Device, target string, steps []step) error {
	for _, st := range steps {
		resp, err := st.do()
		if err != nil && !ice.IsResponseError(err) {
			return pkgerrors.Wrapf(err, "failed to %s on %s", st.what, target)
		}
		if err == nil {
			_, err = ice.ClassifyResponse(resp)
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"box":    d.Box(),
				"target": target,
				"step":   st.what,
			}).Warnf("box did not accept command: %v", err)
		}
	}
	return nil
}

func (s *Sequencer) device(box int) *ice.Device {
	return s.devices[box]
}
