package sequencer

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ampac/iceseq/pkg/events"
)

// Snapshot is the observable state of a run.
type Snapshot struct {
	Kind      Kind             `json:"kind,omitempty"`
	Phase     Phase            `json:"phase"`
	StartedAt time.Time        `json:"startedAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Boxes     []string         `json:"boxes"`
	Cycle     int              `json:"cycle"`
	Readings  []events.Reading `json:"readings,omitempty"`
	Window    []bool           `json:"window,omitempty"`
	Tolerance float64          `json:"tolerance"`
	Stable    bool             `json:"stable"`
	Error     string           `json:"error,omitempty"`
}

// Snapshot returns the current state. It is safe to call from any goroutine.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	snap.Boxes = append([]string(nil), s.snap.Boxes...)
	snap.Readings = append([]events.Reading(nil), s.snap.Readings...)
	snap.Window = append([]bool(nil), s.snap.Window...)
	return snap
}

// Phase returns the current phase.
func (s *Sequencer) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Phase
}

func (s *Sequencer) begin(kind Kind) {
	now := s.now()

	s.mu.Lock()
	s.snap.Kind = kind
	s.snap.StartedAt = now
	s.snap.UpdatedAt = now
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"kind":  kind,
		"boxes": s.snap.Boxes,
	}).Info("run started")
}

func (s *Sequencer) setPhase(to Phase, msg string) {
	now := s.now()

	s.mu.Lock()
	from := s.snap.Phase
	kind := s.snap.Kind
	s.snap.Phase = to
	s.snap.UpdatedAt = now
	s.mu.Unlock()

	fields := logrus.Fields{
		"kind": kind,
		"from": from,
		"to":   to,
	}
	if msg != "" {
		fields["message"] = msg
	}
	logrus.WithFields(fields).Info("phase changed")

	s.opts.Hub.Publish(events.PhaseChanged, events.PhaseEvent{
		Kind:    string(kind),
		From:    string(from),
		To:      string(to),
		Message: msg,
		Ts:      now.Unix(),
	})
}

func (s *Sequencer) recordCycle(cycle int, readings []events.Reading, ok, stable bool) {
	now := s.now()
	window := s.detector.Window()

	s.mu.Lock()
	s.snap.Cycle = cycle
	s.snap.Readings = readings
	s.snap.Window = window
	s.snap.Tolerance = s.detector.Tolerance()
	s.snap.Stable = stable
	s.snap.UpdatedAt = now
	s.mu.Unlock()

	s.opts.Hub.Publish(events.Sample, events.SampleEvent{
		Cycle:       cycle,
		Readings:    readings,
		InTolerance: ok,
		Window:      window,
		Stable:      stable,
		Ts:          now.Unix(),
	})
}

func (s *Sequencer) finish(err error) {
	if err == nil {
		s.setPhase(PhaseComplete, "")
		return
	}

	s.mu.Lock()
	s.snap.Error = err.Error()
	s.mu.Unlock()

	logrus.WithField("kind", s.snap.Kind).Errorf("run aborted: %v", err)
	s.setPhase(PhaseAborted, err.Error())
}
