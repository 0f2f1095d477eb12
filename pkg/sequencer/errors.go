package sequencer

import (
	"errors"

	"github.com/ampac/iceseq/pkg/ice"
)

var (
	// ErrConnectionFailed is returned when a box cannot be opened.
	ErrConnectionFailed = ice.ErrConnectionFailed

	// ErrIdentityMismatch is returned when a box rejects its probe query,
	// meaning the port table does not match the wiring.
	ErrIdentityMismatch = errors.New("box identity mismatch")

	// ErrDecodeFailed marks undecodable answers. It is logged and never aborts a run.
	ErrDecodeFailed = ice.ErrDecodeFailed

	// ErrStabilizationTimeout is returned when the temperature loops do not
	// settle in time. No laser has been energized.
	ErrStabilizationTimeout = errors.New("stabilization timeout")

	// ErrShutdownVerificationFailed is returned when a laser is not confirmed
	// off. The temperature servos are left running.
	ErrShutdownVerificationFailed = errors.New("failed to shut down lasers")

	// ErrAlreadyRun is returned when a Sequencer is started a second time.
	ErrAlreadyRun = errors.New("sequencer already ran")
)
