package sequencer

// Phase is a step of a run.
type Phase string

const (
	PhaseIdle          Phase = "Idle"
	PhaseBoxesOpened   Phase = "BoxesOpened"
	PhasePortsVerified Phase = "PortsVerified"

	PhaseConfiguring      Phase = "Configuring"
	PhaseStabilizing      Phase = "Stabilizing"
	PhaseEnergizingLasers Phase = "EnergizingLasers"

	PhaseLasersDisabling   Phase = "LasersDisabling"
	PhaseLasersVerifiedOff Phase = "LasersVerifiedOff"
	PhaseServosDisabling   Phase = "ServosDisabling"

	PhaseComplete Phase = "Complete"
	PhaseAborted  Phase = "Aborted"
)

// Terminal reports whether no further phase follows.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseAborted
}

// Kind is the protocol a run executes.
type Kind string

const (
	KindStartup  Kind = "startup"
	KindShutdown Kind = "shutdown"
)
