package main

import (
	"github.com/spf13/cobra"

	"github.com/ampac/iceseq/pkg/sequencer"
)

func NewStartupCommand() *cobra.Command {
	return newRunCommand(sequencer.KindStartup,
		"Configure the temperature servos and energize the lasers",
		`Configure the temperature servos and energize the lasers.

Every temperature loop listed in the temperature table gets its setpoint,
bounds and gain before its servo is enabled. The error signals are then polled
until all of them have stayed within tolerance for a full window. Only then are
the current limits, currents and lasers set from the current table.

If the loops do not stabilize before the timeout, no laser is turned on.`)
}
