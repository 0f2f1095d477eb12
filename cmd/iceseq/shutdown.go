package main

import (
	"github.com/spf13/cobra"

	"github.com/ampac/iceseq/pkg/sequencer"
)

func NewShutdownCommand() *cobra.Command {
	return newRunCommand(sequencer.KindShutdown,
		"Turn the lasers off, then the temperature servos",
		`Turn the lasers off, then the temperature servos.

The auxiliary outputs are switched off first, then every laser in the current
table. Each laser is asked for its state and the temperature servos are only
disabled once all of them answer "Off". Otherwise the servos keep running.`)
}
