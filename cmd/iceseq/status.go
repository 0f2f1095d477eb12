package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ampac/iceseq/pkg/client"
	"github.com/ampac/iceseq/pkg/events"
	"github.com/ampac/iceseq/pkg/sequencer"
)

func NewStatusCommand() *cobra.Command {
	var (
		watch  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gInfo,
		Short:   "Show the state of a running startup or shutdown",
		Long: `Show the state of a running startup or shutdown.

The run must have been started with a status socket (the default). With
--watch, phase changes and stabilization samples are printed as they happen
until the run ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c := client.NewClient(statusSocket)
			out := cmd.OutOrStdout()

			snap, err := c.GetStatus(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				b, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
			} else {
				printSnapshot(out, snap)
			}

			if !watch || snap.Phase.Terminal() {
				return nil
			}

			fmt.Fprintln(out)
			return c.Events(ctx, func(e events.Event) error {
				if asJSON {
					fmt.Fprintf(out, "{\"name\":%q,\"data\":%s}\n", e.Name, e.Data)
					return nil
				}
				return printEvent(out, e)
			})
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&watch, "watch", "w", false, "follow the run until it ends")
	f.BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func printSnapshot(w io.Writer, snap *sequencer.Snapshot) {
	fmt.Fprintln(w, bold("Run:"))
	fmt.Fprintf(w, "  Kind: %s\n", bold("%s", snap.Kind))
	fmt.Fprintf(w, "  Phase: %s\n", phaseText(snap.Phase))
	if !snap.StartedAt.IsZero() {
		fmt.Fprintf(w, "  Started: %s (%s ago)\n", snap.StartedAt.Format(time.Kitchen), time.Since(snap.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(w, "  Boxes: %s\n", strings.Join(snap.Boxes, ", "))
	if snap.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", color.RedString(snap.Error))
	}

	if snap.Cycle == 0 {
		return
	}

	fmt.Fprintln(w, bold("Stabilization:"))
	fmt.Fprintf(w, "  Cycle: %d\n", snap.Cycle)
	fmt.Fprintf(w, "  Window: %s\n", windowText(snap.Window))
	fmt.Fprintf(w, "  Tolerance: %g\n", snap.Tolerance)
	fmt.Fprintf(w, "  Stable: %s\n", bool2Text(snap.Stable))
	for _, r := range snap.Readings {
		fmt.Fprintf(w, "  Box %d card %d channel %d: %s\n", r.Box, r.Card, r.Channel, readingText(r, snap.Tolerance))
	}
}

func printEvent(w io.Writer, e events.Event) error {
	switch e.Name {
	case events.PhaseChanged:
		p, err := events.DecodeAs[events.PhaseEvent](e)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%s %s -> %s", time.Unix(p.Ts, 0).Format(time.Kitchen), p.From, phaseText(sequencer.Phase(p.To)))
		if p.Message != "" {
			line += ": " + p.Message
		}
		fmt.Fprintln(w, line)
	case events.Sample:
		s, err := events.DecodeAs[events.SampleEvent](e)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s cycle %d %s in tolerance: %s\n",
			time.Unix(s.Ts, 0).Format(time.Kitchen), s.Cycle, windowText(s.Window), bool2Text(s.InTolerance))
	}
	return nil
}

func phaseText(p sequencer.Phase) string {
	switch p {
	case sequencer.PhaseComplete:
		return color.New(color.Bold, color.FgGreen).Sprint(p)
	case sequencer.PhaseAborted:
		return color.New(color.Bold, color.FgRed).Sprint(p)
	}
	return bold("%s", p)
}

// windowText renders the window slots in storage order.
func windowText(window []bool) string {
	var b strings.Builder
	b.WriteString("[")
	for _, ok := range window {
		if ok {
			b.WriteString(color.GreenString("#"))
		} else {
			b.WriteString(color.RedString("."))
		}
	}
	b.WriteString("]")
	return b.String()
}

func readingText(r events.Reading, tolerance float64) string {
	if r.Value == nil {
		return color.RedString("no reading")
	}
	v := *r.Value
	if v < tolerance && v > -tolerance {
		return color.GreenString("%+.6f", v)
	}
	return color.RedString("%+.6f", v)
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
