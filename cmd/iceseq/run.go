package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ampac/iceseq/pkg/config"
	"github.com/ampac/iceseq/pkg/events"
	"github.com/ampac/iceseq/pkg/ice"
	"github.com/ampac/iceseq/pkg/sequencer"
	"github.com/ampac/iceseq/pkg/status"
	"github.com/ampac/iceseq/pkg/version"
)

// runFlags are shared by startup and shutdown.
type runFlags struct {
	simulate           bool
	serveStatus        bool
	allowNonRootAccess bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.simulate, "simulate", false, "run against simulated boxes instead of serial ports")
	fl.BoolVar(&f.serveStatus, "serve-status", true, "serve run status on --status-socket while running")
	fl.BoolVar(&f.allowNonRootAccess, "allow-non-root-access", false, "let non-root users read the status socket")
}

func newRunCommand(kind sequencer.Kind, short, long string) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:     string(kind),
		Short:   short,
		Long:    long,
		GroupID: gRun,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runSequence(ctx, kind, flags); err != nil {
				return err
			}
			cmd.Printf("%s complete\n", kind)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func runSequence(ctx context.Context, kind sequencer.Kind, flags *runFlags) error {
	logrus.WithFields(logrus.Fields{
		"version": version.Version,
		"commit":  version.GitCommit,
		"kind":    kind,
	}).Info("iceseq starting")

	station, err := config.NewFile(configPath)
	if err != nil {
		return err
	}
	plan, err := station.LoadPlan()
	if err != nil {
		return err
	}
	if err := station.Validate(len(plan.Addresses)); err != nil {
		return err
	}
	logrus.WithFields(station.LogrusFields()).Info("station loaded")

	opener := ice.SerialOpener(ice.SerialOptions{
		BaudRate:    station.Serial.BaudRate,
		ReadTimeout: station.Serial.ReadTimeout,
	})
	if flags.simulate {
		logrus.Warn("running against simulated boxes, no hardware is touched")
		opener = ice.SimulatedOpener(simulators(plan, station.Station))
	}

	hub := events.NewHub()
	seq := sequencer.New(sequencer.Options{
		Plan:                 plan,
		Open:                 opener,
		SettleDelay:          station.Serial.SettleDelay,
		Probes:               station.Probes(len(plan.Addresses)),
		Auxiliary:            station.Auxiliary,
		TempMin:              station.Temperature.Min,
		TempMax:              station.Temperature.Max,
		Window:               station.Stabilization.Window,
		Tolerance:            station.Stabilization.Tolerance,
		PollInterval:         station.Stabilization.Interval,
		Timeout:              station.Stabilization.Timeout,
		DisableServosOnAbort: station.Stabilization.DisableServosOnAbort,
		Hub:                  hub,
	})

	if flags.serveStatus && statusSocket != "" {
		srv := status.NewServer(seq, hub)
		if err := srv.Start(statusSocket, flags.allowNonRootAccess); err != nil {
			// status is a convenience, the run goes on without it
			logrus.Warnf("status server not started: %v", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Stop(sctx); err != nil {
					logrus.Errorf("failed to shutdown status server: %v", err)
				}
			}()
		}
	}

	if kind == sequencer.KindShutdown {
		return seq.Shutdown(ctx)
	}
	return seq.Startup(ctx)
}
