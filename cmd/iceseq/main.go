package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ampac/iceseq/pkg/client"
	"github.com/ampac/iceseq/pkg/config"
	"github.com/ampac/iceseq/pkg/ice"
	"github.com/ampac/iceseq/pkg/sequencer"
	"github.com/ampac/iceseq/pkg/types"
)

var (
	logLevel     = "info"
	logFile      = ""
	configPath   = "station.yaml"
	statusSocket = "/tmp/iceseq.sock"
)

var (
	gRun          = "Run:"
	gInfo         = "Info:"
	commandGroups = []string{
		gRun,
		gInfo,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.StampMilli,
		})
	}

	if logFile != "" {
		logrus.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
		}))
	}

	return nil
}

// handleCmdError tells the operator what an error means for the hardware.
func handleCmdError(w io.Writer, err error) {
	switch {
	case errors.Is(err, ice.ErrConnectionFailed):
		fmt.Fprintln(w, "\nError: could not open an ICE box")
		fmt.Fprintln(w, "  - Check that every box is powered and plugged in")
		fmt.Fprintln(w, "  - Check the port table and that no other program holds the port")
	case errors.Is(err, sequencer.ErrIdentityMismatch):
		fmt.Fprintln(w, "\nError: the ICE boxes are not on the ports the port table says")
		fmt.Fprintln(w, "  - Swap the entries in the port table, or the cables")
		fmt.Fprintln(w, "Nothing was configured.")
	case errors.Is(err, sequencer.ErrStabilizationTimeout):
		fmt.Fprintln(w, "\nError: the temperature loops did not stabilize in time")
		fmt.Fprintln(w, "No laser was turned on. Check the setpoints and gains, then run startup again.")
	case errors.Is(err, sequencer.ErrShutdownVerificationFailed):
		fmt.Fprintln(w, "\nError: a laser could not be confirmed off")
		fmt.Fprintln(w, "The temperature servos were left running to protect the laser diodes.")
		fmt.Fprintln(w, "Turn the laser off by hand before running shutdown again.")
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, types.ErrInvalidPlan):
		fmt.Fprintln(w, "\nError: the station file or a set-value table is invalid")
		fmt.Fprintln(w, "Nothing was sent to the hardware.")
	case errors.Is(err, client.ErrRunNotActive):
		fmt.Fprintln(w, "\nError: no startup or shutdown is running")
		fmt.Fprintln(w, "Status is only served while a run started with --status-socket is in progress.")
	case errors.Is(err, client.ErrPermissionDenied):
		fmt.Fprintln(w, "\nError: Permission Denied")
		fmt.Fprintln(w, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(w, "  - Or start the run with '--allow-non-root-access'")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(os.Stderr, err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iceseq",
		Short: "iceseq brings a station of ICE laser control boxes up and down safely",
		Long: `iceseq brings a station of ICE laser control boxes up and down safely.

Startup configures every temperature servo, waits until all of them are stable
and only then energizes the lasers. Shutdown turns the lasers off, confirms it,
and only then disables the temperature servos.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&logFile, "log-file", logFile, "also write logs to this file, rotated")
	globalFlags.StringVarP(&configPath, "config", "c", configPath, "station file path")
	globalFlags.StringVar(&statusSocket, "status-socket", statusSocket, "unix socket of the status server")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewStartupCommand(),
		NewShutdownCommand(),
		NewStatusCommand(),
		NewConfigCommand(),
		NewVersionCommand(),
	)

	return cmd
}
