// Package sequencer runs the startup and shutdown protocols of an ICE
// station.
//
// A Sequencer runs exactly once. It opens one device per configured box,
// checks that every box answers on the expected port, then either
//
//   - configures and enables every temperature servo, waits for the error
//     signals to settle and energizes the lasers (Startup), or
//   - switches off the amplifier outputs and the lasers, confirms every laser
//     is off and only then disables the temperature servos (Shutdown).
//
// Whatever happens, every device opened during the run is closed before the
// run returns. Phase changes and stabilization samples are published on an
// events.Hub and mirrored in a Snapshot that other goroutines may read.
package sequencer
