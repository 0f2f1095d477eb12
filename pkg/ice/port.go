package ice

import (
	"io"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.bug.st/serial"
)

const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 100 * time.Millisecond
)

// Port is the byte transport under a Channel. A read that times out
// returns (0, nil), which is how go.bug.st/serial behaves.
type Port interface {
	io.ReadWriteCloser
}

// Opener opens the port at address.
type Opener func(address string) (Port, error)

// SerialOptions configures real serial ports.
type SerialOptions struct {
	BaudRate    int
	ReadTimeout time.Duration
}

// SerialOpener returns an Opener for 8N1 serial ports.
func SerialOpener(opts SerialOptions) Opener {
	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	return func(address string) (Port, error) {
		p, err := serial.Open(address, &serial.Mode{
			BaudRate: opts.BaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			return nil, err
		}

		if err := p.SetReadTimeout(opts.ReadTimeout); err != nil {
			_ = p.Close()
			return nil, pkgerrors.Wrapf(err, "failed to set read timeout on %s", address)
		}

		return p, nil
	}
}
