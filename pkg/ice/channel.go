package ice

import (
	"bytes"
	"errors"
	"io"
	"time"
	"unicode/utf8"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultSettleDelay is how long to wait after a write before reading.
	// The protocol has no framing or ack, so this is the only guarantee
	// that a box has processed a command before the next one is issued.
	DefaultSettleDelay = 10 * time.Millisecond

	lineTerminator   = "\r\n"
	maxResponseBytes = 256
)

// Channel is a request/response link to one box.
type Channel struct {
	address string
	port    Port
	settle  time.Duration
	sleep   func(time.Duration)

	// bytes received after the end of the previous line
	pending []byte
	closed  bool
}

// NewChannel wraps an already opened port.
func NewChannel(address string, port Port, settle time.Duration) *Channel {
	return &Channel{
		address: address,
		port:    port,
		settle:  settle,
		sleep:   time.Sleep,
	}
}

// OpenChannel opens the port at address.
func OpenChannel(address string, open Opener, settle time.Duration) (*Channel, error) {
	logrus.WithField("address", address).Debug("Opening ICE box")

	port, err := open(address)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrConnectionFailed, "could not open %s: %v", address, err)
	}

	return NewChannel(address, port, settle), nil
}

// Address returns the serial address of the channel.
func (c *Channel) Address() string {
	return c.address
}

// Send writes command followed by CRLF, waits the settle delay and reads one
// line. A read timeout yields whatever arrived, possibly nothing. Nothing is
// retried here.
func (c *Channel) Send(command string) (string, error) {
	if c.closed {
		return "", pkgerrors.Wrapf(ErrChannelClosed, "cannot send %q to %s", command, c.address)
	}

	logrus.WithFields(logrus.Fields{
		"address": c.address,
		"command": command,
	}).Trace("Sending ICE command")

	if _, err := c.port.Write([]byte(command + lineTerminator)); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to write %q to %s", command, c.address)
	}

	c.sleep(c.settle)

	raw, err := c.readLine()
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to read response to %q from %s", command, c.address)
	}

	if !utf8.Valid(raw) {
		logrus.WithFields(logrus.Fields{
			"address": c.address,
			"command": command,
			"raw":     raw,
		}).Warn("Failed to decode ICE response")
		return string(raw), &DecodeError{Command: command, Raw: raw}
	}

	resp := string(raw)
	logrus.WithFields(logrus.Fields{
		"address":  c.address,
		"command":  command,
		"response": resp,
	}).Trace("ICE command succeeded")

	return resp, nil
}

func (c *Channel) readLine() ([]byte, error) {
	buf := make([]byte, maxResponseBytes)
	for {
		if i := bytes.IndexByte(c.pending, '\n'); i >= 0 {
			return c.take(i + 1), nil
		}
		if len(c.pending) >= maxResponseBytes {
			return c.take(len(c.pending)), nil
		}

		n, err := c.port.Read(buf[:maxResponseBytes-len(c.pending)])
		c.pending = append(c.pending, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return c.take(len(c.pending)), nil
			}
			return nil, err
		}
		// read timeout
		if n == 0 {
			return c.take(len(c.pending)), nil
		}
	}
}

func (c *Channel) take(n int) []byte {
	line := make([]byte, n)
	copy(line, c.pending[:n])
	c.pending = c.pending[n:]
	if len(c.pending) == 0 {
		c.pending = nil
	}
	return line
}

// Close releases the port. It never fails and only the first call reaches
// the port.
func (c *Channel) Close() {
	if c.closed {
		return
	}
	c.closed = true

	logrus.WithField("address", c.address).Debug("Closing ICE box")
	if err := c.port.Close(); err != nil {
		logrus.WithField("address", c.address).Warnf("failed to close port: %v", err)
	}
}
