package ice

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionFailed is returned when the serial port of a box cannot be opened.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrDecodeFailed is returned when a box answers with bytes that are not text.
	// The raw bytes are still returned to the caller.
	ErrDecodeFailed = errors.New("failed to decode response")

	// ErrInvalidCommand is returned when a box answers "Invalid Command",
	// which usually means the active card does not understand the command.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrMalformedResponse is returned when a query answer cannot be parsed.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrChannelClosed is returned when sending on a closed channel.
	ErrChannelClosed = errors.New("channel closed")
)

// DecodeError carries the undecodable answer to a command.
type DecodeError struct {
	Command string
	Raw     []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response to %q: % x", e.Command, e.Raw)
}

func (e *DecodeError) Unwrap() error {
	return ErrDecodeFailed
}

// IsResponseError reports whether err describes the content of an answer
// (undecodable, rejected or unparsable) rather than a transport failure.
// The serial link is still usable after such an error.
func IsResponseError(err error) bool {
	return errors.Is(err, ErrDecodeFailed) ||
		errors.Is(err, ErrInvalidCommand) ||
		errors.Is(err, ErrMalformedResponse)
}
