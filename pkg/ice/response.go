package ice

import (
	"math"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// invalidCommandMarker is the only error signal the ICE protocol has. There is
// no error code, so a substring match it is.
const invalidCommandMarker = "Invalid Command"

// ClassifyResponse returns the trimmed answer, or ErrInvalidCommand if the box
// rejected the command.
func ClassifyResponse(resp string) (string, error) {
	if strings.Contains(resp, invalidCommandMarker) {
		return "", pkgerrors.Wrapf(ErrInvalidCommand, "box answered %q", strings.TrimSpace(resp))
	}
	return strings.TrimSpace(resp), nil
}

// LaserState is the answer to a "Laser?" query.
type LaserState int

const (
	LaserUnknown LaserState = iota
	LaserOff
	LaserOn
)

func (s LaserState) String() string {
	switch s {
	case LaserOff:
		return "Off"
	case LaserOn:
		return "On"
	default:
		return "Unknown"
	}
}

// ParseLaserState reads a "Laser?" answer. Anything mentioning "On" counts as
// on; only an answer that says "Off" counts as off.
func ParseLaserState(resp string) LaserState {
	switch {
	case strings.Contains(resp, invalidCommandMarker):
		return LaserUnknown
	case strings.Contains(resp, "On"):
		return LaserOn
	case strings.Contains(resp, "Off"):
		return LaserOff
	default:
		return LaserUnknown
	}
}

func parseFloat(resp string) (float64, error) {
	text, err := ClassifyResponse(resp)
	if err != nil {
		return math.NaN(), err
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN(), pkgerrors.Wrapf(ErrMalformedResponse, "expected a number, got %q", text)
	}
	return v, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func onOff(on bool) string {
	if on {
		return "On"
	}
	return "Off"
}
