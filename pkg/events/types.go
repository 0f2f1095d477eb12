package events

import "encoding/json"

// Event names
const (
	PhaseChanged = "sequencer.phase"
	Sample       = "sequencer.sample"
)

// Event is a named JSON payload, sent to status clients as a server-sent event.
type Event struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// PhaseEvent is the payload of PhaseChanged.
type PhaseEvent struct {
	Kind    string `json:"kind"`
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message,omitempty"`
	Ts      int64  `json:"ts"`
}

// SampleEvent is the payload of Sample, published once per stabilization poll.
type SampleEvent struct {
	Cycle       int       `json:"cycle"`
	Readings    []Reading `json:"readings"`
	InTolerance bool      `json:"inTolerance"`
	Window      []bool    `json:"window"`
	Stable      bool      `json:"stable"`
	Ts          int64     `json:"ts"`
}

// Reading is one error signal. Value is nil when the box gave no usable answer.
type Reading struct {
	Box     int      `json:"box"`
	Card    int      `json:"card"`
	Channel int      `json:"channel"`
	Value   *float64 `json:"value"`
}

// DecodeAs decodes the event payload into T. Empty data yields the zero value.
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
