package ice

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultAmbient = 20.0
	defaultDecay   = 0.5
)

// Simulator answers ICE commands like a box holding a fixed set of cards.
// Servo error signals shrink by Decay on every "TError?" while the servo is
// on, so temperature loops settle after a predictable number of polls.
type Simulator struct {
	Ambient float64
	Decay   float64

	cards  map[int]*simCard
	active int
}

type simCard struct {
	channels map[int]*simServo
	laser    bool
	outputs  map[int]bool
	limit    float64
	current  float64
}

type simServo struct {
	setpoint float64
	min, max float64
	gain     float64
	on       bool
	err      float64
}

// NewSimulator returns a box holding cards.
func NewSimulator(cards ...int) *Simulator {
	s := &Simulator{
		Ambient: defaultAmbient,
		Decay:   defaultDecay,
		cards:   make(map[int]*simCard, len(cards)),
		active:  NoCard,
	}
	for _, c := range cards {
		s.cards[c] = &simCard{
			channels: map[int]*simServo{},
			outputs:  map[int]bool{},
		}
	}
	return s
}

// Port returns a fresh MockPort backed by the simulator.
func (s *Simulator) Port() *MockPort {
	return NewMockPort(s.Respond)
}

// Cards returns the simulated card numbers in order.
func (s *Simulator) Cards() []int {
	cards := make([]int, 0, len(s.cards))
	for c := range s.cards {
		cards = append(cards, c)
	}
	sort.Ints(cards)
	return cards
}

// ServoOn reports whether the servo of channel ch on card is running.
func (s *Simulator) ServoOn(card, ch int) bool {
	c, ok := s.cards[card]
	if !ok {
		return false
	}
	sv, ok := c.channels[ch]
	return ok && sv.on
}

// LaserOn reports whether the laser of card is on.
func (s *Simulator) LaserOn(card int) bool {
	c, ok := s.cards[card]
	return ok && c.laser
}

// OutputOn reports whether output n of card is on.
func (s *Simulator) OutputOn(card, n int) bool {
	c, ok := s.cards[card]
	return ok && c.outputs[n]
}

// SetOutput forces output n of card, e.g. to start a shutdown from a running system.
func (s *Simulator) SetOutput(card, n int, on bool) {
	if c, ok := s.cards[card]; ok {
		c.outputs[n] = on
	}
}

// SetLaser forces the laser of card.
func (s *Simulator) SetLaser(card int, on bool) {
	if c, ok := s.cards[card]; ok {
		c.laser = on
	}
}

// SetServo forces the servo of channel ch on card.
func (s *Simulator) SetServo(card, ch int, on bool) {
	if c, ok := s.cards[card]; ok {
		c.servo(ch).on = on
	}
}

func (c *simCard) servo(ch int) *simServo {
	sv, ok := c.channels[ch]
	if !ok {
		sv = &simServo{}
		c.channels[ch] = sv
	}
	return sv
}

// Respond answers one command line.
func (s *Simulator) Respond(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return reply("")
	}

	if fields[0] == "#slave" {
		if len(fields) != 2 {
			return reply(invalidCommandMarker)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return reply(invalidCommandMarker)
		}
		s.active = n
		return reply(fields[1])
	}

	card, ok := s.cards[s.active]
	if !ok {
		return reply(invalidCommandMarker)
	}

	resp, ok := card.respond(s, fields)
	if !ok {
		return reply(invalidCommandMarker)
	}
	return reply(resp)
}

func (c *simCard) respond(s *Simulator, fields []string) (string, bool) {
	args := fields[1:]

	switch fields[0] {
	case "TempSet", "TempMin", "TempMax", "Gain":
		ch, v, ok := channelValue(args)
		if !ok {
			return "", false
		}
		sv := c.servo(ch)
		switch fields[0] {
		case "TempSet":
			sv.setpoint = v
			sv.err = v - s.Ambient
		case "TempMin":
			sv.min = v
		case "TempMax":
			sv.max = v
		case "Gain":
			sv.gain = v
		}
		return formatValue(v), true
	case "TempSet?":
		ch, ok := channel(args)
		if !ok {
			return "", false
		}
		return formatValue(c.servo(ch).setpoint), true
	case "TError?":
		ch, ok := channel(args)
		if !ok {
			return "", false
		}
		sv := c.servo(ch)
		if sv.on {
			sv.err *= s.Decay
		}
		return strconv.FormatFloat(sv.err, 'f', 6, 64), true
	case "Servo":
		if len(args) != 2 {
			return "", false
		}
		ch, ok := channel(args[:1])
		if !ok {
			return "", false
		}
		on, ok := parseOnOff(args[1])
		if !ok {
			return "", false
		}
		c.servo(ch).on = on
		return args[1], true
	case "CurrLim", "CurrSet":
		if len(args) != 1 {
			return "", false
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil || math.IsNaN(v) {
			return "", false
		}
		if fields[0] == "CurrLim" {
			c.limit = v
		} else {
			c.current = v
		}
		return formatValue(v), true
	case "Laser":
		switch len(args) {
		case 1:
			on, ok := parseOnOff(args[0])
			if !ok {
				return "", false
			}
			c.laser = on
			return args[0], true
		case 2:
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return "", false
			}
			on, ok := parseOnOff(args[1])
			if !ok {
				return "", false
			}
			c.outputs[n] = on
			return args[1], true
		}
		return "", false
	case "Laser?":
		return onOff(c.laser), true
	}

	return "", false
}

func reply(s string) string {
	return s + lineTerminator
}

func channel(args []string) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	ch, err := strconv.Atoi(args[0])
	return ch, err == nil
}

func channelValue(args []string) (int, float64, bool) {
	if len(args) != 2 {
		return 0, 0, false
	}
	ch, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, false
	}
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return ch, v, true
}

func parseOnOff(s string) (bool, bool) {
	switch s {
	case "On":
		return true, true
	case "Off":
		return false, true
	}
	return false, false
}

// SimulatedOpener serves simulators by address.
func SimulatedOpener(boxes map[string]*Simulator) Opener {
	return func(address string) (Port, error) {
		s, ok := boxes[address]
		if !ok {
			return nil, fmt.Errorf("no simulated box at %s", address)
		}
		return s.Port(), nil
	}
}
