package types

import (
	"errors"
	"sort"

	pkgerrors "github.com/pkg/errors"
)

// ErrInvalidPlan is returned when a plan refers to boxes that do not exist.
var ErrInvalidPlan = errors.New("invalid plan")

// Plan is everything a run needs to know about the hardware, in
// configuration order.
type Plan struct {
	// Addresses holds the serial address of box i at index i.
	Addresses    []string      `json:"addresses"`
	TempLoops    []TempLoop    `json:"tempLoops"`
	CurrentLoops []CurrentLoop `json:"currentLoops"`
}

// Validate checks that every loop refers to a configured box.
func (p *Plan) Validate() error {
	if len(p.Addresses) == 0 {
		return pkgerrors.Wrap(ErrInvalidPlan, "no boxes configured")
	}
	for i, a := range p.Addresses {
		if a == "" {
			return pkgerrors.Wrapf(ErrInvalidPlan, "box %d has no serial address", i)
		}
	}
	for _, l := range p.TempLoops {
		if !p.HasBox(l.Box) {
			return pkgerrors.Wrapf(ErrInvalidPlan, "temperature loop on %s: only %d boxes configured", l, len(p.Addresses))
		}
	}
	for _, l := range p.CurrentLoops {
		if !p.HasBox(l.Box) {
			return pkgerrors.Wrapf(ErrInvalidPlan, "current loop on %s: only %d boxes configured", l, len(p.Addresses))
		}
	}
	return nil
}

// HasBox reports whether box is a configured ordinal.
func (p *Plan) HasBox(box int) bool {
	return box >= 0 && box < len(p.Addresses)
}

// CardsByBox returns the sorted, distinct cards each box must host.
func (p *Plan) CardsByBox() map[int][]int {
	seen := map[int]map[int]bool{}
	add := func(box, card int) {
		if seen[box] == nil {
			seen[box] = map[int]bool{}
		}
		seen[box][card] = true
	}
	for _, l := range p.TempLoops {
		add(l.Box, l.Card)
	}
	for _, l := range p.CurrentLoops {
		add(l.Box, l.Card)
	}

	out := make(map[int][]int, len(seen))
	for box, cards := range seen {
		for c := range cards {
			out[box] = append(out[box], c)
		}
		sort.Ints(out[box])
	}
	return out
}
