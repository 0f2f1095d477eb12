package main

import (
	"sort"

	"github.com/ampac/iceseq/pkg/config"
	"github.com/ampac/iceseq/pkg/ice"
	"github.com/ampac/iceseq/pkg/types"
)

// simulators builds one simulated box per address, holding every card the
// plan, the probes and the auxiliary shutoff refer to.
func simulators(plan *types.Plan, station *config.Station) map[string]*ice.Simulator {
	cards := plan.CardsByBox()
	add := func(box, card int) {
		for _, c := range cards[box] {
			if c == card {
				return
			}
		}
		cards[box] = append(cards[box], card)
		sort.Ints(cards[box])
	}
	for _, p := range station.Probes(len(plan.Addresses)) {
		add(p.Box, p.Card)
	}
	if station.Auxiliary.Enabled {
		add(station.Auxiliary.Box, station.Auxiliary.Card)
	}

	sims := make(map[string]*ice.Simulator, len(plan.Addresses))
	for box, addr := range plan.Addresses {
		sims[addr] = ice.NewSimulator(cards[box]...)
	}
	return sims
}
