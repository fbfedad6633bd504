package engine

import (
	"fmt"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/catalog"
)

// DefaultRareProbability is the per-position chance of drawing from the
// legendary/mythical pool in Standard and Extended modes.
const DefaultRareProbability = 0.01

var ErrEmptyPool = fmt.Errorf("%w: no pokemon available for this mode", apperr.ErrFailure)

// Rand is the randomness the draw needs. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Pools are the catalog slices a draw picks from. Only the pools the mode
// needs have to be filled (see Mode.Pools).
type Pools struct {
	Base         []catalog.Creature
	NonLegendary []catalog.Creature
	Final        []catalog.Creature
	Rare         []catalog.Creature
}

type PoolKind string

const (
	PoolBase         PoolKind = "base"
	PoolNonLegendary PoolKind = "non_legendary"
	PoolFinal        PoolKind = "final"
	PoolRare         PoolKind = "rare"
)

// Pools lists the pools a draw in mode m reads.
func (m Mode) Pools() []PoolKind {
	switch m {
	case ModeStandard:
		return []PoolKind{PoolBase, PoolRare}
	case ModeExtended:
		return []PoolKind{PoolNonLegendary, PoolRare}
	case ModeUnlimited:
		return []PoolKind{PoolFinal}
	default:
		return nil
	}
}

// DrawTargets draws RoundsPerGame targets for each player slot.
//
// Standard and Extended flip one rare coin per position; the flips are shared
// by both slots so both players face the same rarity pattern, while the
// creature drawn at each position is independent per slot. Unlimited draws
// uniformly from final evolutions. All draws are with replacement.
func DrawTargets(mode Mode, pools Pools, rng Rand, rareProbability float64) ([2][]catalog.Creature, error) {
	var out [2][]catalog.Creature

	var main []catalog.Creature
	rare := pools.Rare
	switch mode {
	case ModeStandard:
		// legendaries only come from the rare coin, so the rare rate holds
		main = withoutRare(pools.Base)
	case ModeExtended:
		main = withoutRare(pools.NonLegendary)
	case ModeUnlimited:
		main = pools.Final
		rare = nil
	default:
		return out, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}

	if len(main) == 0 {
		// a catalog with only rare creatures still yields a game
		main = rare
	}
	if len(main) == 0 {
		return out, fmt.Errorf("%w (mode %s)", ErrEmptyPool, mode)
	}

	var flips [RoundsPerGame]bool
	if len(rare) > 0 {
		for i := range flips {
			flips[i] = rng.Float64() < rareProbability
		}
	}

	for slot := range out {
		out[slot] = make([]catalog.Creature, RoundsPerGame)
		for i := range RoundsPerGame {
			pool := main
			if flips[i] {
				pool = rare
			}
			out[slot][i] = pool[rng.IntN(len(pool))]
		}
	}
	return out, nil
}

func withoutRare(in []catalog.Creature) []catalog.Creature {
	out := make([]catalog.Creature, 0, len(in))
	for _, c := range in {
		if !c.IsRare() {
			out = append(out, c)
		}
	}
	return out
}
