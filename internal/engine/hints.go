package engine

import (
	"strings"

	"github.com/DoyleJ11/pokeguess-backend/internal/catalog"
)

type HintKind string

const (
	HintType1      HintKind = "Type1"
	HintType2      HintKind = "Type2"
	HintGeneration HintKind = "Generation"
	HintCategory   HintKind = "Category"
	HintStats      HintKind = "Stats"
	HintHeight     HintKind = "Height"
	HintWeight     HintKind = "Weight"
	HintAbilities  HintKind = "Abilities"
	HintSprite     HintKind = "Sprite"
)

// HintCost is what a hint takes off the round: Points from the 100 a correct
// guess is worth, Penalty seconds from the round clock.
type HintCost struct {
	Points  int     `json:"points"`
	Penalty float64 `json:"penalty"`
}

type HintTable map[HintKind]HintCost

var DefaultHints = HintTable{
	HintType1:      {Points: 15, Penalty: 5},
	HintType2:      {Points: 15, Penalty: 5},
	HintGeneration: {Points: 10, Penalty: 3},
	HintCategory:   {Points: 10, Penalty: 3},
	HintStats:      {Points: 20, Penalty: 7},
	HintHeight:     {Points: 5, Penalty: 2},
	HintWeight:     {Points: 5, Penalty: 2},
	HintAbilities:  {Points: 25, Penalty: 8},
	HintSprite:     {Points: 30, Penalty: 30},
}

// Lookup finds a hint by name, ignoring case, and returns its canonical kind.
func (t HintTable) Lookup(name string) (HintKind, HintCost, bool) {
	name = strings.TrimSpace(name)
	if c, ok := t[HintKind(name)]; ok {
		return HintKind(name), c, true
	}
	for k, c := range t {
		if strings.EqualFold(string(k), name) {
			return k, c, true
		}
	}
	return "", HintCost{}, false
}

// Points is what a correct guess earns after buying used: never below zero.
func (t HintTable) Points(used []HintKind) int {
	points := BaseRoundPoints
	for _, k := range used {
		points -= t[k].Points
	}
	return max(0, points)
}

// Reveal returns the hint fields unlocked by used for creature c.
func Reveal(c catalog.Creature, used []HintKind) catalog.Hints {
	var h catalog.Hints
	for _, k := range used {
		switch k {
		case HintType1:
			if t, ok := c.TypeInSlot(1); ok {
				h.Types = append(h.Types, t)
			}
		case HintType2:
			if t, ok := c.TypeInSlot(2); ok {
				h.Types = append(h.Types, t)
			}
		case HintGeneration:
			g := c.Generation
			h.Generation = &g
		case HintCategory:
			cat := c.Category
			h.Category = &cat
		case HintStats:
			st := c.Stats
			h.Stats = &st
		case HintHeight:
			v := c.Physical.HeightM
			h.HeightM = &v
		case HintWeight:
			v := c.Physical.WeightKg
			h.WeightKg = &v
		case HintAbilities:
			h.Abilities = append([]catalog.Ability(nil), c.Abilities...)
		case HintSprite:
			s := c.Sprites.FrontDefault
			h.Sprite = &s
		}
	}
	return h
}
