package catalog

// Hints is the partial information a player can unlock about a creature.
// Unset fields are omitted so a partially revealed value serializes cleanly.
type Hints struct {
	Category            *string     `json:"category,omitempty"`
	Generation          *Generation `json:"generation,omitempty"`
	Region              *Region     `json:"region,omitempty"`
	Types               []Type      `json:"types,omitempty"`
	Status              *Status     `json:"status,omitempty"`
	HeightM             *float64    `json:"height_m,omitempty"`
	WeightKg            *float64    `json:"weight_kg,omitempty"`
	Abilities           []Ability   `json:"abilities,omitempty"`
	Stats               *Stats      `json:"stats,omitempty"`
	Sprite              *string     `json:"sprite,omitempty"`
	Cries               *Cries      `json:"cries,omitempty"`
	EvolutionChainCount int         `json:"evolution_chain_count,omitempty"`
}

// FullHints exposes every hint field of c.
func FullHints(c Creature) Hints {
	category := c.Category
	gen := c.Generation
	region := c.Region
	status := c.Status
	height := c.Physical.HeightM
	weight := c.Physical.WeightKg
	stats := c.Stats
	sprite := c.Sprites.FrontDefault
	cries := c.Cries
	return Hints{
		Category:            &category,
		Generation:          &gen,
		Region:              &region,
		Types:               append([]Type(nil), c.Types...),
		Status:              &status,
		HeightM:             &height,
		WeightKg:            &weight,
		Abilities:           append([]Ability(nil), c.Abilities...),
		Stats:               &stats,
		Sprite:              &sprite,
		Cries:               &cries,
		EvolutionChainCount: c.EvolutionChain.Count,
	}
}

// TypeInSlot returns the creature's type occupying slot (1 or 2).
func (c Creature) TypeInSlot(slot int) (Type, bool) {
	for _, t := range c.Types {
		if t.Slot == slot {
			return t, true
		}
	}
	if slot >= 1 && slot <= len(c.Types) && c.Types[slot-1].Slot == 0 {
		return c.Types[slot-1], true
	}
	return Type{}, false
}
