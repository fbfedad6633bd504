package catalog

import (
	"regexp"
	"strings"
	"time"
)

type Generation struct {
	NameFr string `json:"name_fr"`
	NameEn string `json:"name_en"`
}

type Region struct {
	NameFr string `json:"name_fr"`
	NameEn string `json:"name_en"`
}

type Status struct {
	CaptureRate int  `json:"capture_rate"`
	IsLegendary bool `json:"is_legendary"`
	IsMythical  bool `json:"is_mythical"`
}

type Physical struct {
	HeightM  float64 `json:"height_m"`
	WeightKg float64 `json:"weight_kg"`
}

type Type struct {
	Name   string `json:"name"`
	NameEn string `json:"name_en"`
	Slot   int    `json:"slot"`
}

type Ability struct {
	Name     string `json:"name"`
	NameEn   string `json:"name_en"`
	IsHidden bool   `json:"is_hidden"`
	Slot     int    `json:"slot"`
}

type Stat struct {
	Value  int    `json:"value"`
	NameEn string `json:"name_en"`
}

type Stats struct {
	HP        Stat `json:"hp"`
	Attack    Stat `json:"attack"`
	Defense   Stat `json:"defense"`
	SpAttack  Stat `json:"sp_attack"`
	SpDefense Stat `json:"sp_defense"`
	Speed     Stat `json:"speed"`
}

type Sprites struct {
	FrontDefault string `json:"front_default"`
	FrontShiny   string `json:"front_shiny"`
	BackDefault  string `json:"back_default"`
	BackShiny    string `json:"back_shiny"`
}

type Cries struct {
	Latest string `json:"latest"`
	Legacy string `json:"legacy"`
}

type EvolutionMember struct {
	Name   string `json:"name"`
	Level  int    `json:"level"`
	IsBaby bool   `json:"is_baby"`
}

type EvolutionChain struct {
	Count       int               `json:"count"`
	BasePokemon string            `json:"base_pokemon"`
	Chain       []EvolutionMember `json:"chain"`
}

// Creature is one catalog entry. Values handed out by Lookup are snapshots:
// nothing downstream mutates them.
type Creature struct {
	ID             string         `json:"id" gorm:"primaryKey;size:36"`
	PokedexNumber  int            `json:"pokedex_number" gorm:"uniqueIndex;not null"`
	NameFr         string         `json:"name_fr" gorm:"size:64;index"`
	NameEn         string         `json:"name_en" gorm:"size:64;index"`
	Category       string         `json:"category" gorm:"size:64"`
	Generation     Generation     `json:"generation" gorm:"embedded;embeddedPrefix:generation_"`
	Region         Region         `json:"region" gorm:"embedded;embeddedPrefix:region_"`
	Status         Status         `json:"status" gorm:"embedded;embeddedPrefix:status_"`
	Physical       Physical       `json:"physical" gorm:"embedded;embeddedPrefix:physical_"`
	Types          []Type         `json:"types" gorm:"serializer:json"`
	Abilities      []Ability      `json:"abilities" gorm:"serializer:json"`
	Stats          Stats          `json:"stats" gorm:"serializer:json"`
	Sprites        Sprites        `json:"sprites" gorm:"serializer:json"`
	Cries          Cries          `json:"cries" gorm:"serializer:json"`
	Description    string         `json:"description" gorm:"type:text"`
	EvolutionChain EvolutionChain `json:"evolution_chain" gorm:"serializer:json"`
	CreatedAt      time.Time      `json:"-"`
	UpdatedAt      time.Time      `json:"-"`
}

func (Creature) TableName() string { return "pokemon" }

// IsRare reports whether the creature belongs to the legendary/mythical pool.
func (c Creature) IsRare() bool {
	return c.Status.IsLegendary || c.Status.IsMythical
}

func (c Creature) hasName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return strings.EqualFold(name, c.NameFr) || strings.EqualFold(name, c.NameEn)
}

// IsBaseEvolution reports whether the creature is the first stage of its
// evolution line. Creatures without a line are their own base.
func (c Creature) IsBaseEvolution() bool {
	ch := c.EvolutionChain
	if ch.BasePokemon != "" {
		return c.hasName(ch.BasePokemon)
	}
	if len(ch.Chain) == 0 {
		return true
	}
	return c.hasName(ch.Chain[0].Name)
}

// IsFinalEvolution reports whether the creature is the last stage of its
// evolution line. Creatures without a line are their own final stage.
func (c Creature) IsFinalEvolution() bool {
	if len(c.EvolutionChain.Chain) == 0 {
		return true
	}
	return c.hasName(c.EvolutionChain.Chain[len(c.EvolutionChain.Chain)-1].Name)
}

func (c Creature) HasType(name string) bool {
	for _, t := range c.Types {
		if strings.EqualFold(t.Name, name) || strings.EqualFold(t.NameEn, name) {
			return true
		}
	}
	return false
}

func (c Creature) InGeneration(name string) bool {
	return strings.EqualFold(c.Generation.NameFr, name) || strings.EqualFold(c.Generation.NameEn, name)
}

const censorMark = "???"

// CensoredDescription returns the description with every occurrence of the
// creature's names replaced, so it can be shown while the name is being guessed.
func (c Creature) CensoredDescription() string {
	var names []string
	for _, n := range []string{c.NameFr, c.NameEn} {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, regexp.QuoteMeta(n))
		}
	}
	if len(names) == 0 {
		return c.Description
	}
	re := regexp.MustCompile(`(?i)` + strings.Join(names, "|"))
	return re.ReplaceAllString(c.Description, censorMark)
}
