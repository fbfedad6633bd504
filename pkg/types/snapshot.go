package types

import (
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/catalog"
)

// SessionView is a session as one viewer may see it: the viewer's current
// target is described only through the hints they bought, never by name.
type SessionView struct {
	ID        string       `json:"id"`
	JoinCode  string       `json:"join_code"`
	Status    string       `json:"status"`
	Mode      string       `json:"mode,omitempty"`
	Solo      bool         `json:"solo"`
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	Players   []PlayerView `json:"players"`
}

type PlayerView struct {
	PlayerID      string      `json:"player_id"`
	Score         int         `json:"score"`
	CurrentRound  int         `json:"current_round"`
	TotalRounds   int         `json:"total_rounds"`
	AttemptsLeft  int         `json:"attempts_left"`
	TimeRemaining float64     `json:"time_remaining"`
	Finished      bool        `json:"finished"`
	Current       *TargetView `json:"current,omitempty"`
	Rounds        []RoundView `json:"rounds"`
}

// TargetView is the unresolved target, for its own player only.
type TargetView struct {
	Description string        `json:"description"`
	Revealed    catalog.Hints `json:"revealed"`
	Hints       []HintOption  `json:"hints"`
}

type HintOption struct {
	Kind    string  `json:"kind"`
	Points  int     `json:"points"`
	Penalty float64 `json:"penalty"`
	Used    bool    `json:"used"`
}

// RoundView is a resolved round; its creature is no longer a secret.
type RoundView struct {
	PokedexNumber int      `json:"pokedex_number"`
	Name          string   `json:"name"`
	Sprite        string   `json:"sprite,omitempty"`
	Guessed       bool     `json:"guessed"`
	TimedOut      bool     `json:"timed_out"`
	Attempts      int      `json:"attempts"`
	Hints         []string `json:"hints"`
	Points        int      `json:"points"`
}
