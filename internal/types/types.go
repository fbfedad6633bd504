package types

import "github.com/DoyleJ11/pokeguess-backend/pkg/types"

// Client message types.
const (
	MsgGuess      = "Guess"
	MsgUseHint    = "UseHint"
	MsgResetTimer = "ResetTimer"
)

// Server message types.
const (
	MsgSnapshot    = "SessionSnapshot"
	MsgGuessResult = "GuessResult"
	MsgError       = "Error"
)

type ClientMessage struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Hint string `json:"hint,omitempty"`
}

type ServerMessage struct {
	Type    string             `json:"type"`
	Version int                `json:"version,omitempty"`
	Events  []string           `json:"events,omitempty"`
	Session *types.SessionView `json:"session,omitempty"`
	Result  *types.GuessResult `json:"result,omitempty"`
	Error   string             `json:"error,omitempty"`
}
