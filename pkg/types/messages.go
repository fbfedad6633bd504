package types

type CreatedSession struct {
	SessionID string `json:"session_id"`
	JoinCode  string `json:"join_code"`
}

type GuessResult struct {
	IsCorrect      bool        `json:"is_correct"`
	IsTurnFinished bool        `json:"is_turn_finished"`
	IsGameFinished bool        `json:"is_game_finished"`
	IsTimeout      bool        `json:"is_timeout"`
	Message        string      `json:"message"`
	PointsEarned   int         `json:"points_earned"`
	Session        SessionView `json:"session"`
}

type RemainingTime struct {
	Seconds float64 `json:"seconds"`
}

// Requests

type StartRequest struct {
	Mode string `json:"mode"`
	Solo bool   `json:"solo"`
}

type JoinRequest struct {
	Code string `json:"code"`
}

type GuessRequest struct {
	Name string `json:"name"`
}

type HintRequest struct {
	Hint string `json:"hint"`
}
