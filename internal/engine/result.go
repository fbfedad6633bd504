package engine

import "fmt"

// GuessResult is what a guess told the player.
type GuessResult struct {
	IsCorrect      bool   `json:"is_correct"`
	IsTurnFinished bool   `json:"is_turn_finished"`
	IsGameFinished bool   `json:"is_game_finished"`
	IsTimeout      bool   `json:"is_timeout"`
	Message        string `json:"message"`
	PointsEarned   int    `json:"points_earned"`
}

// Summarize builds the GuessResult for playerID from the events a guess
// produced and the state after it.
func Summarize(events []Event, s Session, playerID string) GuessResult {
	var r GuessResult
	if slot, ok := s.slotOf(playerID); ok {
		r.IsGameFinished = s.Players[slot].Finished()
	}

	for _, e := range events {
		switch e.Type {
		case EvtRoundWon:
			r.IsCorrect = true
			r.IsTurnFinished = true
			r.PointsEarned = e.Points
			r.Message = fmt.Sprintf("Correct! It was %s. +%d points.", e.Name, e.Points)
		case EvtGuessWrong:
			r.Message = fmt.Sprintf("Wrong answer, %d attempt(s) left.", e.AttemptsLeft)
		case EvtRoundLost:
			r.IsTurnFinished = true
			r.Message = fmt.Sprintf("No attempts left. It was %s.", e.Name)
		case EvtRoundTimedOut:
			r.IsTurnFinished = true
			r.IsTimeout = true
			r.Message = fmt.Sprintf("Time is up! It was %s.", e.Name)
		}
	}

	if len(events) == 0 && r.IsGameFinished {
		r.Message = "You have already guessed every Pokémon of this game."
	}
	return r
}
