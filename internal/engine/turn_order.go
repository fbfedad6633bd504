package engine

import (
	"slices"
	"time"
)

// advance moves the player to the next target. It appends the follow-up
// events: TurnAdvanced, then PlayerFinished and GameCompleted when they apply.
func (s *Session) advance(slot int, now time.Time) []Event {
	p := &s.Players[slot]
	p.CurrentIndex++
	p.AttemptsUsed = 0
	p.UsedHints = nil

	events := []Event{{Type: EvtTurnAdvanced, SessionID: s.ID, PlayerID: p.PlayerID}}

	if p.Finished() {
		p.TimerStart = nil
		events = append(events, Event{Type: EvtPlayerFinished, SessionID: s.ID, PlayerID: p.PlayerID, Points: p.Score})
		if s.allFinished() {
			s.Status = StatusFinished
			events = append(events, Event{Type: EvtGameCompleted, SessionID: s.ID})
		}
		return events
	}

	if s.Rules.ResetTimerOnAdvance {
		s.armTimer(slot, now)
	}
	return events
}

func (s *Session) allFinished() bool {
	for slot, p := range s.Players {
		if slot == 1 && s.Solo {
			continue
		}
		if !p.Finished() {
			return false
		}
	}
	return true
}

func (s *Session) armTimer(slot int, now time.Time) {
	p := &s.Players[slot]
	start := now
	p.TimerStart = &start
	p.TimeRemaining = s.Rules.RoundSeconds
}

func (s *Session) expired(slot int, now time.Time) bool {
	p := s.Players[slot]
	if p.TimerStart == nil {
		return false
	}
	return now.Sub(*p.TimerStart).Seconds() >= p.TimeRemaining
}

func (s *Session) logRound(slot int, entry RoundLog) {
	entry.Hints = slices.Clone(entry.Hints)
	s.Players[slot].Completed = append(s.Players[slot].Completed, entry)
}
