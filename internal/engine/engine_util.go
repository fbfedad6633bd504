package engine

import (
	"slices"
	"time"
)

// NewSession returns a waiting session owned by player1.
func NewSession(id, joinCode, player1 string, rules Rules, now time.Time) Session {
	s := Session{
		ID:        id,
		JoinCode:  joinCode,
		Status:    StatusWaiting,
		Rules:     rules,
		CreatedAt: now,
	}
	s.Players[0].PlayerID = player1
	for slot := range s.Players {
		s.Players[slot].TimeRemaining = rules.RoundSeconds
	}
	return s
}

// Clone deep-copies everything Apply may mutate. Creature snapshots are
// shared: they are never modified after the draw.
func (s Session) Clone() Session {
	ns := s
	for slot := range ns.Players {
		p := &ns.Players[slot]
		p.Targets = slices.Clone(p.Targets)
		p.UsedHints = slices.Clone(p.UsedHints)
		p.Completed = slices.Clone(p.Completed)
		if p.TimerStart != nil {
			ts := *p.TimerStart
			p.TimerStart = &ts
		}
	}
	if s.Rules.Hints != nil {
		ns.Rules.Hints = make(HintTable, len(s.Rules.Hints))
		for k, v := range s.Rules.Hints {
			ns.Rules.Hints[k] = v
		}
	}
	return ns
}

// SlotOf resolves a player id to its slot index.
func (s Session) SlotOf(playerID string) (int, bool) {
	return s.slotOf(playerID)
}

func (s Session) slotOf(playerID string) (int, bool) {
	if playerID == "" {
		return 0, false
	}
	for slot, p := range s.Players {
		if p.PlayerID == playerID {
			return slot, true
		}
	}
	return 0, false
}

// activeSlot resolves the acting player for round commands.
func (s Session) activeSlot(playerID string) (int, error) {
	slot, ok := s.slotOf(playerID)
	if !ok {
		return 0, ErrNotInSession
	}
	if s.Status != StatusInProgress && s.Status != StatusFinished {
		return 0, ErrNotStarted
	}
	if len(s.Players[slot].Targets) == 0 {
		// second slot of a solo session
		return 0, ErrNotInSession
	}
	return slot, nil
}

func (p PlayerState) hasHint(kind HintKind) bool {
	return slices.Contains(p.UsedHints, kind)
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
