package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/catalog"
	"golang.org/x/text/cases"
)

var ErrNotInSession = fmt.Errorf("%w: player is not part of this session", apperr.ErrInvalidOperation)
var ErrOwnSession = fmt.Errorf("%w: cannot join your own session", apperr.ErrInvalidOperation)
var ErrSessionFull = fmt.Errorf("%w: session already has two players", apperr.ErrInvalidOperation)
var ErrNotWaiting = fmt.Errorf("%w: session is no longer waiting for players", apperr.ErrInvalidOperation)
var ErrNeedOpponent = fmt.Errorf("%w: waiting for a second player", apperr.ErrInvalidOperation)
var ErrAlreadyStarted = fmt.Errorf("%w: session already started", apperr.ErrInvalidOperation)
var ErrNotStarted = fmt.Errorf("%w: session has not started", apperr.ErrInvalidOperation)
var ErrPlayerFinished = fmt.Errorf("%w: player already finished all rounds", apperr.ErrInvalidOperation)
var ErrUnknownHint = fmt.Errorf("%w: unknown hint", apperr.ErrInvalidArgument)
var ErrUnknownMode = fmt.Errorf("%w: unknown mode", apperr.ErrInvalidArgument)
var ErrBadDraw = fmt.Errorf("%w: target draw does not match the session", apperr.ErrInvalidArgument)
var ErrUnsupportedCommand = fmt.Errorf("%w: unsupported command", apperr.ErrInvalidArgument)

const (
	RoundsPerGame       = 6
	MaxAttempts         = 3
	BaseRoundPoints     = 100
	DefaultRoundSeconds = 60.0

	// TimeoutGuess is sent by clients whose local round clock ran out.
	TimeoutGuess = "__TIMEOUT__"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

type Mode string

const (
	ModeStandard  Mode = "standard"
	ModeExtended  Mode = "extended"
	ModeUnlimited Mode = "unlimited"
)

// ParseMode accepts a mode name in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeStandard, ModeExtended, ModeUnlimited:
		return m, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}

// RoundLog is one resolved round. Entries are appended and never changed.
type RoundLog struct {
	Creature catalog.Creature `json:"creature"`
	Guessed  bool             `json:"guessed"`
	TimedOut bool             `json:"timed_out,omitempty"`
	Attempts int              `json:"attempts"`
	Hints    []HintKind       `json:"hints"`
	Points   int              `json:"points"`
}

// PlayerState is one player slot of a session.
type PlayerState struct {
	PlayerID      string             `json:"player_id"`
	Targets       []catalog.Creature `json:"targets"`
	CurrentIndex  int                `json:"current_index"`
	AttemptsUsed  int                `json:"attempts_used"`
	UsedHints     []HintKind         `json:"used_hints"`
	Score         int                `json:"score"`
	TimerStart    *time.Time         `json:"timer_start,omitempty"`
	TimeRemaining float64            `json:"time_remaining"`
	Completed     []RoundLog         `json:"completed"`
}

// Finished reports whether the player resolved every target.
func (p PlayerState) Finished() bool {
	return len(p.Targets) > 0 && p.CurrentIndex >= len(p.Targets)
}

// Current returns the unresolved target, if any.
func (p PlayerState) Current() (catalog.Creature, bool) {
	if p.CurrentIndex >= len(p.Targets) {
		return catalog.Creature{}, false
	}
	return p.Targets[p.CurrentIndex], true
}

type Rules struct {
	RoundSeconds        float64   `json:"round_seconds"`
	RareProbability     float64   `json:"rare_probability"`
	ResetTimerOnAdvance bool      `json:"reset_timer_on_advance"`
	Hints               HintTable `json:"hints,omitempty"`
}

func DefaultRules() Rules {
	return Rules{
		RoundSeconds:        DefaultRoundSeconds,
		RareProbability:     DefaultRareProbability,
		ResetTimerOnAdvance: true,
	}
}

func (r Rules) hintTable() HintTable {
	if len(r.Hints) == 0 {
		return DefaultHints
	}
	return r.Hints
}

// Session is the aggregate the engine owns. Apply never mutates its input.
type Session struct {
	ID        string         `json:"id"`
	JoinCode  string         `json:"join_code"`
	Status    Status         `json:"status"`
	Mode      Mode           `json:"mode,omitempty"`
	Solo      bool           `json:"solo"`
	Players   [2]PlayerState `json:"players"`
	Rules     Rules          `json:"rules"`
	CreatedAt time.Time      `json:"created_at"`
	Version   int            `json:"version"`
}

type CommandType string

const (
	CmdJoin        CommandType = "Join"
	CmdStart       CommandType = "Start"
	CmdSubmitGuess CommandType = "SubmitGuess"
	CmdUseHint     CommandType = "UseHint"
	CmdResetTimer  CommandType = "ResetTimer"
)

/*
	CmdJoin        -> EvtPlayerJoined
	CmdStart       -> EvtGameStarted
	CmdSubmitGuess -> EvtGuessWrong
	               -> EvtRoundWon | EvtRoundLost | EvtRoundTimedOut -> EvtTurnAdvanced [-> EvtPlayerFinished [-> EvtGameCompleted]]
	CmdUseHint     -> EvtHintUsed (nothing when the hint was already bought this round)
	CmdResetTimer  -> EvtTimerReset
*/

type Command struct {
	Type     CommandType
	PlayerID string
	Text     string
	Hint     HintKind
	Mode     Mode
	Solo     bool
	Targets  [2][]catalog.Creature
}

type EventType string

const (
	EvtPlayerJoined   EventType = "PlayerJoined"
	EvtGameStarted    EventType = "GameStarted"
	EvtGuessWrong     EventType = "GuessWrong"
	EvtRoundWon       EventType = "RoundWon"
	EvtRoundLost      EventType = "RoundLost"
	EvtRoundTimedOut  EventType = "RoundTimedOut"
	EvtTurnAdvanced   EventType = "TurnAdvanced"
	EvtPlayerFinished EventType = "PlayerFinished"
	EvtGameCompleted  EventType = "GameCompleted"
	EvtHintUsed       EventType = "HintUsed"
	EvtTimerReset     EventType = "TimerReset"
)

type Event struct {
	Type          EventType `json:"type"`
	SessionID     string    `json:"session_id"`
	PlayerID      string    `json:"player_id,omitempty"`
	PokedexNumber int       `json:"pokedex_number,omitempty"`
	Name          string    `json:"name,omitempty"`
	Points        int       `json:"points,omitempty"`
	AttemptsLeft  int       `json:"attempts_left,omitempty"`
	Hint          HintKind  `json:"hint,omitempty"`
}

// Apply validates cmd against s and returns the resulting events and state.
// On error the original state is returned untouched. A command that is a
// defined no-op returns no events and the original state.
func Apply(s Session, cmd Command, now time.Time) ([]Event, Session, error) {
	switch cmd.Type {
	case CmdJoin:
		return applyJoin(s, cmd)
	case CmdStart:
		return applyStart(s, cmd, now)
	case CmdSubmitGuess:
		return applyGuess(s, cmd, now)
	case CmdUseHint:
		return applyHint(s, cmd)
	case CmdResetTimer:
		return applyResetTimer(s, cmd, now)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyJoin(s Session, cmd Command) ([]Event, Session, error) {
	if s.Players[1].PlayerID != "" {
		return nil, s, ErrSessionFull
	}
	if cmd.PlayerID == s.Players[0].PlayerID {
		return nil, s, ErrOwnSession
	}
	if s.Status != StatusWaiting {
		return nil, s, ErrNotWaiting
	}

	ns := s.Clone()
	ns.Players[1].PlayerID = cmd.PlayerID
	ns.Status = StatusReady
	return []Event{{Type: EvtPlayerJoined, SessionID: s.ID, PlayerID: cmd.PlayerID}}, ns, nil
}

func applyStart(s Session, cmd Command, now time.Time) ([]Event, Session, error) {
	if cmd.PlayerID != "" {
		if _, ok := s.slotOf(cmd.PlayerID); !ok {
			return nil, s, ErrNotInSession
		}
	}
	if s.Status != StatusWaiting && s.Status != StatusReady {
		return nil, s, ErrAlreadyStarted
	}
	if _, err := ParseMode(string(cmd.Mode)); err != nil {
		return nil, s, err
	}
	hasOpponent := s.Players[1].PlayerID != ""
	if !cmd.Solo && !hasOpponent {
		return nil, s, ErrNeedOpponent
	}
	if cmd.Solo && hasOpponent {
		return nil, s, ErrSessionFull
	}
	if len(cmd.Targets[0]) != RoundsPerGame || (!cmd.Solo && len(cmd.Targets[1]) != RoundsPerGame) {
		return nil, s, ErrBadDraw
	}

	ns := s.Clone()
	ns.Mode = cmd.Mode
	ns.Solo = cmd.Solo
	ns.Status = StatusInProgress
	for slot := range ns.Players {
		if slot == 1 && cmd.Solo {
			break
		}
		p := &ns.Players[slot]
		p.Targets = append([]catalog.Creature(nil), cmd.Targets[slot]...)
		p.CurrentIndex = 0
		p.AttemptsUsed = 0
		p.UsedHints = nil
		p.Score = 0
		p.Completed = nil
		ns.armTimer(slot, now)
	}
	return []Event{{Type: EvtGameStarted, SessionID: s.ID, PlayerID: cmd.PlayerID}}, ns, nil
}

func applyGuess(s Session, cmd Command, now time.Time) ([]Event, Session, error) {
	slot, err := s.activeSlot(cmd.PlayerID)
	if err != nil {
		return nil, s, err
	}
	if s.Players[slot].Finished() {
		// terminal: nothing left to guess
		return nil, s, nil
	}

	ns := s.Clone()
	p := &ns.Players[slot]
	target, _ := p.Current()
	base := Event{SessionID: s.ID, PlayerID: cmd.PlayerID, PokedexNumber: target.PokedexNumber, Name: target.NameFr}

	if cmd.Text == TimeoutGuess || ns.expired(slot, now) {
		ns.logRound(slot, RoundLog{Creature: target, TimedOut: true, Attempts: p.AttemptsUsed, Hints: p.UsedHints})
		evt := base
		evt.Type = EvtRoundTimedOut
		return append([]Event{evt}, ns.advance(slot, now)...), ns, nil
	}

	if sameName(cmd.Text, target.NameFr) {
		points := ns.Rules.hintTable().Points(p.UsedHints)
		p.Score += points
		ns.logRound(slot, RoundLog{Creature: target, Guessed: true, Attempts: p.AttemptsUsed + 1, Hints: p.UsedHints, Points: points})
		evt := base
		evt.Type = EvtRoundWon
		evt.Points = points
		return append([]Event{evt}, ns.advance(slot, now)...), ns, nil
	}

	p.AttemptsUsed++
	if p.AttemptsUsed < MaxAttempts {
		evt := base
		evt.Type = EvtGuessWrong
		evt.AttemptsLeft = MaxAttempts - p.AttemptsUsed
		return []Event{evt}, ns, nil
	}

	ns.logRound(slot, RoundLog{Creature: target, Attempts: p.AttemptsUsed, Hints: p.UsedHints})
	evt := base
	evt.Type = EvtRoundLost
	return append([]Event{evt}, ns.advance(slot, now)...), ns, nil
}

func applyHint(s Session, cmd Command) ([]Event, Session, error) {
	slot, err := s.activeSlot(cmd.PlayerID)
	if err != nil {
		return nil, s, err
	}
	kind, cost, ok := s.Rules.hintTable().Lookup(string(cmd.Hint))
	if !ok {
		return nil, s, fmt.Errorf("%w %q", ErrUnknownHint, cmd.Hint)
	}
	if s.Players[slot].Finished() {
		return nil, s, ErrPlayerFinished
	}
	if s.Players[slot].hasHint(kind) {
		return nil, s, nil
	}

	ns := s.Clone()
	p := &ns.Players[slot]
	p.UsedHints = append(p.UsedHints, kind)
	p.TimeRemaining = max(0, p.TimeRemaining-cost.Penalty)
	return []Event{{Type: EvtHintUsed, SessionID: s.ID, PlayerID: cmd.PlayerID, Hint: kind, Points: cost.Points}}, ns, nil
}

func applyResetTimer(s Session, cmd Command, now time.Time) ([]Event, Session, error) {
	slot, err := s.activeSlot(cmd.PlayerID)
	if err != nil {
		return nil, s, err
	}
	if s.Players[slot].Finished() {
		return nil, s, ErrPlayerFinished
	}
	ns := s.Clone()
	ns.armTimer(slot, now)
	return []Event{{Type: EvtTimerReset, SessionID: s.ID, PlayerID: cmd.PlayerID}}, ns, nil
}

// RemainingTime reports the seconds left on the player's current round clock.
func RemainingTime(s Session, playerID string, now time.Time) (float64, error) {
	slot, ok := s.slotOf(playerID)
	if !ok {
		return 0, ErrNotInSession
	}
	p := s.Players[slot]
	if p.TimerStart == nil {
		return p.TimeRemaining, nil
	}
	return max(0, p.TimeRemaining-now.Sub(*p.TimerStart).Seconds()), nil
}

// sameName compares a guess with a creature name: trimmed, Unicode case-folded, exact.
func sameName(guess, name string) bool {
	fold := cases.Fold()
	g := fold.String(strings.TrimSpace(guess))
	return g != "" && g == fold.String(strings.TrimSpace(name))
}
