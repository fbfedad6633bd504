// Package events turns engine events into side effects outside the session:
// captures in the trainer's Pokédex, log lines and broker messages.
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/engine"
	"github.com/DoyleJ11/pokeguess-backend/internal/lobby"
	"go.uber.org/zap"
)

// CaptureStore records that a trainer identified a pokemon. Recording an
// owned pokemon again must be a no-op.
type CaptureStore interface {
	RecordCapture(ctx context.Context, trainerID string, number int) error
}

// CaptureRecorder applies every RoundWon to the winner's Pokédex.
type CaptureRecorder struct {
	captures CaptureStore
}

func NewCaptureRecorder(captures CaptureStore) *CaptureRecorder {
	return &CaptureRecorder{captures: captures}
}

func (r *CaptureRecorder) Publish(ctx context.Context, _ engine.Session, events []engine.Event) error {
	for _, e := range events {
		if e.Type != engine.EvtRoundWon {
			continue
		}
		if err := r.captures.RecordCapture(ctx, e.PlayerID, e.PokedexNumber); err != nil {
			if errors.Is(err, apperr.ErrFailure) {
				return err
			}
			return fmt.Errorf("%w: record capture of #%d for %s: %w", apperr.ErrFailure, e.PokedexNumber, e.PlayerID, err)
		}
	}
	return nil
}

var (
	_ lobby.Sink     = (*CaptureRecorder)(nil)
	_ lobby.Notifier = (*LogNotifier)(nil)
	_ lobby.Notifier = (*FanoutNotifier)(nil)
)

// Sinks runs every sink in order and stops at the first error.
type Sinks []lobby.Sink

func (m Sinks) Publish(ctx context.Context, s engine.Session, events []engine.Event) error {
	for _, sink := range m {
		if err := sink.Publish(ctx, s, events); err != nil {
			return err
		}
	}
	return nil
}

// Notifiers runs every notifier and joins their errors.
type Notifiers []lobby.Notifier

func (m Notifiers) Notify(ctx context.Context, s engine.Session, events []engine.Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, s, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes one line per game milestone.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("events")}
}

func (n *LogNotifier) Notify(_ context.Context, s engine.Session, events []engine.Event) error {
	for _, e := range events {
		switch e.Type {
		case engine.EvtGuessWrong, engine.EvtTurnAdvanced, engine.EvtTimerReset:
			continue
		}
		n.log.Info(string(e.Type),
			zap.String("session_id", e.SessionID),
			zap.String("player_id", e.PlayerID),
			zap.Int("pokedex_number", e.PokedexNumber),
			zap.Int("points", e.Points),
			zap.Int("version", s.Version),
		)
	}
	return nil
}
