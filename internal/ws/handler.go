package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/auth"
	"github.com/DoyleJ11/pokeguess-backend/internal/engine"
	"github.com/DoyleJ11/pokeguess-backend/internal/lobby"
	"github.com/DoyleJ11/pokeguess-backend/internal/types"
	pub "github.com/DoyleJ11/pokeguess-backend/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	outboxSize   = 8
	writeTimeout = 3 * time.Second
	idleTimeout  = 2 * time.Minute
)

// Games is what the stream needs from the game service.
type Games interface {
	Watch(ctx context.Context, sessionID, clientID string, out chan lobby.Snapshot) (*lobby.Lobby, error)
	View(sess engine.Session, viewer string) pub.SessionView
	SubmitGuess(ctx context.Context, sessionID, playerID, text string) (pub.GuessResult, error)
	UseHint(ctx context.Context, sessionID, playerID, kind string) (pub.SessionView, error)
	ResetTimer(ctx context.Context, sessionID, playerID string) error
}

type Options struct {
	// OriginPatterns is passed to websocket.Accept; empty means same origin only.
	OriginPatterns []string
	Logger         *zap.Logger
}

// Handler streams per-viewer snapshots of one session (?game=<id>) and accepts
// guesses, hints and timer resets on the same connection. It must run behind
// auth.Middleware.
func Handler(games Games, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		sessionID := r.URL.Query().Get("game")
		if sessionID == "" {
			http.Error(w, "missing game", http.StatusBadRequest)
			return
		}

		clientID := uuid.NewString()
		out := make(chan lobby.Snapshot, outboxSize)
		lb, err := games.Watch(r.Context(), sessionID, clientID, out)
		if err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, apperr.ErrNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		defer lb.Send(lobby.Leave{ClientID: clientID})

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: opts.OriginPatterns})
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clog := log.With(zap.String("session_id", sessionID), zap.String("client_id", clientID))
		clog.Debug("watcher connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine
		go func() {
			for snap := range out {
				view := games.View(snap.Session, id.TrainerID)
				msg := types.ServerMessage{
					Type:    types.MsgSnapshot,
					Version: snap.Version,
					Events:  eventNames(snap.Events),
					Session: &view,
				}
				if err := write(ctx, conn, msg); err != nil {
					return
				}
			}
			// the lobby closed our outbox: it stopped or dropped us as too slow
			conn.Close(websocket.StatusGoingAway, "session stream closed")
		}()

		// Reader loop
		for {
			readCtx, readCancel := context.WithTimeout(ctx, idleTimeout)
			_, data, err := conn.Read(readCtx)
			readCancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				if write(ctx, conn, types.ServerMessage{Type: types.MsgError, Error: "bad json"}) != nil {
					return
				}
				continue
			}

			reply := dispatch(ctx, games, sessionID, id.TrainerID, cm)
			if reply == nil {
				continue
			}
			if err := write(ctx, conn, *reply); err != nil {
				return
			}
		}
	}
}

// dispatch runs a client message. A nil reply means the snapshot broadcast
// already carries the outcome.
func dispatch(ctx context.Context, games Games, sessionID, playerID string, cm types.ClientMessage) *types.ServerMessage {
	var err error
	switch cm.Type {
	case types.MsgGuess:
		var res pub.GuessResult
		if res, err = games.SubmitGuess(ctx, sessionID, playerID, cm.Name); err == nil {
			return &types.ServerMessage{Type: types.MsgGuessResult, Version: res.Session.Version, Result: &res}
		}
	case types.MsgUseHint:
		_, err = games.UseHint(ctx, sessionID, playerID, cm.Hint)
	case types.MsgResetTimer:
		err = games.ResetTimer(ctx, sessionID, playerID)
	default:
		return &types.ServerMessage{Type: types.MsgError, Error: "unknown type"}
	}
	if err != nil {
		return &types.ServerMessage{Type: types.MsgError, Error: err.Error()}
	}
	return nil
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

func eventNames(events []engine.Event) []string {
	if len(events) == 0 {
		return nil
	}
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e.Type)
	}
	return out
}
