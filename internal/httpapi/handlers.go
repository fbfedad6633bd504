package httpapi

import (
	"context"
	"net/http"

	"github.com/DoyleJ11/pokeguess-backend/internal/auth"
	"github.com/DoyleJ11/pokeguess-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Games is the game service as the API sees it.
type Games interface {
	CreateSession(ctx context.Context, player1 string) (types.CreatedSession, error)
	StartSession(ctx context.Context, sessionID, playerID, mode string, solo bool) (types.SessionView, error)
	JoinSession(ctx context.Context, code, player2 string) (types.SessionView, error)
	GetSession(ctx context.Context, sessionID, viewer string) (types.SessionView, error)
	SubmitGuess(ctx context.Context, sessionID, playerID, text string) (types.GuessResult, error)
	UseHint(ctx context.Context, sessionID, playerID, kind string) (types.SessionView, error)
	GetRemainingTime(ctx context.Context, sessionID, playerID string) (float64, error)
	ResetTimer(ctx context.Context, sessionID, playerID string) error
}

// trainerID is the authenticated caller. Routes using it sit behind auth.Middleware.
func trainerID(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.TrainerID
}

func CreateGame(games Games, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		created, err := games.CreateSession(r.Context(), trainerID(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func JoinGame(games Games, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.JoinRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		view, err := games.JoinSession(r.Context(), req.Code, trainerID(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func GetGame(games Games, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := games.GetSession(r.Context(), chi.URLParam(r, "id"), trainerID(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func StartGame(games Games, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := types.StartRequest{Mode: "standard"}
		if err := decode(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		view, err := games.StartSession(r.Context(), chi.URLParam(r, "id"), trainerID(r), req.Mode, req.Solo)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func Guess(games Games, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.GuessRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		res, err := games.SubmitGuess(r.Context(), chi.URLParam(r, "id"), trainerID(r), req.Name)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func UseHint(games Games, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.HintRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		view, err := games.UseHint(r.Context(), chi.URLParam(r, "id"), trainerID(r), req.Hint)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func RemainingTime(games Games, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secs, err := games.GetRemainingTime(r.Context(), chi.URLParam(r, "id"), trainerID(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, types.RemainingTime{Seconds: secs})
	}
}

func ResetTimer(games Games, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := games.ResetTimer(r.Context(), chi.URLParam(r, "id"), trainerID(r)); err != nil {
			writeError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
