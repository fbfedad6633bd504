package httpapi

import (
	"context"
	"net/http"

	"github.com/DoyleJ11/pokeguess-backend/internal/account"
	"go.uber.org/zap"
)

type Accounts interface {
	Register(ctx context.Context, pseudo, email, password string) (account.Trainer, error)
	Login(ctx context.Context, email, password string) (string, account.Trainer, error)
}

type Trainers interface {
	ByID(ctx context.Context, id string) (account.Trainer, error)
	AddFriend(ctx context.Context, me, pseudo string) (account.Trainer, error)
	Friends(ctx context.Context, me string) ([]account.Trainer, error)
	Pokedex(ctx context.Context, trainerID string) ([]account.Capture, error)
}

type registerRequest struct {
	Pseudo   string `json:"pseudo"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Trainer account.Trainer `json:"trainer"`
}

type friendRequest struct {
	Pseudo string `json:"pseudo"`
}

func Register(accounts Accounts, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		t, err := accounts.Register(r.Context(), req.Pseudo, req.Email, req.Password)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		log.Info("trainer registered", zap.String("trainer_id", t.ID), zap.String("pseudo", t.Pseudo))
		writeJSON(w, http.StatusCreated, t)
	}
}

func Login(accounts Accounts, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		token, t, err := accounts.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Token: token, Trainer: t})
	}
}

func Me(trainers Trainers, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := trainers.ByID(r.Context(), trainerID(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func MyPokedex(trainers Trainers, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caps, err := trainers.Pokedex(r.Context(), trainerID(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, caps)
	}
}

func MyFriends(trainers Trainers, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		friends, err := trainers.Friends(r.Context(), trainerID(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, friends)
	}
}

func AddFriend(trainers Trainers, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req friendRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		friend, err := trainers.AddFriend(r.Context(), trainerID(r), req.Pseudo)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, friend)
	}
}
