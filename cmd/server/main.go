package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/account"
	"github.com/DoyleJ11/pokeguess-backend/internal/auth"
	"github.com/DoyleJ11/pokeguess-backend/internal/catalog"
	"github.com/DoyleJ11/pokeguess-backend/internal/config"
	"github.com/DoyleJ11/pokeguess-backend/internal/database"
	"github.com/DoyleJ11/pokeguess-backend/internal/events"
	"github.com/DoyleJ11/pokeguess-backend/internal/game"
	"github.com/DoyleJ11/pokeguess-backend/internal/httpapi"
	"github.com/DoyleJ11/pokeguess-backend/internal/hub"
	"github.com/DoyleJ11/pokeguess-backend/internal/lobby"
	"github.com/DoyleJ11/pokeguess-backend/internal/logging"
	"github.com/DoyleJ11/pokeguess-backend/internal/store"
	"github.com/DoyleJ11/pokeguess-backend/internal/ws"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{Driver: cfg.DBDriver, DSN: cfg.DBURL, LogMode: cfg.DBLog})
	if err != nil {
		return err
	}
	models := append([]any{&catalog.Creature{}, &store.SessionRecord{}}, account.Models()...)
	if err := database.AutoMigrate(db, models...); err != nil {
		return err
	}

	pokemon := catalog.NewRepository(db)
	cat := catalog.NewService(pokemon)
	trainers := account.NewDirectory(db)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	accounts := auth.NewService(trainers, tokens)

	var sessions store.Store = store.NewGormStore(db)
	if cfg.SessionStore == config.StoreMemory {
		sessions = store.NewMemoryStore()
	}

	notifiers := events.Notifiers{events.NewLogNotifier(log)}
	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			return err
		}
		defer pub.Close()
		notifiers = append(notifiers, events.NewFanoutNotifier(pub, cfg.AMQPExchange))
		log.Info("publishing game events", zap.String("exchange", cfg.AMQPExchange))
	}

	h := hub.NewHub(ctx, hub.Options{
		Store:   sessions,
		Rules:   cfg.Rules,
		CodeTTL: cfg.CodeTTL,
		Logger:  log,
		Lobby: lobby.Options{
			Sink:     events.NewCaptureRecorder(trainers),
			Notifier: notifiers,
		},
	})
	defer h.Shutdown()

	games := game.NewService(h, cat, game.Options{Logger: log})

	handler := httpapi.SetupRoutes(httpapi.Deps{
		Games:    games,
		Catalog:  cat,
		Pages:    pokemon,
		Accounts: accounts,
		Trainers: trainers,
		Tokens:   tokens,
		Stream:   ws.Handler(games, ws.Options{Logger: log}),
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("session_store", cfg.SessionStore))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
