package httpapi

import (
	"net/http"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Games    Games
	Catalog  Catalog
	Pages    Pager
	Accounts Accounts
	Trainers Trainers
	Tokens   *auth.Tokens
	// Stream serves the websocket snapshot stream; nil leaves /ws unmounted.
	Stream http.Handler
	Logger *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Post("/api/trainers/register", Register(d.Accounts, log))
	r.Post("/api/trainers/login", Login(d.Accounts, log))

	r.Route("/api/pokemon", func(r chi.Router) {
		r.Get("/", ListPokemon(d.Catalog, d.Pages, log))
		r.Get("/legendary", listBy(noArg(d.Catalog.Legendary), "", log))
		r.Get("/mythical", listBy(noArg(d.Catalog.Mythical), "", log))
		r.Get("/legendary-mythical", listBy(noArg(d.Catalog.LegendaryOrMythical), "", log))
		r.Get("/base-evolution", listBy(noArg(d.Catalog.BaseEvolution), "", log))
		r.Get("/final-evolution", listBy(noArg(d.Catalog.FinalEvolution), "", log))
		r.Get("/type/{type}", listBy(d.Catalog.ByType, "type", log))
		r.Get("/generation/{generation}", listBy(d.Catalog.ByGeneration, "generation", log))
		r.Get("/pokedex/{number}", GetPokemonByNumber(d.Catalog, log))
		r.Get("/{id}", GetPokemon(d.Catalog, log))
		r.Get("/{id}/hints", PokemonHints(d.Catalog, log))
		r.Get("/{id}/censored-description", CensoredDescription(d.Catalog, log))
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(d.Tokens))

		r.Route("/api/trainers/me", func(r chi.Router) {
			r.Get("/", Me(d.Trainers, log))
			r.Get("/pokedex", MyPokedex(d.Trainers, log))
			r.Get("/friends", MyFriends(d.Trainers, log))
			r.Post("/friends", AddFriend(d.Trainers, log))
		})

		r.Route("/api/games", func(r chi.Router) {
			r.Post("/", CreateGame(d.Games, log))
			r.Post("/join", JoinGame(d.Games, log))
			r.Get("/{id}", GetGame(d.Games, log))
			r.Post("/{id}/start", StartGame(d.Games, log))
			r.Post("/{id}/guess", Guess(d.Games, log))
			r.Post("/{id}/hint", UseHint(d.Games, log))
			r.Get("/{id}/timer", RemainingTime(d.Games, log))
			r.Post("/{id}/timer/reset", ResetTimer(d.Games, log))
		})

		if d.Stream != nil {
			r.Get("/ws", d.Stream.ServeHTTP)
		}
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}
