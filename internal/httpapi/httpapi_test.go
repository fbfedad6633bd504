package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/account"
	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/auth"
	"github.com/DoyleJ11/pokeguess-backend/internal/catalog"
	"github.com/DoyleJ11/pokeguess-backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGames struct {
	calls []string
	err   error
}

func (f *fakeGames) record(format string, args ...any) error {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.err
}

func (f *fakeGames) CreateSession(_ context.Context, player1 string) (types.CreatedSession, error) {
	return types.CreatedSession{SessionID: "s1", JoinCode: "ABC123"}, f.record("create %s", player1)
}

func (f *fakeGames) StartSession(_ context.Context, id, player, mode string, solo bool) (types.SessionView, error) {
	return types.SessionView{ID: id, Mode: mode, Solo: solo}, f.record("start %s %s %s %v", id, player, mode, solo)
}

func (f *fakeGames) JoinSession(_ context.Context, code, player2 string) (types.SessionView, error) {
	return types.SessionView{JoinCode: code}, f.record("join %s %s", code, player2)
}

func (f *fakeGames) GetSession(_ context.Context, id, viewer string) (types.SessionView, error) {
	return types.SessionView{ID: id}, f.record("get %s %s", id, viewer)
}

func (f *fakeGames) SubmitGuess(_ context.Context, id, player, text string) (types.GuessResult, error) {
	return types.GuessResult{IsCorrect: true, PointsEarned: 100}, f.record("guess %s %s %s", id, player, text)
}

func (f *fakeGames) UseHint(_ context.Context, id, player, kind string) (types.SessionView, error) {
	return types.SessionView{ID: id}, f.record("hint %s %s %s", id, player, kind)
}

func (f *fakeGames) GetRemainingTime(_ context.Context, id, player string) (float64, error) {
	return 42.5, f.record("timer %s %s", id, player)
}

func (f *fakeGames) ResetTimer(_ context.Context, id, player string) error {
	return f.record("reset %s %s", id, player)
}

type fakeCatalog struct {
	items []catalog.Creature
}

func (f *fakeCatalog) list(keep func(catalog.Creature) bool) ([]catalog.Creature, error) {
	var out []catalog.Creature
	for _, c := range f.items {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCatalog) find(keep func(catalog.Creature) bool) (catalog.Creature, error) {
	got, _ := f.list(keep)
	if len(got) == 0 {
		return catalog.Creature{}, apperr.ErrNotFound
	}
	return got[0], nil
}

func (f *fakeCatalog) All(context.Context) ([]catalog.Creature, error) {
	return f.list(func(catalog.Creature) bool { return true })
}

func (f *fakeCatalog) ByID(_ context.Context, id string) (catalog.Creature, error) {
	return f.find(func(c catalog.Creature) bool { return c.ID == id })
}

func (f *fakeCatalog) ByNumber(_ context.Context, n int) (catalog.Creature, error) {
	return f.find(func(c catalog.Creature) bool { return c.PokedexNumber == n })
}

func (f *fakeCatalog) ByType(_ context.Context, name string) ([]catalog.Creature, error) {
	return f.list(func(c catalog.Creature) bool { return c.HasType(name) })
}

func (f *fakeCatalog) ByGeneration(_ context.Context, name string) ([]catalog.Creature, error) {
	return f.list(func(c catalog.Creature) bool { return c.InGeneration(name) })
}

func (f *fakeCatalog) Legendary(context.Context) ([]catalog.Creature, error) {
	return f.list(func(c catalog.Creature) bool { return c.Status.IsLegendary })
}

func (f *fakeCatalog) Mythical(context.Context) ([]catalog.Creature, error) {
	return f.list(func(c catalog.Creature) bool { return c.Status.IsMythical })
}

func (f *fakeCatalog) LegendaryOrMythical(context.Context) ([]catalog.Creature, error) {
	return f.list(catalog.Creature.IsRare)
}

func (f *fakeCatalog) BaseEvolution(context.Context) ([]catalog.Creature, error) {
	return f.list(catalog.Creature.IsBaseEvolution)
}

func (f *fakeCatalog) FinalEvolution(context.Context) ([]catalog.Creature, error) {
	return f.list(catalog.Creature.IsFinalEvolution)
}

func (f *fakeCatalog) Hints(ctx context.Context, id string) (catalog.Hints, error) {
	c, err := f.ByID(ctx, id)
	if err != nil {
		return catalog.Hints{}, err
	}
	return catalog.FullHints(c), nil
}

func (f *fakeCatalog) CensoredDescription(ctx context.Context, id string) (string, error) {
	c, err := f.ByID(ctx, id)
	if err != nil {
		return "", err
	}
	return c.CensoredDescription(), nil
}

func (f *fakeCatalog) Page(_ context.Context, page, size int) ([]catalog.Creature, int64, error) {
	start := (page - 1) * size
	if start > len(f.items) {
		start = len(f.items)
	}
	end := min(start+size, len(f.items))
	return f.items[start:end], int64(len(f.items)), nil
}

type fakeAccounts struct {
	trainers map[string]account.Trainer
	friends  map[string][]account.Trainer
}

func (f *fakeAccounts) Register(_ context.Context, pseudo, email, password string) (account.Trainer, error) {
	if len(password) < 6 {
		return account.Trainer{}, fmt.Errorf("%w: password too short", apperr.ErrInvalidArgument)
	}
	t := account.Trainer{ID: "t-" + pseudo, Pseudo: pseudo, Email: email}
	f.trainers[t.ID] = t
	return t, nil
}

func (f *fakeAccounts) Login(_ context.Context, email, _ string) (string, account.Trainer, error) {
	for _, t := range f.trainers {
		if t.Email == email {
			return "token-" + t.ID, t, nil
		}
	}
	return "", account.Trainer{}, fmt.Errorf("%w: wrong email or password", apperr.ErrUnauthorized)
}

func (f *fakeAccounts) ByID(_ context.Context, id string) (account.Trainer, error) {
	t, ok := f.trainers[id]
	if !ok {
		return account.Trainer{}, fmt.Errorf("%w: trainer %s", apperr.ErrNotFound, id)
	}
	return t, nil
}

func (f *fakeAccounts) AddFriend(ctx context.Context, me, pseudo string) (account.Trainer, error) {
	friend, err := f.ByID(ctx, "t-"+pseudo)
	if err != nil {
		return account.Trainer{}, err
	}
	f.friends[me] = append(f.friends[me], friend)
	return friend, nil
}

func (f *fakeAccounts) Friends(_ context.Context, me string) ([]account.Trainer, error) {
	return f.friends[me], nil
}

func (f *fakeAccounts) Pokedex(_ context.Context, trainerID string) ([]account.Capture, error) {
	return []account.Capture{{TrainerID: trainerID, PokedexNumber: 25, Level: 5}}, nil
}

type fixture struct {
	handler  http.Handler
	games    *fakeGames
	accounts *fakeAccounts
	token    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens := auth.NewTokens("secret", time.Hour)
	token, err := tokens.Generate("t-sacha", "sacha")
	require.NoError(t, err)

	cat := &fakeCatalog{items: []catalog.Creature{
		{ID: "p1", PokedexNumber: 1, NameFr: "Bulbizarre", NameEn: "Bulbasaur", Description: "Bulbizarre dort.",
			Types: []catalog.Type{{Name: "Plante", NameEn: "Grass", Slot: 1}}},
		{ID: "p25", PokedexNumber: 25, NameFr: "Pikachu", NameEn: "Pikachu",
			Types: []catalog.Type{{Name: "Électrik", NameEn: "Electric", Slot: 1}}},
		{ID: "p151", PokedexNumber: 151, NameFr: "Mew", NameEn: "Mew", Status: catalog.Status{IsMythical: true}},
	}}
	f := &fixture{
		games: &fakeGames{},
		accounts: &fakeAccounts{
			trainers: map[string]account.Trainer{
				"t-sacha":  {ID: "t-sacha", Pseudo: "sacha", Email: "sacha@example.com"},
				"t-ondine": {ID: "t-ondine", Pseudo: "ondine", Email: "ondine@example.com"},
			},
			friends: map[string][]account.Trainer{},
		},
		token: token,
	}
	f.handler = SetupRoutes(Deps{
		Games:    f.games,
		Catalog:  cat,
		Pages:    cat,
		Accounts: f.accounts,
		Trainers: f.accounts,
		Tokens:   tokens,
	})
	return f
}

func (f *fixture) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz", "", false).Code)
}

func TestGameRoutes(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		method string
		path   string
		body   string
		status int
		call   string
	}{
		{http.MethodPost, "/api/games", "", http.StatusCreated, "create t-sacha"},
		{http.MethodPost, "/api/games/join", `{"code":"abc123"}`, http.StatusOK, "join abc123 t-sacha"},
		{http.MethodGet, "/api/games/s1", "", http.StatusOK, "get s1 t-sacha"},
		{http.MethodPost, "/api/games/s1/start", "", http.StatusOK, "start s1 t-sacha standard false"},
		{http.MethodPost, "/api/games/s1/start", `{"mode":"unlimited","solo":true}`, http.StatusOK, "start s1 t-sacha unlimited true"},
		{http.MethodPost, "/api/games/s1/guess", `{"name":"Pikachu"}`, http.StatusOK, "guess s1 t-sacha Pikachu"},
		{http.MethodPost, "/api/games/s1/hint", `{"hint":"Sprite"}`, http.StatusOK, "hint s1 t-sacha Sprite"},
		{http.MethodGet, "/api/games/s1/timer", "", http.StatusOK, "timer s1 t-sacha"},
		{http.MethodPost, "/api/games/s1/timer/reset", "", http.StatusNoContent, "reset s1 t-sacha"},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			f.games.calls = nil
			rec := f.do(tc.method, tc.path, tc.body, true)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, []string{tc.call}, f.games.calls)
		})
	}

	rec := f.do(http.MethodGet, "/api/games/s1/timer", "", true)
	assert.Equal(t, 42.5, decodeBody[types.RemainingTime](t, rec).Seconds)

	rec = f.do(http.MethodPost, "/api/games", "", true)
	assert.Equal(t, "ABC123", decodeBody[types.CreatedSession](t, rec).JoinCode)
}

func TestGameRoutes_RequireToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/games", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.games.calls)
}

func TestGameRoutes_BadBody(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/games/s1/guess", `{"name":`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/games/s1/guess", `{"nom":"Pikachu"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.games.calls)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: session x", apperr.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: unknown hint", apperr.ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("%w: session full", apperr.ErrInvalidOperation), http.StatusConflict},
		{fmt.Errorf("%w: pseudo taken", apperr.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: token expired", apperr.ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("%w: catalog down", apperr.ErrFailure), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			f := newFixture(t)
			f.games.err = tc.err
			rec := f.do(http.MethodGet, "/api/games/s1", "", true)
			assert.Equal(t, tc.status, rec.Code)

			body := decodeBody[errorBody](t, rec)
			if tc.status == http.StatusInternalServerError {
				assert.Equal(t, "internal error", body.Error)
			} else {
				assert.Equal(t, tc.err.Error(), body.Error)
			}
		})
	}
}

func TestPokemonRoutes(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		path   string
		status int
		count  int
	}{
		{"/api/pokemon", http.StatusOK, 3},
		{"/api/pokemon/legendary", http.StatusOK, 0},
		{"/api/pokemon/mythical", http.StatusOK, 1},
		{"/api/pokemon/legendary-mythical", http.StatusOK, 1},
		{"/api/pokemon/base-evolution", http.StatusOK, 3},
		{"/api/pokemon/final-evolution", http.StatusOK, 3},
		{"/api/pokemon/type/grass", http.StatusOK, 1},
		{"/api/pokemon/type/dragon", http.StatusOK, 0},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rec := f.do(http.MethodGet, tc.path, "", false)
			require.Equal(t, tc.status, rec.Code)
			assert.Len(t, decodeBody[[]catalog.Creature](t, rec), tc.count)
		})
	}

	rec := f.do(http.MethodGet, "/api/pokemon/pokedex/25", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pikachu", decodeBody[catalog.Creature](t, rec).NameFr)

	rec = f.do(http.MethodGet, "/api/pokemon/p151", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 151, decodeBody[catalog.Creature](t, rec).PokedexNumber)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/pokemon/pokedex/pika", "", false).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/pokemon/pokedex/999", "", false).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/pokemon/nope", "", false).Code)

	rec = f.do(http.MethodGet, "/api/pokemon/p1/censored-description", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "??? dort.", decodeBody[map[string]string](t, rec)["description"])

	rec = f.do(http.MethodGet, "/api/pokemon/p1/hints", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	hints := decodeBody[catalog.Hints](t, rec)
	require.Len(t, hints.Types, 1)
	assert.Equal(t, "Plante", hints.Types[0].Name)
}

func TestPokemonPaging(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/pokemon?page=2&size=2", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[pokemonPage](t, rec)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 151, page.Items[0].PokedexNumber)

	for _, q := range []string{"page=0", "size=101", "page=x"} {
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/pokemon?"+q, "", false).Code, q)
	}
}

func TestTrainerRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/trainers/register", `{"pseudo":"pierre","email":"pierre@example.com","password":"onix12"}`, false)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "t-pierre", decodeBody[account.Trainer](t, rec).ID)

	rec = f.do(http.MethodPost, "/api/trainers/register", `{"pseudo":"x","email":"x@example.com","password":"1"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/trainers/login", `{"email":"pierre@example.com","password":"onix12"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "token-t-pierre", decodeBody[loginResponse](t, rec).Token)

	rec = f.do(http.MethodPost, "/api/trainers/login", `{"email":"nobody@example.com","password":"x"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/trainers/me", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sacha", decodeBody[account.Trainer](t, rec).Pseudo)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = f.do(http.MethodPost, "/api/trainers/me/friends", `{"pseudo":"ondine"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(http.MethodPost, "/api/trainers/me/friends", `{"pseudo":"giovanni"}`, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/trainers/me/friends", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	friends := decodeBody[[]account.Trainer](t, rec)
	require.Len(t, friends, 1)
	assert.Equal(t, "ondine", friends[0].Pseudo)

	rec = f.do(http.MethodGet, "/api/trainers/me/pokedex", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]account.Capture](t, rec), 1)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/trainers/me", "", false).Code)
}
