package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/catalog"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxPageSize = 100

type Catalog interface {
	All(ctx context.Context) ([]catalog.Creature, error)
	ByID(ctx context.Context, id string) (catalog.Creature, error)
	ByNumber(ctx context.Context, number int) (catalog.Creature, error)
	ByType(ctx context.Context, typeName string) ([]catalog.Creature, error)
	ByGeneration(ctx context.Context, generation string) ([]catalog.Creature, error)
	Legendary(ctx context.Context) ([]catalog.Creature, error)
	Mythical(ctx context.Context) ([]catalog.Creature, error)
	LegendaryOrMythical(ctx context.Context) ([]catalog.Creature, error)
	BaseEvolution(ctx context.Context) ([]catalog.Creature, error)
	FinalEvolution(ctx context.Context) ([]catalog.Creature, error)
	Hints(ctx context.Context, id string) (catalog.Hints, error)
	CensoredDescription(ctx context.Context, id string) (string, error)
}

// Pager reads the catalog one page at a time, straight from storage.
type Pager interface {
	Page(ctx context.Context, page, size int) ([]catalog.Creature, int64, error)
}

type pokemonPage struct {
	Items []catalog.Creature `json:"items"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
	Total int64              `json:"total"`
}

// ListPokemon returns the whole catalog, or one page of it when page or size is given.
func ListPokemon(cat Catalog, pages Pager, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") == "" && q.Get("size") == "" {
			all, err := cat.All(r.Context())
			if err != nil {
				writeError(w, r, log, err)
				return
			}
			writeJSON(w, http.StatusOK, all)
			return
		}

		page, err := intParam(q.Get("page"), 1)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		size, err := intParam(q.Get("size"), 20)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		if page < 1 || size < 1 || size > maxPageSize {
			writeError(w, r, log, fmt.Errorf("%w: page must be >= 1 and size within 1..%d", apperr.ErrInvalidArgument, maxPageSize))
			return
		}

		items, total, err := pages.Page(r.Context(), page, size)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, pokemonPage{Items: items, Page: page, Size: size, Total: total})
	}
}

func GetPokemon(cat Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := cat.ByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func GetPokemonByNumber(cat Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(chi.URLParam(r, "number"))
		if err != nil {
			writeError(w, r, log, fmt.Errorf("%w: pokedex number must be an integer", apperr.ErrInvalidArgument))
			return
		}
		c, err := cat.ByNumber(r.Context(), n)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func PokemonHints(cat Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := cat.Hints(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, h)
	}
}

func CensoredDescription(cat Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		desc, err := cat.CensoredDescription(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"description": desc})
	}
}

// listBy serves a filtered catalog list; param names the path parameter
// passed to the query, if any.
func listBy(query func(ctx context.Context, arg string) ([]catalog.Creature, error), param string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var arg string
		if param != "" {
			arg = chi.URLParam(r, param)
		}
		list, err := query(r.Context(), arg)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func noArg(f func(ctx context.Context) ([]catalog.Creature, error)) func(context.Context, string) ([]catalog.Creature, error) {
	return func(ctx context.Context, _ string) ([]catalog.Creature, error) { return f(ctx) }
}

func intParam(v string, fallback int) (int, error) {
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", apperr.ErrInvalidArgument, v)
	}
	return n, nil
}
