package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"golang.org/x/sync/singleflight"
)

// Source is the storage the lookup reads from.
type Source interface {
	All(ctx context.Context) ([]Creature, error)
}

// Service is the read-only catalog lookup. The catalog is small and immutable
// at runtime, so the whole table is loaded once and filtered in memory;
// concurrent first loads share a single query.
type Service struct {
	src   Source
	group singleflight.Group

	mu    sync.RWMutex
	all   []Creature
	ready bool
}

func NewService(src Source) *Service {
	return &Service{src: src}
}

// Invalidate drops the cached catalog (after seeding).
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.all, s.ready = nil, false
	s.mu.Unlock()
}

func (s *Service) load(ctx context.Context) ([]Creature, error) {
	s.mu.RLock()
	if s.ready {
		all := s.all
		s.mu.RUnlock()
		return all, nil
	}
	s.mu.RUnlock()

	// the load is shared, so one caller giving up must not fail the others
	v, err, _ := s.group.Do("all", func() (any, error) {
		all, err := s.src.All(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.all, s.ready = all, true
		s.mu.Unlock()
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Creature), nil
}

func (s *Service) filter(ctx context.Context, keep func(Creature) bool) ([]Creature, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Creature, 0, len(all))
	for _, c := range all {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) All(ctx context.Context) ([]Creature, error) {
	return s.filter(ctx, func(Creature) bool { return true })
}

func (s *Service) ByID(ctx context.Context, id string) (Creature, error) {
	found, err := s.filter(ctx, func(c Creature) bool { return c.ID == id })
	if err != nil {
		return Creature{}, err
	}
	if len(found) == 0 {
		return Creature{}, fmt.Errorf("%w: pokemon %s", apperr.ErrNotFound, id)
	}
	return found[0], nil
}

func (s *Service) ByNumber(ctx context.Context, number int) (Creature, error) {
	found, err := s.filter(ctx, func(c Creature) bool { return c.PokedexNumber == number })
	if err != nil {
		return Creature{}, err
	}
	if len(found) == 0 {
		return Creature{}, fmt.Errorf("%w: pokemon #%d", apperr.ErrNotFound, number)
	}
	return found[0], nil
}

func (s *Service) ByType(ctx context.Context, typeName string) ([]Creature, error) {
	return s.filter(ctx, func(c Creature) bool { return c.HasType(typeName) })
}

func (s *Service) ByGeneration(ctx context.Context, generation string) ([]Creature, error) {
	return s.filter(ctx, func(c Creature) bool { return c.InGeneration(generation) })
}

func (s *Service) Legendary(ctx context.Context) ([]Creature, error) {
	return s.filter(ctx, func(c Creature) bool { return c.Status.IsLegendary })
}

func (s *Service) Mythical(ctx context.Context) ([]Creature, error) {
	return s.filter(ctx, func(c Creature) bool { return c.Status.IsMythical })
}

func (s *Service) LegendaryOrMythical(ctx context.Context) ([]Creature, error) {
	return s.filter(ctx, Creature.IsRare)
}

func (s *Service) NonLegendary(ctx context.Context) ([]Creature, error) {
	return s.filter(ctx, func(c Creature) bool { return !c.IsRare() })
}

func (s *Service) BaseEvolution(ctx context.Context) ([]Creature, error) {
	return s.filter(ctx, Creature.IsBaseEvolution)
}

func (s *Service) FinalEvolution(ctx context.Context) ([]Creature, error) {
	return s.filter(ctx, Creature.IsFinalEvolution)
}

// Hints returns every hint of the creature with the given id.
func (s *Service) Hints(ctx context.Context, id string) (Hints, error) {
	c, err := s.ByID(ctx, id)
	if err != nil {
		return Hints{}, err
	}
	return FullHints(c), nil
}

func (s *Service) CensoredDescription(ctx context.Context, id string) (string, error) {
	c, err := s.ByID(ctx, id)
	if err != nil {
		return "", err
	}
	return c.CensoredDescription(), nil
}
