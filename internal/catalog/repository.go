package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads and writes the pokemon table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) All(ctx context.Context) ([]Creature, error) {
	var out []Creature
	if err := r.db.WithContext(ctx).Order("pokedex_number").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("%w: load pokemon: %w", apperr.ErrFailure, err)
	}
	return out, nil
}

func (r *Repository) ByID(ctx context.Context, id string) (Creature, error) {
	return r.first(ctx, "pokemon "+id, "id = ?", id)
}

func (r *Repository) ByNumber(ctx context.Context, number int) (Creature, error) {
	return r.first(ctx, fmt.Sprintf("pokemon #%d", number), "pokedex_number = ?", number)
}

func (r *Repository) first(ctx context.Context, what string, query string, args ...any) (Creature, error) {
	var c Creature
	err := r.db.WithContext(ctx).Where(query, args...).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Creature{}, fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	}
	if err != nil {
		return Creature{}, fmt.Errorf("%w: load %s: %w", apperr.ErrFailure, what, err)
	}
	return c, nil
}

// Page returns one page of the catalog ordered by pokedex number, plus the total count.
// page is 1-based.
func (r *Repository) Page(ctx context.Context, page, size int) ([]Creature, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	db := r.db.WithContext(ctx).Model(&Creature{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count pokemon: %w", apperr.ErrFailure, err)
	}

	var items []Creature
	err := r.db.WithContext(ctx).
		Order("pokedex_number").
		Offset((page - 1) * size).
		Limit(size).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: page pokemon: %w", apperr.ErrFailure, err)
	}
	return items, total, nil
}

// Upsert inserts or replaces creatures keyed by pokedex number.
func (r *Repository) Upsert(ctx context.Context, creatures []Creature) error {
	if len(creatures) == 0 {
		return nil
	}
	for i := range creatures {
		if creatures[i].ID == "" {
			creatures[i].ID = uuid.NewString()
		}
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pokedex_number"}},
		UpdateAll: true,
	}).CreateInBatches(creatures, 100).Error
	if err != nil {
		return fmt.Errorf("%w: upsert pokemon: %w", apperr.ErrFailure, err)
	}
	return nil
}
