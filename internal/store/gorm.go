package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/engine"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRecord is one durable session snapshot. Status and code are copied
// out of the snapshot so they can be queried.
type SessionRecord struct {
	ID        string         `gorm:"primaryKey;size:36"`
	JoinCode  string         `gorm:"size:6;index;not null"`
	Status    string         `gorm:"size:16;index;not null"`
	Version   int            `gorm:"not null"`
	Snapshot  engine.Session `gorm:"serializer:json;type:text"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time
}

func (SessionRecord) TableName() string { return "game_sessions" }

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (g *GormStore) Get(ctx context.Context, id string) (engine.Session, error) {
	return first(g.db.WithContext(ctx).Where("id = ?", id), "session "+id)
}

func (g *GormStore) GetByCode(ctx context.Context, code string) (engine.Session, error) {
	code = NormalizeCode(code)
	q := g.db.WithContext(ctx).Where("join_code = ?", code).Order("created_at DESC")
	return first(q, "join code "+code)
}

func first(q *gorm.DB, what string) (engine.Session, error) {
	var rec SessionRecord
	err := q.First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.Session{}, fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	}
	if err != nil {
		return engine.Session{}, fmt.Errorf("%w: load %s: %w", apperr.ErrFailure, what, err)
	}
	return rec.Snapshot, nil
}

func (g *GormStore) Put(ctx context.Context, s engine.Session) error {
	rec := SessionRecord{
		ID:        s.ID,
		JoinCode:  NormalizeCode(s.JoinCode),
		Status:    string(s.Status),
		Version:   s.Version,
		Snapshot:  s,
		CreatedAt: s.CreatedAt,
	}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "version", "snapshot", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("%w: save session %s: %w", apperr.ErrFailure, s.ID, err)
	}
	return nil
}

func (g *GormStore) Delete(ctx context.Context, id string) error {
	if err := g.db.WithContext(ctx).Delete(&SessionRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("%w: delete session %s: %w", apperr.ErrFailure, id, err)
	}
	return nil
}
