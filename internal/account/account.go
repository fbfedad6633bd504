// Package account stores trainers, their friends and their Pokédex.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCaptureLevel is the level recorded for a creature captured by guessing it.
const DefaultCaptureLevel = 5

type Trainer struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Pseudo       string    `json:"pseudo" gorm:"size:64;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// Friendship is one directed edge of a trainer's friend list.
type Friendship struct {
	TrainerID string `gorm:"primaryKey;size:36"`
	FriendID  string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
}

// Capture records that a trainer identified a creature at least once.
type Capture struct {
	TrainerID     string    `json:"-" gorm:"primaryKey;size:36"`
	PokedexNumber int       `json:"pokemon_id" gorm:"primaryKey;autoIncrement:false"`
	Level         int       `json:"level"`
	CapturedAt    time.Time `json:"captured_at"`
}

// Models lists the tables owned by this package, for migrations.
func Models() []any {
	return []any{&Trainer{}, &Friendship{}, &Capture{}}
}

// Directory is the gorm-backed account store.
type Directory struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db, now: time.Now}
}

func (d *Directory) Create(ctx context.Context, t *Trainer) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := d.db.WithContext(ctx).Create(t).Error
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: pseudo or email already used", apperr.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("%w: create trainer: %w", apperr.ErrFailure, err)
	}
	return nil
}

func (d *Directory) ByID(ctx context.Context, id string) (Trainer, error) {
	return d.first(ctx, "id = ?", id)
}

func (d *Directory) ByEmail(ctx context.Context, email string) (Trainer, error) {
	return d.first(ctx, "email = ?", strings.TrimSpace(email))
}

func (d *Directory) ByPseudo(ctx context.Context, pseudo string) (Trainer, error) {
	return d.first(ctx, "pseudo = ?", strings.TrimSpace(pseudo))
}

func (d *Directory) first(ctx context.Context, query string, arg any) (Trainer, error) {
	var t Trainer
	err := d.db.WithContext(ctx).Where(query, arg).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Trainer{}, fmt.Errorf("%w: trainer", apperr.ErrNotFound)
	}
	if err != nil {
		return Trainer{}, fmt.Errorf("%w: load trainer: %w", apperr.ErrFailure, err)
	}
	return t, nil
}

// AddFriend adds the trainer named pseudo to me's friend list. Adding an
// existing friend is a no-op.
func (d *Directory) AddFriend(ctx context.Context, me, pseudo string) (Trainer, error) {
	friend, err := d.ByPseudo(ctx, pseudo)
	if err != nil {
		return Trainer{}, err
	}
	if friend.ID == me {
		return Trainer{}, fmt.Errorf("%w: cannot add yourself as a friend", apperr.ErrInvalidOperation)
	}
	if _, err := d.ByID(ctx, me); err != nil {
		return Trainer{}, err
	}

	edge := Friendship{TrainerID: me, FriendID: friend.ID, CreatedAt: d.now()}
	err = d.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
	if err != nil {
		return Trainer{}, fmt.Errorf("%w: add friend: %w", apperr.ErrFailure, err)
	}
	return friend, nil
}

func (d *Directory) Friends(ctx context.Context, me string) ([]Trainer, error) {
	var out []Trainer
	err := d.db.WithContext(ctx).
		Joins("JOIN friendships ON friendships.friend_id = trainers.id").
		Where("friendships.trainer_id = ?", me).
		Order("trainers.pseudo").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list friends: %w", apperr.ErrFailure, err)
	}
	return out, nil
}

// RecordCapture adds number to the trainer's Pokédex. Capturing a creature
// the trainer already owns changes nothing.
func (d *Directory) RecordCapture(ctx context.Context, trainerID string, number int) error {
	if _, err := d.ByID(ctx, trainerID); err != nil {
		return err
	}
	c := Capture{
		TrainerID:     trainerID,
		PokedexNumber: number,
		Level:         DefaultCaptureLevel,
		CapturedAt:    d.now(),
	}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error
	if err != nil {
		return fmt.Errorf("%w: record capture: %w", apperr.ErrFailure, err)
	}
	return nil
}

func (d *Directory) Pokedex(ctx context.Context, trainerID string) ([]Capture, error) {
	var out []Capture
	err := d.db.WithContext(ctx).
		Where("trainer_id = ?", trainerID).
		Order("pokedex_number").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("%w: load pokedex: %w", apperr.ErrFailure, err)
	}
	return out, nil
}
