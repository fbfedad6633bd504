// Package store keeps committed session snapshots so a session outlives the
// actor that owns it.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/engine"
)

// Store is keyed by session id, with a secondary index on join code. A code
// that was reused points at the most recently created session; later writes
// to an older session never take it back.
type Store interface {
	Get(ctx context.Context, id string) (engine.Session, error)
	GetByCode(ctx context.Context, code string) (engine.Session, error)
	Put(ctx context.Context, s engine.Session) error
	Delete(ctx context.Context, id string) error
}

// NormalizeCode is the canonical form of a join code: trimmed, upper-case.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]engine.Session
	codes    map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]engine.Session),
		codes:    make(map[string]string),
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (engine.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return engine.Session{}, fmt.Errorf("%w: session %s", apperr.ErrNotFound, id)
	}
	return s.Clone(), nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code string) (engine.Session, error) {
	code = NormalizeCode(code)
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[m.codes[code]]
	if !ok {
		return engine.Session{}, fmt.Errorf("%w: join code %s", apperr.ErrNotFound, code)
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, s engine.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.JoinCode != "" {
		code := NormalizeCode(s.JoinCode)
		holder, held := m.sessions[m.codes[code]]
		if !held || holder.ID == s.ID || !holder.CreatedAt.After(s.CreatedAt) {
			m.codes[code] = s.ID
		}
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	delete(m.sessions, id)
	code := NormalizeCode(s.JoinCode)
	if m.codes[code] != id {
		return nil
	}
	delete(m.codes, code)
	// fall back to the newest remaining session with the same code
	var next engine.Session
	for _, other := range m.sessions {
		if NormalizeCode(other.JoinCode) != code {
			continue
		}
		if next.ID == "" || other.CreatedAt.After(next.CreatedAt) {
			next = other
		}
	}
	if next.ID != "" {
		m.codes[code] = next.ID
	}
	return nil
}
