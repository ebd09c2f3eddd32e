// Package persistence keeps the booking ledger and admin settings across restarts.
package persistence

import (
	"context"
	"errors"
	"sync"

	"github.com/wolfman30/mediassist/internal/booking"
)

// ErrNotFound is returned when nothing has been saved yet.
var ErrNotFound = errors.New("persistence: not found")

// Settings are the admin's notification preferences.
type Settings struct {
	AdminPhone string `json:"admin_phone"`
	AutoSend   bool   `json:"auto_send"`
}

// Store persists ledger snapshots and settings. LoadLedger returns an empty
// slice when no ledger was saved; LoadSettings returns ErrNotFound.
type Store interface {
	LoadLedger(ctx context.Context) ([]booking.Record, error)
	SaveLedger(ctx context.Context, records []booking.Record) error
	ClearLedger(ctx context.Context) error
	LoadSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
}

// MemoryStore keeps state in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	records     []booking.Record
	settings    Settings
	hasSettings bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadLedger(ctx context.Context) ([]booking.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]booking.Record{}, s.records...), nil
}

func (s *MemoryStore) SaveLedger(ctx context.Context, records []booking.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]booking.Record(nil), records...)
	return nil
}

func (s *MemoryStore) ClearLedger(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

func (s *MemoryStore) LoadSettings(ctx context.Context) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasSettings {
		return Settings{}, ErrNotFound
	}
	return s.settings, nil
}

func (s *MemoryStore) SaveSettings(ctx context.Context, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.hasSettings = true
	return nil
}

var _ Store = (*MemoryStore)(nil)
