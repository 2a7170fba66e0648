// Package memory provides in-memory repositories.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"procurement-award-notifier/internal/roster"
	"procurement-award-notifier/internal/store"
)

// Store keeps procedures, reports, rosters and notifications in memory.
type Store struct {
	mu            sync.RWMutex
	procedures    map[string]store.Procedure
	reports       map[string][]store.StoredReport
	contacts      map[string][]roster.Contact
	notifications map[string][]store.Notification
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		procedures:    make(map[string]store.Procedure),
		reports:       make(map[string][]store.StoredReport),
		contacts:      make(map[string][]roster.Contact),
		notifications: make(map[string][]store.Notification),
	}
}

// Verify interface compliance
var (
	_ store.ProcedureRepository    = (*Store)(nil)
	_ store.ReportRepository       = (*Store)(nil)
	_ store.RosterRepository       = (*Store)(nil)
	_ store.NotificationRepository = (*Store)(nil)
)

// GetProcedure returns a procedure by id
func (s *Store) GetProcedure(_ context.Context, id string) (*store.Procedure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	procedure, exists := s.procedures[id]
	if !exists {
		return nil, fmt.Errorf("procedure %s: %w", id, store.ErrNotFound)
	}
	return &procedure, nil
}

// SaveProcedure inserts or replaces a procedure
func (s *Store) SaveProcedure(_ context.Context, procedure *store.Procedure) error {
	if procedure.ID == "" {
		return fmt.Errorf("procedure id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *procedure
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now()
	}
	s.procedures[saved.ID] = saved
	return nil
}

// LatestReport returns the most recently saved report of a procedure
func (s *Store) LatestReport(_ context.Context, procedureID string) (*store.StoredReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := s.reports[procedureID]
	if len(reports) == 0 {
		return nil, fmt.Errorf("report for procedure %s: %w", procedureID, store.ErrNotFound)
	}
	latest := reports[len(reports)-1]
	return &latest, nil
}

// SaveReport appends a report; it becomes the latest one
func (s *Store) SaveReport(_ context.Context, stored *store.StoredReport) error {
	if stored.ProcedureID == "" {
		return fmt.Errorf("procedure id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *stored
	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now()
	}
	s.reports[saved.ProcedureID] = append(s.reports[saved.ProcedureID], saved)
	return nil
}

// ListContacts returns the roster of a procedure, empty when none was saved
func (s *Store) ListContacts(_ context.Context, procedureID string) ([]roster.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contacts := make([]roster.Contact, len(s.contacts[procedureID]))
	copy(contacts, s.contacts[procedureID])
	return contacts, nil
}

// SaveContacts replaces the roster of a procedure
func (s *Store) SaveContacts(_ context.Context, procedureID string, contacts []roster.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make([]roster.Contact, len(contacts))
	copy(saved, contacts)
	s.contacts[procedureID] = saved
	return nil
}

// SaveNotifications replaces the notification records of a procedure
func (s *Store) SaveNotifications(_ context.Context, procedureID string, notifications []store.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make([]store.Notification, len(notifications))
	copy(saved, notifications)
	s.notifications[procedureID] = saved
	return nil
}

// ListNotifications returns the notification records of a procedure in
// insertion order
func (s *Store) ListNotifications(_ context.Context, procedureID string) ([]store.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Notification, len(s.notifications[procedureID]))
	copy(out, s.notifications[procedureID])
	return out, nil
}
