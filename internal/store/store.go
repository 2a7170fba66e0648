// Package store defines the persistence boundary of the award pipeline.
// Implementations live in the memory and postgres subpackages.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"procurement-award-notifier/internal/notify"
	"procurement-award-notifier/internal/report"
	"procurement-award-notifier/internal/roster"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Procedure is a stored procurement procedure.
type Procedure struct {
	ID        string    `json:"id"`
	Numero    string    `json:"numero"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredReport is one generated rapport de présentation.
type StoredReport struct {
	ID          uuid.UUID      `json:"id"`
	ProcedureID string         `json:"procedure_id"`
	Report      *report.Report `json:"report"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Notification is a persisted letter record.
type Notification struct {
	ID          uuid.UUID       `json:"id"`
	ProcedureID string          `json:"procedure_id"`
	Kind        notify.Kind     `json:"kind"`
	Candidate   string          `json:"candidate"`
	LotNumero   string          `json:"lot_numero,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProcedureRepository provides access to procedures.
type ProcedureRepository interface {
	GetProcedure(ctx context.Context, id string) (*Procedure, error)
	SaveProcedure(ctx context.Context, procedure *Procedure) error
}

// ReportRepository provides access to generated reports.
type ReportRepository interface {
	LatestReport(ctx context.Context, procedureID string) (*StoredReport, error)
	SaveReport(ctx context.Context, stored *StoredReport) error
}

// RosterRepository provides access to the candidate roster of a procedure.
type RosterRepository interface {
	ListContacts(ctx context.Context, procedureID string) ([]roster.Contact, error)
	SaveContacts(ctx context.Context, procedureID string, contacts []roster.Contact) error
}

// NotificationRepository stores generated letter records. Saving replaces
// every record previously stored for the procedure.
type NotificationRepository interface {
	SaveNotifications(ctx context.Context, procedureID string, notifications []Notification) error
	ListNotifications(ctx context.Context, procedureID string) ([]Notification, error)
}

// NotificationsFromBatch flattens a batch into records ready to save, each
// with a fresh id.
func NotificationsFromBatch(procedureID string, batch notify.Batch, now time.Time) ([]Notification, error) {
	out := make([]Notification, 0, batch.Len())
	add := func(kind notify.Kind, candidate, lot string, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("unable to encode %s for %s: %w", kind, candidate, err)
		}
		out = append(out, Notification{
			ID:          uuid.New(),
			ProcedureID: procedureID,
			Kind:        kind,
			Candidate:   candidate,
			LotNumero:   lot,
			Payload:     data,
			CreatedAt:   now,
		})
		return nil
	}

	for _, data := range batch.Attributions {
		if err := add(data.Kind, data.Candidate.Name, "", data); err != nil {
			return nil, err
		}
	}
	for _, data := range batch.Rejections {
		if err := add(data.Kind, data.Candidate.Name, data.Lot.Numero, data); err != nil {
			return nil, err
		}
	}
	for _, data := range batch.Awards {
		if err := add(data.Kind, data.Candidate.Name, "", data); err != nil {
			return nil, err
		}
	}
	return out, nil
}
