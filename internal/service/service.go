// Package service runs the award pipeline against the repositories.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"procurement-award-notifier/internal/award"
	"procurement-award-notifier/internal/letters"
	"procurement-award-notifier/internal/notify"
	"procurement-award-notifier/internal/report"
	"procurement-award-notifier/internal/roster"
	"procurement-award-notifier/internal/store"
)

// Repositories groups the storage the service reads and writes.
type Repositories struct {
	Procedures    store.ProcedureRepository
	Reports       store.ReportRepository
	Roster        store.RosterRepository
	Notifications store.NotificationRepository
}

// Settings carries the per-deployment values printed on letters.
type Settings struct {
	Buyer          notify.BuyerIdentity
	StandstillDays int
}

// Service classifies candidates and produces their notifications.
type Service struct {
	repos    Repositories
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a service. A nil logger falls back to slog.Default().
func New(repos Repositories, settings Settings, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.StandstillDays <= 0 {
		settings.StandstillDays = notify.StandstillDays
	}
	return &Service{
		repos:    repos,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Import stores a procedure together with its report and roster.
func (s *Service) Import(ctx context.Context, procedure *store.Procedure, rep *report.Report, contacts []roster.Contact) error {
	if err := s.repos.Procedures.SaveProcedure(ctx, procedure); err != nil {
		return fmt.Errorf("failed to save procedure %s: %w", procedure.ID, err)
	}
	if err := s.repos.Reports.SaveReport(ctx, &store.StoredReport{ProcedureID: procedure.ID, Report: rep}); err != nil {
		return fmt.Errorf("failed to save report for %s: %w", procedure.ID, err)
	}
	if err := s.repos.Roster.SaveContacts(ctx, procedure.ID, contacts); err != nil {
		return fmt.Errorf("failed to save roster for %s: %w", procedure.ID, err)
	}
	return nil
}

// Classify runs the aggregation and classification for a procedure.
func (s *Service) Classify(ctx context.Context, procedureID string) (*award.Result, error) {
	_, result, err := s.load(ctx, procedureID)
	return result, err
}

// Notifications builds the NOTI1, NOTI3 and NOTI5 records of a procedure and
// persists them in place of any earlier run.
func (s *Service) Notifications(ctx context.Context, procedureID string) (notify.Batch, error) {
	batch, err := s.batch(ctx, procedureID)
	if err != nil {
		return notify.Batch{}, err
	}

	records, err := store.NotificationsFromBatch(procedureID, batch, s.now())
	if err != nil {
		return notify.Batch{}, err
	}
	if err := s.repos.Notifications.SaveNotifications(ctx, procedureID, records); err != nil {
		return notify.Batch{}, fmt.Errorf("failed to save notifications for %s: %w", procedureID, err)
	}

	s.logger.Info("notifications generated",
		"procedure_id", procedureID,
		"attributions", len(batch.Attributions),
		"rejections", len(batch.Rejections),
		"awards", len(batch.Awards),
	)
	return batch, nil
}

// StoredNotifications returns the records saved by the last Notifications
// run of a procedure.
func (s *Service) StoredNotifications(ctx context.Context, procedureID string) ([]store.Notification, error) {
	if _, err := s.repos.Procedures.GetProcedure(ctx, procedureID); err != nil {
		return nil, fmt.Errorf("failed to get procedure %s: %w", procedureID, err)
	}
	records, err := s.repos.Notifications.ListNotifications(ctx, procedureID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for %s: %w", procedureID, err)
	}
	return records, nil
}

// Export renders every letter of a procedure into a ZIP archive written to w
// and returns the number of letters.
func (s *Service) Export(ctx context.Context, procedureID string, w io.Writer) (int, error) {
	batch, err := s.batch(ctx, procedureID)
	if err != nil {
		return 0, err
	}
	docs, err := letters.RenderBatch(batch)
	if err != nil {
		return 0, fmt.Errorf("failed to render letters for %s: %w", procedureID, err)
	}
	if err := letters.WriteZip(w, docs); err != nil {
		return 0, fmt.Errorf("failed to export letters for %s: %w", procedureID, err)
	}

	s.logger.Info("letters exported", "procedure_id", procedureID, "documents", len(docs))
	return len(docs), nil
}

func (s *Service) batch(ctx context.Context, procedureID string) (notify.Batch, error) {
	procedure, result, err := s.load(ctx, procedureID)
	if err != nil {
		return notify.Batch{}, err
	}
	batch := notify.BuildAll(procedure, result)
	for i := range batch.Rejections {
		batch.Rejections[i].StandstillDays = s.settings.StandstillDays
	}
	return batch, nil
}

func (s *Service) load(ctx context.Context, procedureID string) (notify.Procedure, *award.Result, error) {
	stored, err := s.repos.Procedures.GetProcedure(ctx, procedureID)
	if err != nil {
		return notify.Procedure{}, nil, fmt.Errorf("failed to get procedure %s: %w", procedureID, err)
	}
	latest, err := s.repos.Reports.LatestReport(ctx, procedureID)
	if err != nil {
		return notify.Procedure{}, nil, fmt.Errorf("failed to get report for %s: %w", procedureID, err)
	}
	contacts, err := s.repos.Roster.ListContacts(ctx, procedureID)
	if err != nil {
		return notify.Procedure{}, nil, fmt.Errorf("failed to list roster for %s: %w", procedureID, err)
	}

	procedure := notify.Procedure{
		Numero: firstNonEmpty(stored.Numero, latest.Report.ProcedureNumber()),
		Title:  firstNonEmpty(stored.Title, latest.Report.Title()),
		Buyer:  s.settings.Buyer,
	}

	lots := report.ExtractLots(latest.Report)
	result := award.Run(lots, contacts)

	s.logger.Info("procedure classified",
		"procedure_id", procedureID,
		"multi_lot", report.IsMultiLot(latest.Report),
		"lots", result.TotalLots,
		"candidates", len(result.Candidates),
		"winners", len(result.Winners),
		"losers", len(result.Losers),
		"mixed", len(result.Mixed),
		"unawarded_lots", len(result.UnawardedLots),
	)
	return procedure, result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
