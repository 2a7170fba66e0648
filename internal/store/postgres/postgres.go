// Package postgres implements the store repositories on PostgreSQL with pgx
// and squirrel.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"procurement-award-notifier/internal/notify"
	"procurement-award-notifier/internal/report"
	"procurement-award-notifier/internal/roster"
	"procurement-award-notifier/internal/store"
)

//go:embed schema.sql
var schema string

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements every store repository on one connection pool.
type Store struct {
	db DB
	sb sq.StatementBuilderType
}

var (
	_ store.ProcedureRepository    = (*Store)(nil)
	_ store.ReportRepository       = (*Store)(nil)
	_ store.RosterRepository       = (*Store)(nil)
	_ store.NotificationRepository = (*Store)(nil)
)

// Connect opens a pool and checks it answers.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}

// New wraps a pool.
func New(db DB) *Store {
	return &Store{db: db, sb: builder()}
}

func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Migrate creates the tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func getProcedureQuery(sb sq.StatementBuilderType, id string) sq.SelectBuilder {
	return sb.Select("id", "numero", "titre", "created_at").
		From("procedures").
		Where(sq.Eq{"id": id})
}

func saveProcedureQuery(sb sq.StatementBuilderType, p *store.Procedure) sq.InsertBuilder {
	return sb.Insert("procedures").
		Columns("id", "numero", "titre", "created_at").
		Values(p.ID, p.Numero, p.Title, p.CreatedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET numero = EXCLUDED.numero, titre = EXCLUDED.titre")
}

func latestReportQuery(sb sq.StatementBuilderType, procedureID string) sq.SelectBuilder {
	return sb.Select("id", "procedure_id", "contenu", "created_at").
		From("rapports").
		Where(sq.Eq{"procedure_id": procedureID}).
		OrderBy("created_at DESC").
		Limit(1)
}

func saveReportQuery(sb sq.StatementBuilderType, r *store.StoredReport, content json.RawMessage) sq.InsertBuilder {
	return sb.Insert("rapports").
		Columns("id", "procedure_id", "contenu", "created_at").
		Values(r.ID, r.ProcedureID, content, r.CreatedAt)
}

func listContactsQuery(sb sq.StatementBuilderType, procedureID string) sq.SelectBuilder {
	return sb.Select("nom", "siret", "adresse", "code_postal", "ville", "email", "telephone").
		From("candidats").
		Where(sq.Eq{"procedure_id": procedureID}).
		OrderBy("position")
}

func insertContactsQuery(sb sq.StatementBuilderType, procedureID string, contacts []roster.Contact) sq.InsertBuilder {
	q := sb.Insert("candidats").
		Columns("procedure_id", "position", "nom", "siret", "adresse", "code_postal", "ville", "email", "telephone")
	for i, c := range contacts {
		q = q.Values(procedureID, i, c.Name, c.Siret, c.Address, c.PostalCode, c.City, c.Email, c.Phone)
	}
	return q
}

func insertNotificationsQuery(sb sq.StatementBuilderType, notifications []store.Notification) sq.InsertBuilder {
	q := sb.Insert("notifications").
		Columns("id", "procedure_id", "kind", "candidat", "lot_numero", "payload", "created_at")
	for _, n := range notifications {
		q = q.Values(n.ID, n.ProcedureID, string(n.Kind), n.Candidate, n.LotNumero, n.Payload, n.CreatedAt)
	}
	return q
}

func deleteNotificationsQuery(sb sq.StatementBuilderType, procedureID string) sq.DeleteBuilder {
	return sb.Delete("notifications").Where(sq.Eq{"procedure_id": procedureID})
}

func listNotificationsQuery(sb sq.StatementBuilderType, procedureID string) sq.SelectBuilder {
	return sb.Select("id", "procedure_id", "kind", "candidat", "lot_numero", "payload", "created_at").
		From("notifications").
		Where(sq.Eq{"procedure_id": procedureID}).
		OrderBy("created_at", "id")
}

// GetProcedure returns a procedure by id.
func (s *Store) GetProcedure(ctx context.Context, id string) (*store.Procedure, error) {
	query, args, err := getProcedureQuery(s.sb, id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var p store.Procedure
	err = s.db.QueryRow(ctx, query, args...).Scan(&p.ID, &p.Numero, &p.Title, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("procedure %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get procedure: %w", err)
	}
	return &p, nil
}

// SaveProcedure inserts or updates a procedure.
func (s *Store) SaveProcedure(ctx context.Context, procedure *store.Procedure) error {
	if procedure.ID == "" {
		return fmt.Errorf("procedure id is required")
	}
	saved := *procedure
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now()
	}
	query, args, err := saveProcedureQuery(s.sb, &saved).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save procedure: %w", err)
	}
	return nil
}

// LatestReport returns the most recent report of a procedure.
func (s *Store) LatestReport(ctx context.Context, procedureID string) (*store.StoredReport, error) {
	query, args, err := latestReportQuery(s.sb, procedureID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var (
		stored  store.StoredReport
		content []byte
	)
	err = s.db.QueryRow(ctx, query, args...).Scan(&stored.ID, &stored.ProcedureID, &content, &stored.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("report for procedure %s: %w", procedureID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	stored.Report, err = report.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", stored.ID, err)
	}
	return &stored, nil
}

// SaveReport stores a new report version.
func (s *Store) SaveReport(ctx context.Context, stored *store.StoredReport) error {
	if stored.ProcedureID == "" {
		return fmt.Errorf("procedure id is required")
	}
	saved := *stored
	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now()
	}
	content, err := json.Marshal(saved.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	query, args, err := saveReportQuery(s.sb, &saved, content).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// ListContacts returns the roster of a procedure in saved order.
func (s *Store) ListContacts(ctx context.Context, procedureID string) ([]roster.Contact, error) {
	query, args, err := listContactsQuery(s.sb, procedureID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []roster.Contact{}
	for rows.Next() {
		var c roster.Contact
		if err := rows.Scan(&c.Name, &c.Siret, &c.Address, &c.PostalCode, &c.City, &c.Email, &c.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// SaveContacts replaces the roster of a procedure in one transaction.
func (s *Store) SaveContacts(ctx context.Context, procedureID string, contacts []roster.Contact) error {
	deleteQuery, deleteArgs, err := s.sb.Delete("candidats").Where(sq.Eq{"procedure_id": procedureID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteQuery, deleteArgs...); err != nil {
			return fmt.Errorf("failed to clear contacts: %w", err)
		}
		if len(contacts) == 0 {
			return nil
		}
		query, args, err := insertContactsQuery(s.sb, procedureID, contacts).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build query: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to save contacts: %w", err)
		}
		return nil
	})
}

// SaveNotifications replaces the notification records of a procedure in one
// transaction.
func (s *Store) SaveNotifications(ctx context.Context, procedureID string, notifications []store.Notification) error {
	deleteQuery, deleteArgs, err := deleteNotificationsQuery(s.sb, procedureID).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteQuery, deleteArgs...); err != nil {
			return fmt.Errorf("failed to clear notifications: %w", err)
		}
		if len(notifications) == 0 {
			return nil
		}
		query, args, err := insertNotificationsQuery(s.sb, notifications).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build query: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to save notifications: %w", err)
		}
		return nil
	})
}

// ListNotifications returns the notification records of a procedure.
func (s *Store) ListNotifications(ctx context.Context, procedureID string) ([]store.Notification, error) {
	query, args, err := listNotificationsQuery(s.sb, procedureID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := []store.Notification{}
	for rows.Next() {
		var (
			n       store.Notification
			kind    string
			payload []byte
		)
		if err := rows.Scan(&n.ID, &n.ProcedureID, &kind, &n.Candidate, &n.LotNumero, &payload, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Kind = notify.Kind(kind)
		n.Payload = payload
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}
