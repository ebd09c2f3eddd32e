package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/mediassist/internal/booking"
)

type pgQuerier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists state in the ledger_records and admin_settings tables,
// scoped by desk ID.
type PostgresStore struct {
	db     pgQuerier
	deskID string
	tracer trace.Tracer
}

func NewPostgresStore(pool *pgxpool.Pool, deskID string, tracer trace.Tracer) *PostgresStore {
	if pool == nil {
		panic("persistence: pgx pool required")
	}
	return newPostgresStore(pool, deskID, tracer)
}

func newPostgresStore(db pgQuerier, deskID string, tracer trace.Tracer) *PostgresStore {
	if tracer == nil {
		tracer = otel.Tracer("mediassist.internal.persistence.postgres")
	}
	return &PostgresStore{db: db, deskID: deskID, tracer: tracer}
}

func (s *PostgresStore) LoadLedger(ctx context.Context) ([]booking.Record, error) {
	ctx, span := s.tracer.Start(ctx, "persistence.postgres.load_ledger")
	defer span.End()

	query := `
		SELECT status, patient_name, department, appointment, priority, contact_number, reason, recorded_at
		FROM ledger_records
		WHERE session_id = $1
		ORDER BY position
	`
	rows, err := s.db.Query(ctx, query, s.deskID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("persistence: query ledger: %w", err)
	}
	defer rows.Close()

	records := []booking.Record{}
	for rows.Next() {
		var (
			rec      booking.Record
			status   string
			priority string
		)
		if err := rows.Scan(&status, &rec.PatientName, &rec.Department, &rec.Time, &priority, &rec.ContactNumber, &rec.Reason, &rec.RecordedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("persistence: scan ledger row: %w", err)
		}
		rec.Status = booking.Status(status)
		rec.Priority = booking.Priority(priority)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("persistence: iterate ledger: %w", err)
	}
	return records, nil
}

// SaveLedger replaces the stored snapshot in a single transaction.
func (s *PostgresStore) SaveLedger(ctx context.Context, records []booking.Record) (err error) {
	ctx, span := s.tracer.Start(ctx, "persistence.postgres.save_ledger")
	defer span.End()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("persistence: begin: %w", err)
	}
	defer func() {
		if err != nil {
			span.RecordError(err)
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM ledger_records WHERE session_id = $1`, s.deskID); err != nil {
		return fmt.Errorf("persistence: delete ledger: %w", err)
	}

	insert := `
		INSERT INTO ledger_records (session_id, position, status, patient_name, department, appointment, priority, contact_number, reason, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for i, rec := range records {
		if _, err = tx.Exec(ctx, insert,
			s.deskID,
			i,
			string(rec.Status),
			rec.PatientName,
			rec.Department,
			rec.Time,
			string(rec.Priority),
			rec.ContactNumber,
			rec.Reason,
			rec.RecordedAt,
		); err != nil {
			return fmt.Errorf("persistence: insert ledger row %d: %w", i, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("persistence: commit ledger: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearLedger(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "persistence.postgres.clear_ledger")
	defer span.End()

	if _, err := s.db.Exec(ctx, `DELETE FROM ledger_records WHERE session_id = $1`, s.deskID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("persistence: clear ledger: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadSettings(ctx context.Context) (Settings, error) {
	ctx, span := s.tracer.Start(ctx, "persistence.postgres.load_settings")
	defer span.End()

	var settings Settings
	err := s.db.QueryRow(ctx,
		`SELECT admin_phone, auto_send FROM admin_settings WHERE session_id = $1`,
		s.deskID,
	).Scan(&settings.AdminPhone, &settings.AutoSend)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrNotFound
		}
		span.RecordError(err)
		return Settings{}, fmt.Errorf("persistence: load settings: %w", err)
	}
	return settings, nil
}

func (s *PostgresStore) SaveSettings(ctx context.Context, settings Settings) error {
	ctx, span := s.tracer.Start(ctx, "persistence.postgres.save_settings")
	defer span.End()

	query := `
		INSERT INTO admin_settings (session_id, admin_phone, auto_send)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE
		SET admin_phone = EXCLUDED.admin_phone, auto_send = EXCLUDED.auto_send, updated_at = NOW()
	`
	if _, err := s.db.Exec(ctx, query, s.deskID, settings.AdminPhone, settings.AutoSend); err != nil {
		span.RecordError(err)
		return fmt.Errorf("persistence: save settings: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
