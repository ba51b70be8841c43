package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gtevents/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/gtevents?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			timeframe_days INTEGER NOT NULL,
			high_risk INTEGER NOT NULL,
			medium_risk INTEGER NOT NULL,
			low_risk INTEGER NOT NULL,
			revenue_at_risk DOUBLE PRECISION NOT NULL,
			analysis_json JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts)`,
		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			event_id TEXT NOT NULL,
			title TEXT NOT NULL,
			training_type TEXT NOT NULL,
			event_date TIMESTAMPTZ,
			capacity INTEGER NOT NULL,
			enrolled INTEGER NOT NULL,
			capacity_pct DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			danger_level TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_ts ON events(event_id, ts)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *postgresStore) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, ts, timeframe_days, high_risk, medium_risk, low_risk, revenue_at_risk, analysis_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		snap.ID,
		snap.Timestamp.UTC(),
		snap.Analysis.TimeframeDays,
		len(snap.Analysis.HighRisk),
		len(snap.Analysis.MediumRisk),
		len(snap.Analysis.LowRisk),
		snap.Analysis.TotalRevenueAtRisk,
		encodeJSON(snap.Analysis),
	)
	return err
}

func (s *postgresStore) SaveEvents(ctx context.Context, events []model.UnifiedEvent) error {
	if s.db == nil || len(events) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (ts, event_id, title, training_type, event_date, capacity, enrolled, capacity_pct, status, danger_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx,
			nowUTC(),
			ev.ID,
			ev.Title,
			ev.TrainingType,
			ev.Date.UTC(),
			ev.Capacity,
			ev.Enrolled,
			ev.CapacityPercentage,
			string(ev.Status),
			string(ev.DangerZone.Level),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
