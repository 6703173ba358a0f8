// Package audit persists per-listing reconciliation decisions to Postgres.
// The trail is best-effort: reconciliation never fails because audit storage
// is down, and the service runs fine with no tracker configured.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/getcher123/UD-MVP/internal/match"
)

// Decision is one listing's reconciliation outcome.
type Decision struct {
	RequestID    string
	ListingIndex int
	BuildingName string
	AreaSqm      *float64
	// Outcome is "inserted", "updated", "duplicate" or "skipped".
	Outcome    string
	Position   int
	Candidates []match.Candidate
	DecidedAt  time.Time
}

// Tracker writes decisions to the recon_audit table.
type Tracker struct {
	db *sql.DB
}

// Open connects to Postgres and creates the audit table when absent.
func Open(ctx context.Context, databaseURL string) (*Tracker, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach audit database: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS recon_audit (
			audit_id        bigserial PRIMARY KEY,
			request_id      text NOT NULL,
			listing_index   int NOT NULL,
			building_name   text NOT NULL,
			area_sqm        double precision,
			outcome         text NOT NULL,
			row_position    int,
			candidates_json jsonb,
			decided_at      timestamptz NOT NULL,
			created_at      timestamptz DEFAULT now()
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit table: %w", err)
	}
	return &Tracker{db: db}, nil
}

// Close releases the database handle.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// Record stores one batch's decisions in a single transaction.
func (t *Tracker) Record(ctx context.Context, decisions []Decision) error {
	if len(decisions) == 0 {
		return nil
	}
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer tx.Rollback()

	for _, d := range decisions {
		candidates, err := json.Marshal(d.Candidates)
		if err != nil {
			return fmt.Errorf("failed to encode candidates: %w", err)
		}
		var position any
		if d.Position > 0 {
			position = d.Position
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO recon_audit (
				request_id, listing_index, building_name, area_sqm,
				outcome, row_position, candidates_json, decided_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, d.RequestID, d.ListingIndex, d.BuildingName, d.AreaSqm,
			d.Outcome, position, candidates, d.DecidedAt)
		if err != nil {
			return fmt.Errorf("failed to insert audit row: %w", err)
		}
	}
	return tx.Commit()
}

// History returns the stored decisions for one request, newest first.
func (t *Tracker) History(ctx context.Context, requestID string) ([]Decision, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT listing_index, building_name, area_sqm, outcome,
		       COALESCE(row_position, 0), candidates_json, decided_at
		FROM recon_audit
		WHERE request_id = $1
		ORDER BY decided_at DESC, listing_index ASC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit history: %w", err)
	}
	defer rows.Close()

	var history []Decision
	for rows.Next() {
		d := Decision{RequestID: requestID}
		var area sql.NullFloat64
		var candidates []byte
		if err := rows.Scan(&d.ListingIndex, &d.BuildingName, &area,
			&d.Outcome, &d.Position, &candidates, &d.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		if area.Valid {
			d.AreaSqm = &area.Float64
		}
		if len(candidates) > 0 {
			json.Unmarshal(candidates, &d.Candidates)
		}
		history = append(history, d)
	}
	return history, rows.Err()
}
