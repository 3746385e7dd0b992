package eventstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore persists event records in the stripe_event table.
// The (aggregate_id, version) primary key is the optimistic concurrency
// guard: a stale append hits a unique violation instead of overwriting.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, aggregateID string, expectedVersion int, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin append: %w", err)
	}
	defer tx.Rollback()

	version := expectedVersion
	for _, r := range records {
		version++
		_, err := tx.ExecContext(ctx,
			"INSERT INTO stripe_event (aggregate_id, version, event_name, payload, recorded_at) VALUES ($1, $2, $3, $4, $5)",
			aggregateID, version, r.EventName, r.Payload, r.RecordedAt,
		)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
				return fmt.Errorf("%w: aggregate %s at version %d", ErrVersionConflict, aggregateID, version)
			}
			return fmt.Errorf("failed to append event %s: %w", r.EventName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, aggregateID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT aggregate_id, version, event_name, payload, recorded_at FROM stripe_event WHERE aggregate_id = $1 ORDER BY version",
		aggregateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.AggregateID, &r.Version, &r.EventName, &r.Payload, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event rows: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEvents, aggregateID)
	}
	return records, nil
}
