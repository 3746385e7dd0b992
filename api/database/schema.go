package database

import "fmt"

// EnsureSchema creates the event store table when it does not exist yet.
// Called explicitly from bootstrap: connecting to Postgres on package import
// would break every binary and test that never touches the store.
func EnsureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS stripe_event (
    aggregate_id TEXT        NOT NULL,
    version      INTEGER     NOT NULL,
    event_name   TEXT        NOT NULL,
    payload      JSONB       NOT NULL,
    recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (aggregate_id, version)
)`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to ensure event store schema: %w", err)
	}
	return nil
}
