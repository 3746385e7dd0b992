package eventstore

import (
	"context"
	"errors"
	"time"
)

// Typed errors for the event store. Repositories translate these into
// aggregate-level conditions (cannot reconstitute, stale version).
var (
	// ErrNoEvents indicates no events exist for the aggregate id.
	ErrNoEvents = errors.New("no events for aggregate")
	// ErrVersionConflict indicates the expected version is stale: another
	// writer appended first. The persist must fail rather than overwrite.
	ErrVersionConflict = errors.New("version conflict")
)

// Record is one serialized event in an aggregate's history.
type Record struct {
	AggregateID string
	// Version is 1-based and strictly sequential per aggregate.
	Version    int
	EventName  string
	Payload    []byte
	RecordedAt time.Time
}

// Store is the append-only event store consumed by the repositories.
// Append enforces optimistic concurrency: the first new record's version
// must be expectedVersion+1 and no record at or above it may already exist.
type Store interface {
	Append(ctx context.Context, aggregateID string, expectedVersion int, records []Record) error
	Load(ctx context.Context, aggregateID string) ([]Record, error)
}
