package profiler

import (
	"context"
	"time"
)

// EventRow is the wall-clock form of an event, ready for persistence.
// Optional columns use pointers so the store can write NULLs.
type EventRow struct {
	State   string
	Start   time.Time
	End     time.Time
	Records *int64
	Comment *string
}

// Store is the persistence contract the Profiler needs: an append-only event
// sink plus a profile registry. Implementations must allow concurrent
// inserts from independent profiling sessions; a single Profiler is the only
// writer for rows keyed by its own profile ID.
//
// The DuckDB-backed implementation lives in internal/store; tests use an
// in-memory fake.
type Store interface {
	// CreateProfile registers a new profiling session and returns its
	// unique identifier. The registry row starts with no end timestamp.
	CreateProfile(ctx context.Context, name string, comment *string) (string, error)

	// InsertEvents appends a batch of completed intervals for the given
	// profile as a single transaction: either every row is persisted or
	// none are.
	InsertEvents(ctx context.Context, profileID string, batch []EventRow) error

	// CloseProfile marks a profiling session as ended.
	CloseProfile(ctx context.Context, profileID string, ended time.Time) error
}
