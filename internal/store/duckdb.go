// Package store provides the DuckDB-backed profile store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rs/zerolog"

	"github.com/SnowyUK/actinium/internal/config"
	"github.com/SnowyUK/actinium/pkg/profiler"
)

// DuckDB persists profiles and their events in an embedded DuckDB database.
// It implements profiler.Store and additionally offers the read-side queries
// used for retrospective analysis.
type DuckDB struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// Open creates the data directory if needed, opens the database file derived
// from the options and initializes the schema.
func Open(opts config.Options, logger zerolog.Logger) (*DuckDB, error) {
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	logger = logger.With().Str("component", "store").Logger()
	if opts.User != "" || opts.Host != config.DefaultHost {
		logger.Debug().
			Str("user", opts.User).
			Str("host", opts.Host).
			Msg("Embedded store ignores connection credentials")
	}
	return open(opts.DatabasePath(), logger)
}

// OpenPath opens the database at an explicit file path. An empty path opens
// an in-memory database, which tests use.
func OpenPath(path string, logger zerolog.Logger) (*DuckDB, error) {
	return open(path, logger.With().Str("component", "store").Logger())
}

func open(path string, logger zerolog.Logger) (*DuckDB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &DuckDB{
		db:     db,
		path:   path,
		logger: logger,
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("Profile store opened")
	return s, nil
}

func (s *DuckDB) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS profiles (
			id       TEXT PRIMARY KEY,
			name     TEXT NOT NULL,
			comment  TEXT,
			created  TIMESTAMP NOT NULL DEFAULT current_timestamp,
			ended    TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS events (
			profile_id  TEXT NOT NULL,
			state       TEXT NOT NULL,
			started     TIMESTAMP NOT NULL,
			ended       TIMESTAMP NOT NULL,
			records     BIGINT,
			comment     TEXT
		);

		-- Sessions are analyzed one profile at a time, in chronological order.
		CREATE INDEX IF NOT EXISTS idx_events_profile
		ON events(profile_id, started);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateProfile inserts a new registry row with no end timestamp and returns
// its identifier.
func (s *DuckDB) CreateProfile(ctx context.Context, name string, comment *string) (string, error) {
	id := uuid.NewString()

	query := `INSERT INTO profiles (id, name, comment) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, id, name, comment); err != nil {
		return "", fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Debug().
		Str("profile_id", id).
		Str("name", name).
		Msg("Profile created")
	return id, nil
}

// InsertEvents appends a batch of event rows in a single transaction. Either
// every row is committed or none are.
func (s *DuckDB) InsertEvents(ctx context.Context, profileID string, batch []profiler.EventRow) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.deferRollback(tx)

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (profile_id, state, started, ended, records, comment)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range batch {
		if _, err := stmt.ExecContext(ctx,
			profileID,
			row.State,
			row.Start,
			row.End,
			row.Records,
			row.Comment,
		); err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}

	s.logger.Debug().
		Str("profile_id", profileID).
		Int("events", len(batch)).
		Msg("Event batch committed")
	return nil
}

// CloseProfile marks a registry row as ended.
func (s *DuckDB) CloseProfile(ctx context.Context, profileID string, ended time.Time) error {
	query := `UPDATE profiles SET ended = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, ended, profileID)
	if err != nil {
		return fmt.Errorf("failed to close profile: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("unknown profile %q", profileID)
	}

	s.logger.Debug().Str("profile_id", profileID).Msg("Profile closed")
	return nil
}

// Close releases the database connection.
func (s *DuckDB) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.logger.Debug().Str("path", s.path).Msg("Profile store closed")
	return nil
}

// Ping checks that the database connection is alive.
func (s *DuckDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// deferRollback rolls a transaction back in defer position, ignoring the
// sql.ErrTxDone that follows a successful commit.
func (s *DuckDB) deferRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		s.logger.Warn().Err(err).Msg("transaction rollback failed")
	}
}

var _ profiler.Store = (*DuckDB)(nil)
