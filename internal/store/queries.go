package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Profile is one registry row.
type Profile struct {
	ID      string
	Name    string
	Comment *string
	Created time.Time
	Ended   *time.Time // nil while the session is still running
}

// StateStat aggregates the persisted events of one state within a profile.
type StateStat struct {
	State   string
	Events  int64
	Total   time.Duration
	Records int64 // sum of record counts; 0 when none were annotated
}

// ListProfiles returns all registered profiles, newest first.
func (s *DuckDB) ListProfiles(ctx context.Context) ([]Profile, error) {
	query := `
		SELECT id, name, comment, created, ended
		FROM profiles
		ORDER BY created DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		var comment sql.NullString
		var ended sql.NullTime
		if err := rows.Scan(&p.ID, &p.Name, &comment, &p.Created, &ended); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		if comment.Valid {
			p.Comment = &comment.String
		}
		if ended.Valid {
			p.Ended = &ended.Time
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return profiles, nil
}

// LatestProfile returns the most recently created profile.
func (s *DuckDB) LatestProfile(ctx context.Context) (Profile, error) {
	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		return Profile{}, err
	}
	if len(profiles) == 0 {
		return Profile{}, fmt.Errorf("no profiles recorded")
	}
	return profiles[0], nil
}

// StateSummary aggregates a profile's events by state: how many intervals
// each state had, how much time it consumed in total and how many records it
// processed. Ordered by total time descending, which is what you read first
// when hunting a bottleneck.
func (s *DuckDB) StateSummary(ctx context.Context, profileID string) ([]StateStat, error) {
	query := `
		SELECT state,
		       COUNT(*) AS events,
		       CAST(SUM(epoch_ms(ended) - epoch_ms(started)) AS BIGINT) AS total_ms,
		       CAST(COALESCE(SUM(records), 0) AS BIGINT) AS records
		FROM events
		WHERE profile_id = ?
		GROUP BY state
		ORDER BY total_ms DESC
	`
	rows, err := s.db.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query state summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []StateStat
	for rows.Next() {
		var st StateStat
		var totalMs int64
		if err := rows.Scan(&st.State, &st.Events, &totalMs, &st.Records); err != nil {
			return nil, fmt.Errorf("failed to scan state summary: %w", err)
		}
		st.Total = time.Duration(totalMs) * time.Millisecond
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating state summary: %w", err)
	}
	return stats, nil
}

// EventCount returns the number of persisted events for a profile.
func (s *DuckDB) EventCount(ctx context.Context, profileID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM events WHERE profile_id = ?`
	if err := s.db.QueryRowContext(ctx, query, profileID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
