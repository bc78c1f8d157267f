package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/SnowyUK/actinium/internal/config"
	"github.com/SnowyUK/actinium/internal/store"
	"github.com/SnowyUK/actinium/internal/testutil"
	"github.com/SnowyUK/actinium/pkg/profiler"
)

func strPtr(s string) *string { return &s }
func i64Ptr(n int64) *int64 { return &n }

func TestOpen_CreatesDataDir(t *testing.T) {
	opts := config.Default()
	opts.DataDir = filepath.Join(t.TempDir(), "nested", "dir")

	st, err := store.Open(opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = st.Close() }()

	if err := st.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestCreateProfile(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := st.CreateProfile(ctx, "Test", strPtr("Sunday afternoon"))
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if id == "" {
		t.Fatal("CreateProfile() returned empty id")
	}

	profiles, err := st.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("ListProfiles() returned %d profiles, want 1", len(profiles))
	}

	p := profiles[0]
	if p.ID != id {
		t.Errorf("profile ID = %q, want %q", p.ID, id)
	}
	if p.Name != "Test" {
		t.Errorf("profile name = %q, want %q", p.Name, "Test")
	}
	if p.Comment == nil || *p.Comment != "Sunday afternoon" {
		t.Errorf("profile comment = %v, want %q", p.Comment, "Sunday afternoon")
	}
	if p.Ended != nil {
		t.Errorf("new profile should not be ended, got %v", *p.Ended)
	}
}

func TestInsertEvents(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := st.CreateProfile(ctx, "Test", nil)
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	batch := []profiler.EventRow{
		{
			State:   "Extract",
			Start:   base,
			End:     base.Add(100 * time.Millisecond),
			Records: i64Ptr(100),
		},
		{
			State:   "Load",
			Start:   base.Add(100 * time.Millisecond),
			End:     base.Add(300 * time.Millisecond),
			Records: i64Ptr(200),
			Comment: strPtr("batch 1"),
		},
		{
			State: "Load",
			Start: base.Add(300 * time.Millisecond),
			End:   base.Add(400 * time.Millisecond),
		},
	}

	if err := st.InsertEvents(ctx, id, batch); err != nil {
		t.Fatalf("InsertEvents() error = %v", err)
	}

	count, err := st.EventCount(ctx, id)
	if err != nil {
		t.Fatalf("EventCount() error = %v", err)
	}
	if count != 3 {
		t.Errorf("EventCount() = %d, want 3", count)
	}
}

func TestInsertEvents_EmptyBatch(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := st.CreateProfile(ctx, "Test", nil)
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if err := st.InsertEvents(ctx, id, nil); err != nil {
		t.Errorf("InsertEvents(empty) error = %v", err)
	}
}

func TestStateSummary(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := st.CreateProfile(ctx, "Test", nil)
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	batch := []profiler.EventRow{
		{State: "Load", Start: base, End: base.Add(100 * time.Millisecond), Records: i64Ptr(10)},
		{State: "Transform", Start: base.Add(100 * time.Millisecond), End: base.Add(150 * time.Millisecond)},
		{State: "Load", Start: base.Add(150 * time.Millisecond), End: base.Add(250 * time.Millisecond), Records: i64Ptr(30)},
	}
	if err := st.InsertEvents(ctx, id, batch); err != nil {
		t.Fatalf("InsertEvents() error = %v", err)
	}

	stats, err := st.StateSummary(ctx, id)
	if err != nil {
		t.Fatalf("StateSummary() error = %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("StateSummary() returned %d states, want 2", len(stats))
	}

	// Ordered by total time descending.
	load := stats[0]
	if load.State != "Load" {
		t.Fatalf("stats[0].State = %q, want %q", load.State, "Load")
	}
	if load.Events != 2 {
		t.Errorf("Load events = %d, want 2", load.Events)
	}
	if load.Total != 200*time.Millisecond {
		t.Errorf("Load total = %v, want 200ms", load.Total)
	}
	if load.Records != 40 {
		t.Errorf("Load records = %d, want 40", load.Records)
	}

	transform := stats[1]
	if transform.State != "Transform" {
		t.Fatalf("stats[1].State = %q, want %q", transform.State, "Transform")
	}
	if transform.Records != 0 {
		t.Errorf("Transform records = %d, want 0", transform.Records)
	}
}

func TestCloseProfile(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := st.CreateProfile(ctx, "Test", nil)
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	ended := time.Date(2026, time.March, 1, 13, 0, 0, 0, time.UTC)
	if err := st.CloseProfile(ctx, id, ended); err != nil {
		t.Fatalf("CloseProfile() error = %v", err)
	}

	profiles, err := st.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if profiles[0].Ended == nil {
		t.Fatal("profile should be marked ended")
	}
	if !profiles[0].Ended.Equal(ended) {
		t.Errorf("ended = %v, want %v", profiles[0].Ended, ended)
	}
}

func TestCloseProfile_Unknown(t *testing.T) {
	st := testutil.NewTestStore(t)
	if err := st.CloseProfile(context.Background(), "no-such-id", time.Now()); err == nil {
		t.Error("CloseProfile() with unknown id should fail")
	}
}

func TestLatestProfile(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, err := st.LatestProfile(ctx); err == nil {
		t.Error("LatestProfile() on empty registry should fail")
	}

	if _, err := st.CreateProfile(ctx, "first", nil); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	secondID, err := st.CreateProfile(ctx, "second", nil)
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	latest, err := st.LatestProfile(ctx)
	if err != nil {
		t.Fatalf("LatestProfile() error = %v", err)
	}
	if latest.ID != secondID {
		t.Errorf("LatestProfile() = %q, want %q", latest.ID, secondID)
	}
}

// TestProfilerRoundTrip drives the real profiler against the real store, the
// same composition the CLI demo uses. The profiler owns the store and
// releases it on Close, so verification reopens the database file.
func TestProfilerRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "roundtrip.duckdb")
	ctx := context.Background()

	st, err := store.OpenPath(dbPath, testutil.NewTestLoggerWithOutput(t))
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}

	p, err := profiler.New(ctx, st, "RoundTrip", profiler.WithComment("integration"))
	if err != nil {
		_ = st.Close()
		t.Fatalf("profiler.New() error = %v", err)
	}

	if err := p.Append("Run #0", profiler.WithRecords(100)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := p.Append("Run #1", profiler.WithRecords(200)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := p.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	profileID := p.ID()

	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	verify, err := store.OpenPath(dbPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenPath() for verification error = %v", err)
	}
	defer func() { _ = verify.Close() }()

	// Flush persisted Run #0 plus its housekeeping row; Close persisted the
	// final Run #1 interval.
	count, err := verify.EventCount(ctx, profileID)
	if err != nil {
		t.Fatalf("EventCount() error = %v", err)
	}
	if count != 3 {
		t.Errorf("EventCount() = %d, want 3", count)
	}

	stats, err := verify.StateSummary(ctx, profileID)
	if err != nil {
		t.Fatalf("StateSummary() error = %v", err)
	}
	states := make(map[string]store.StateStat, len(stats))
	for _, s := range stats {
		states[s.State] = s
	}
	if s, ok := states["Run #0"]; !ok || s.Records != 100 {
		t.Errorf("Run #0 summary = %+v, want records 100", s)
	}
	if s, ok := states["Run #1"]; !ok || s.Records != 200 {
		t.Errorf("Run #1 summary = %+v, want records 200", s)
	}
	if _, ok := states[profiler.HousekeepingState]; !ok {
		t.Error("housekeeping state missing from summary")
	}

	profiles, err := verify.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if profiles[0].Ended == nil {
		t.Error("profile should be marked ended after Close")
	}
}
