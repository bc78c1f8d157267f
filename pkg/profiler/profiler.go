package profiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// HousekeepingState is the synthetic state that absorbs the cost of flushing,
// so that flush latency is never misattributed to a real state.
const HousekeepingState = "Profiler Housekeeping"

// ErrClosed is returned by operations on a Profiler after Close.
var ErrClosed = errors.New("profiler is closed")

// Profiler records named state transitions of a long-running program and
// periodically persists them, keeping memory bounded over the program's
// lifetime.
//
// Append is the hot path: O(1), no I/O, safe to call per-iteration of a
// tight loop. Flush performs the only I/O and should be invoked periodically
// (for example once per outer loop iteration). A Profiler is intended for a
// single goroutine; it does no internal locking.
type Profiler struct {
	name   string
	id     string
	store  Store
	logger zerolog.Logger

	// created pairs a wall-clock and a monotonic reading, captured once.
	// Every event timestamp is a monotonic offset from it, converted to
	// wall-clock time only when rows are built for the store.
	created time.Time

	events  []*Event
	comment *string // registry-row comment, consulted at construction only
	closed  bool
}

// Option configures a Profiler at construction.
type Option func(*Profiler)

// WithLogger sets the diagnostic logger. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Profiler) {
		p.logger = logger
	}
}

// WithComment attaches a free-form comment to the profile registry row.
func WithComment(comment string) Option {
	return func(p *Profiler) {
		p.comment = &comment
	}
}

// New registers a new profiling session with the store and returns a
// Profiler ready for Append/Flush cycles. The Profiler takes ownership of
// the store: if it implements io.Closer it is released by Close. Give each
// Profiler its own store connection; the registry and events tables are
// shared across sessions by profile ID.
//
// Construction is fatal on failure: if the store is unreachable or the
// profile row cannot be created, no Profiler is returned and nothing needs
// cleaning up.
func New(ctx context.Context, st Store, name string, opts ...Option) (*Profiler, error) {
	if st == nil {
		return nil, errors.New("profiler: store is required")
	}
	if name == "" {
		return nil, errors.New("profiler: name is required")
	}

	p := &Profiler{
		name:   name,
		store:  st,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("component", "profiler").Str("profile", name).Logger()

	id, err := st.CreateProfile(ctx, name, p.comment)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	p.id = id
	p.created = time.Now()

	p.logger.Debug().Str("profile_id", id).Msg("Profiling session started")
	return p, nil
}

// Append marks the transition into a new state. It closes the previous
// event's interval at the new event's start, so intervals are contiguous and
// never overlap. No I/O, no blocking.
func (p *Profiler) Append(state string, opts ...EventOption) error {
	if p.closed {
		return ErrClosed
	}
	if state == "" {
		return errors.New("profiler: state name is required")
	}

	now := time.Since(p.created)
	if n := len(p.events); n > 0 {
		p.events[n-1].setEnd(now)
	}
	p.events = append(p.events, newEvent(state, now, opts...))
	return nil
}

// Flush persists the buffered events as one atomic batch and truncates the
// buffer to a single event that resumes the state active before the flush.
//
// The batch holds every completed interval plus one housekeeping row that
// runs from the active event's start up to the moment the batch was handed
// to the store; the resumed event starts only after the store call returns.
// Time spent inside Flush is therefore attributed to the housekeeping state,
// never to the state being measured. A flush of an N-event buffer persists
// exactly N rows.
//
// If the store write fails the transaction is not committed and the buffer
// is left unmodified, so the caller may simply retry later. The Profiler
// never retries on its own.
func (p *Profiler) Flush(ctx context.Context) error {
	if p.closed {
		return ErrClosed
	}
	if len(p.events) == 0 {
		return nil
	}

	active := p.events[len(p.events)-1]

	rows := make([]EventRow, 0, len(p.events))
	for _, e := range p.events[:len(p.events)-1] {
		rows = append(rows, p.row(e))
	}
	hkEnd := time.Since(p.created)
	rows = append(rows, EventRow{
		State: HousekeepingState,
		Start: p.wallClock(active.start),
		End:   p.wallClock(hkEnd),
	})

	if err := p.store.InsertEvents(ctx, p.id, rows); err != nil {
		return fmt.Errorf("failed to flush events: %w", err)
	}

	// Resume the interrupted state as though the flush had not happened.
	// Its start is taken after the store call so that store latency lands
	// between the housekeeping row and the resumed interval rather than
	// inside a measured state.
	resumed := newEvent(active.State, time.Since(p.created))
	resumed.Comment = active.Comment
	resumed.Records = active.Records
	p.events = append(p.events[:0], resumed)

	p.logger.Debug().
		Str("profile_id", p.id).
		Int("events", len(rows)).
		Msg("Flushed events to store")
	return nil
}

// Close persists every remaining buffered event, marks the profile as ended
// and releases the store connection. Unlike Flush there is no state to
// resume, so the active event is closed at the current instant and persisted
// under its own name. Teardown is best-effort: the profile is marked ended
// and the store released even when the final drain fails, and the
// accumulated errors are joined into the return value. Closing twice is a
// no-op.
func (p *Profiler) Close(ctx context.Context) error {
	if p.closed {
		return nil
	}

	flushErr := p.drain(ctx)
	p.closed = true

	closeErr := p.store.CloseProfile(ctx, p.id, time.Now())

	var releaseErr error
	if closer, ok := p.store.(io.Closer); ok {
		releaseErr = closer.Close()
	}

	p.logger.Debug().Str("profile_id", p.id).Msg("Profiling session closed")

	if err := errors.Join(flushErr, closeErr, releaseErr); err != nil {
		return fmt.Errorf("failed to close profiler: %w", err)
	}
	return nil
}

// drain persists every buffered event, closing the active one at the
// current instant. The buffer is mutated only after the store accepts the
// batch.
func (p *Profiler) drain(ctx context.Context) error {
	if len(p.events) == 0 {
		return nil
	}

	rows := make([]EventRow, 0, len(p.events))
	for _, e := range p.events[:len(p.events)-1] {
		rows = append(rows, p.row(e))
	}
	final := p.row(p.events[len(p.events)-1])
	final.End = p.wallClock(time.Since(p.created))
	rows = append(rows, final)

	if err := p.store.InsertEvents(ctx, p.id, rows); err != nil {
		return fmt.Errorf("failed to drain events: %w", err)
	}
	p.events = p.events[:0]

	p.logger.Debug().
		Str("profile_id", p.id).
		Int("events", len(rows)).
		Msg("Drained remaining events to store")
	return nil
}

// ID returns the identifier assigned by the store's profile registry.
func (p *Profiler) ID() string {
	return p.id
}

// Name returns the profiling session name.
func (p *Profiler) Name() string {
	return p.name
}

// Pending returns the number of buffered events, including the active one.
func (p *Profiler) Pending() int {
	return len(p.events)
}

func (p *Profiler) row(e *Event) EventRow {
	return EventRow{
		State:   e.State,
		Start:   p.wallClock(e.start),
		End:     p.wallClock(e.end),
		Records: e.Records,
		Comment: e.Comment,
	}
}

// wallClock converts a monotonic offset into wall-clock time using the
// anchor captured at construction.
func (p *Profiler) wallClock(offset time.Duration) time.Time {
	return p.created.Add(offset)
}
