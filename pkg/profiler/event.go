package profiler

import "time"

// Event records one contiguous interval during which the instrumented
// program was in a named state. Timing is kept as monotonic offsets from the
// owning Profiler's creation instant; wall-clock conversion happens only at
// flush time, so appends stay immune to NTP adjustments mid-run.
type Event struct {
	// State names the state being entered. Required.
	State string

	// Comment is a free-form annotation. Nil when not provided.
	Comment *string

	// Records counts logical records processed during this state, for
	// throughput calculations. Nil when not provided.
	Records *int64

	start time.Duration // monotonic offset, captured at creation
	end   time.Duration // monotonic offset, zero until closed
	ended bool
}

// EventOption annotates an event at append time.
type EventOption func(*Event)

// WithEventComment attaches a free-form comment to the appended event.
func WithEventComment(comment string) EventOption {
	return func(e *Event) {
		e.Comment = &comment
	}
}

// WithRecords attaches a processed-record count to the appended event.
func WithRecords(n int64) EventOption {
	return func(e *Event) {
		e.Records = &n
	}
}

func newEvent(state string, start time.Duration, opts ...EventOption) *Event {
	e := &Event{
		State: state,
		start: start,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// setEnd closes the event at the given monotonic offset. The end of state N
// is the start of state N+1; Profiler.Append is the only caller, so each
// event is closed at most once.
func (e *Event) setEnd(end time.Duration) {
	e.end = end
	e.ended = true
}

// Ended reports whether the event's interval has been closed.
func (e *Event) Ended() bool {
	return e.ended
}

// Duration returns the length of the interval, or zero while the event is
// still active.
func (e *Event) Duration() time.Duration {
	if !e.ended {
		return 0
	}
	return e.end - e.start
}
