// Package profiler records named state transitions of a long-running Go
// program with minimal overhead, periodically persisting them to a durable
// store so memory stays bounded over the program's lifetime.
//
// It grew out of analyzing long ETL jobs that were not performing as
// desired: the job marks each state it enters, and the recorded intervals
// are later analyzed by state name, duration and record throughput.
//
// Basic usage:
//
//	st, err := store.Open(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p, err := profiler.New(ctx, st, "nightly-etl",
//	    profiler.WithComment("full reload"),
//	    profiler.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close(ctx)
//
//	for batch := range batches {
//	    p.Append("Load", profiler.WithRecords(int64(len(batch))))
//	    load(batch)
//	    p.Append("Transform")
//	    transform(batch)
//	    p.Flush(ctx)
//	}
//
// Append only reads the monotonic clock and grows an in-memory buffer; it
// never blocks. Flush drains the buffer to the store in one transaction and
// charges its own cost to a synthetic "Profiler Housekeeping" state, so the
// persisted intervals for real states are undistorted by the bookkeeping.
// Close always marks the profile as ended and releases the store, even when
// a final flush fails, so partially collected data is not silently lost.
//
// The store behind the Profiler is abstract (see Store); the DuckDB-backed
// implementation lives in internal/store and any fake implementing the three
// operations works for tests.
package profiler
