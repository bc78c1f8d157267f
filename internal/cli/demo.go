package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SnowyUK/actinium/internal/store"
	"github.com/SnowyUK/actinium/pkg/profiler"
)

func newDemoCmd() *cobra.Command {
	var (
		name       string
		comment    string
		iterations int
		sleepUnit  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a toy instrumented workload",
		Long: `Run a small workload that marks state transitions and sleeps for
varying durations, flushing to the store once per outer iteration. Useful for
smoke-testing a deployment and as an integration example.

Examples:
  # Record a quick demo session
  actinium demo --iterations 3 --sleep 50ms

  # Then inspect it
  actinium report`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions()
			if err != nil {
				return err
			}
			logger := newLogger(opts)

			st, err := store.Open(opts, logger)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}

			ctx := cmd.Context()
			p, err := profiler.New(ctx, st, name,
				profiler.WithComment(comment),
				profiler.WithLogger(logger),
			)
			if err != nil {
				// The profiler never took ownership; release the store here.
				_ = st.Close()
				return err
			}
			defer func() {
				if err := p.Close(ctx); err != nil {
					logger.Warn().Err(err).Msg("failed to close profiler")
				}
			}()

			for i := 0; i < iterations; i++ {
				for _, units := range []int{1, 2, 5, 10} {
					d := time.Duration(units) * sleepUnit
					logger.Debug().Int("iteration", i).Dur("sleep", d).Msg("Entering state")
					if err := p.Append(fmt.Sprintf("Run #%d", i),
						profiler.WithEventComment(fmt.Sprintf("will now sleep for %s", d)),
						profiler.WithRecords(int64(100*units)),
					); err != nil {
						return err
					}
					time.Sleep(d)
				}
				if err := p.Flush(ctx); err != nil {
					return err
				}
			}

			cmd.Printf("Recorded profile %s (%s)\n", p.ID(), name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Demo", "profile name")
	cmd.Flags().StringVar(&comment, "comment", "actinium demo run", "profile comment")
	cmd.Flags().IntVar(&iterations, "iterations", 3, "number of outer iterations")
	cmd.Flags().DurationVar(&sleepUnit, "sleep", 100*time.Millisecond, "base sleep duration per state")

	return cmd
}
