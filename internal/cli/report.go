package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/SnowyUK/actinium/internal/store"
)

func newReportCmd() *cobra.Command {
	var profileID string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize time per state for a profiling session",
		Long: `Aggregate a session's persisted events by state name: interval
count, total duration, records processed and throughput. Defaults to the most
recently created profile.

Examples:
  actinium report
  actinium report --profile 4a3f...`,
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
			defer func() { _ = st.Close() }()

			ctx := cmd.Context()

			if profileID == "" {
				latest, err := st.LatestProfile(ctx)
				if err != nil {
					return err
				}
				profileID = latest.ID
				cmd.Printf("Profile %s (%s), created %s\n\n",
					latest.ID, latest.Name, latest.Created.Format(time.RFC3339))
			}

			stats, err := st.StateSummary(ctx, profileID)
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				cmd.Println("No events recorded for this profile.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STATE\tEVENTS\tTOTAL\tRECORDS\tRECORDS/S")
			for _, s := range stats {
				rate := "-"
				if s.Records > 0 && s.Total > 0 {
					rate = fmt.Sprintf("%.1f", float64(s.Records)/s.Total.Seconds())
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\n",
					s.State, s.Events, s.Total.Round(time.Millisecond), s.Records, rate)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "profile ID (defaults to the latest)")

	return cmd
}
