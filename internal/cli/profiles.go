package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/SnowyUK/actinium/internal/store"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List recorded profiling sessions",
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

			profiles, err := st.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				cmd.Println("No profiles recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED\tENDED\tCOMMENT")
			for _, p := range profiles {
				ended := "running"
				if p.Ended != nil {
					ended = p.Ended.Format(time.RFC3339)
				}
				comment := ""
				if p.Comment != nil {
					comment = *p.Comment
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.Name, p.Created.Format(time.RFC3339), ended, comment)
			}
			return w.Flush()
		},
	}
}
