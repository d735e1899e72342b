package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/exac-annot/internal/duckdb"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the ExAC lookup cache",
		Long: `The lookup cache keeps raw ExAC responses in a DuckDB file so repeated runs
only query variants they have not seen. Enable it with:

  exac-annot config set cache.enabled true`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cached lookups and recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(runCacheStats)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached lookups and the run log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *duckdb.Store) error {
				if err := s.Clear(); err != nil {
					return err
				}
				fmt.Printf("Cleared cache %s\n", s.Path())
				return nil
			})
		},
	})

	return cmd
}

func cachePath() string {
	if p := viper.GetString("cache.path"); p != "" {
		return p
	}
	return defaultCachePath()
}

func withStore(fn func(*duckdb.Store) error) error {
	s, err := duckdb.Open(cachePath())
	if err != nil {
		return fmt.Errorf("open lookup cache: %w", err)
	}
	defer s.Close()
	return fn(s)
}

func runCacheStats(s *duckdb.Store) error {
	st, err := s.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Cache:   %s\n", s.Path())
	fmt.Printf("Enabled: %v\n", viper.GetBool("cache.enabled"))
	fmt.Printf("Lookups: %d\n", st.Lookups)
	fmt.Printf("Runs:    %d\n", st.Runs)

	runs, err := s.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return nil
	}

	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tINPUT\tRECORDS\tIDENTITIES\tSTARTED")
	for i, r := range runs {
		if i == 10 {
			break
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Input.Path, r.Records, r.Identities, r.StartedAt.Local().Format(time.RFC3339))
	}
	return tw.Flush()
}
