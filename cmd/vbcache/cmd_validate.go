package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every manifest-referenced data file exists",
		Long: `Check that every manifest-referenced data file exists.

For each experiment in the manifest, the session NWB file and the three
precomputed analysis files are located and stat'ed. Missing files are
listed; nothing is modified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			pc, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer pc.Close()

			report, err := pc.Validate(context.Background())
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(report)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Experiments:   %d\n", report.Experiments)
			fmt.Fprintf(cmd.OutOrStdout(), "Files checked: %d\n", report.Checked)
			fmt.Fprintf(cmd.OutOrStdout(), "Files missing: %d\n", len(report.Missing))
			if len(report.Missing) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nAll data files present.")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout())
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EXPERIMENT\tKIND\tPATH")
			for _, missing := range report.Missing {
				fmt.Fprintf(w, "%d\t%s\t%s\n", missing.ExperimentID, missing.Kind, missing.Path)
			}
			w.Flush()
			return nil
		},
	}
}
