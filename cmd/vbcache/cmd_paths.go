package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths <experiment-id>",
		Short: "Print the data file paths for one experiment",
		Long: `Print the data file paths for one experiment.

The paths follow the dataset release's fixed naming conventions under the
configured nwb and analysis directories. The files themselves may or may not
exist; use 'vbcache validate' for a presence audit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			experimentID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid experiment id %q", args[0])
			}

			pc, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer pc.Close()

			if _, err := pc.Experiment(context.Background(), experimentID); err != nil {
				return fmt.Errorf("experiment %d: %w", experimentID, err)
			}

			paths := map[string]string{
				"nwb":               pc.NWBPath(experimentID),
				"trial_response":    pc.TrialResponsePath(experimentID),
				"flash_response":    pc.FlashResponsePath(experimentID),
				"extended_stimulus": pc.ExtendedStimulusPath(experimentID),
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(paths)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "nwb:                %s\n", paths["nwb"])
			fmt.Fprintf(cmd.OutOrStdout(), "trial_response:     %s\n", paths["trial_response"])
			fmt.Fprintf(cmd.OutOrStdout(), "flash_response:     %s\n", paths["flash_response"])
			fmt.Fprintf(cmd.OutOrStdout(), "extended_stimulus:  %s\n", paths["extended_stimulus"])
			return nil
		},
	}
}
