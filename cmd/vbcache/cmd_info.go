package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <experiment-id>",
		Short: "Show one experiment's manifest row and session metadata",
		Args:  cobra.ExactArgs(1),
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

			ctx := context.Background()
			exp, err := pc.Experiment(ctx, experimentID)
			if err != nil {
				return fmt.Errorf("experiment %d: %w", experimentID, err)
			}

			out := map[string]interface{}{"experiment": exp}

			// Session metadata needs the data file; report what we can.
			sess, err := pc.Session(ctx, experimentID)
			if err == nil {
				if md, mdErr := sess.Metadata(ctx); mdErr == nil {
					out["metadata"] = md
				} else {
					out["data_error"] = mdErr.Error()
				}
				if params, pErr := sess.TaskParameters(ctx); pErr == nil {
					out["task_parameters"] = params
				}
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Experiment:  %d\n", exp.OphysExperimentID)
			fmt.Fprintf(cmd.OutOrStdout(), "Container:   %d\n", exp.ContainerID)
			fmt.Fprintf(cmd.OutOrStdout(), "Stage:       %s\n", exp.StageName)
			fmt.Fprintf(cmd.OutOrStdout(), "Structure:   %s\n", exp.TargetedStructure)
			fmt.Fprintf(cmd.OutOrStdout(), "Depth:       %d um\n", exp.ImagingDepth)
			fmt.Fprintf(cmd.OutOrStdout(), "Mouse:       %s (%s)\n", exp.AnimalName, exp.Sex)
			fmt.Fprintf(cmd.OutOrStdout(), "Genotype:    %s\n", exp.FullGenotype)
			fmt.Fprintf(cmd.OutOrStdout(), "Acquired:    %s\n", exp.DateOfAcquisition)
			if exp.RetakeNumber > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Retake:      %d\n", exp.RetakeNumber)
			}
			if errMsg, ok := out["data_error"]; ok {
				fmt.Fprintf(cmd.OutOrStdout(), "\nSession data unavailable: %v\n", errMsg)
			}
			return nil
		},
	}
}
