package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Laura-lc/AllenSDK/internal/models"
)

func newManifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "List experiments in the project manifest",
		Long: `List experiments in the project manifest.

The manifest CSV is imported into the local catalog on first use and
re-imported whenever the CSV changes.

Examples:
  vbcache manifest                          # All experiments
  vbcache manifest --container 782536745    # One container's sessions
  vbcache manifest --stage OPHYS_1_images_A # One behavior stage
  vbcache manifest --structure VISp --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			containerID, _ := cmd.Flags().GetInt64("container")
			stage, _ := cmd.Flags().GetString("stage")
			structure, _ := cmd.Flags().GetString("structure")

			pc, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer pc.Close()

			experiments, err := pc.Manifest(context.Background())
			if err != nil {
				return fmt.Errorf("failed to read manifest: %w", err)
			}

			matched := make([]models.Experiment, 0, len(experiments))
			for _, exp := range experiments {
				if containerID != 0 && exp.ContainerID != containerID {
					continue
				}
				if stage != "" && exp.StageName != stage {
					continue
				}
				if structure != "" && exp.TargetedStructure != structure {
					continue
				}
				matched = append(matched, exp)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"experiments": matched,
					"count":       len(matched),
				})
			}

			if len(matched) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No experiments match.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EXPERIMENT\tCONTAINER\tSTAGE\tSTRUCTURE\tDEPTH\tMOUSE\tACQUIRED")
			for _, exp := range matched {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%s\t%s\n",
					exp.OphysExperimentID, exp.ContainerID, exp.StageName,
					exp.TargetedStructure, exp.ImagingDepth, exp.AnimalName,
					exp.DateOfAcquisition)
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d experiments\n", len(matched))
			return nil
		},
	}

	cmd.Flags().Int64("container", 0, "Only experiments from this container")
	cmd.Flags().String("stage", "", "Only experiments with this behavior stage")
	cmd.Flags().String("structure", "", "Only experiments targeting this brain structure")

	return cmd
}
