package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newContainersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "containers",
		Short: "List experiment containers and their behavior stages",
		Long: `List experiment containers and their behavior stages.

A container groups the sessions that imaged the same field of view in the
same mouse across behavior stages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			pc, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer pc.Close()

			ctx := context.Background()
			containers, err := pc.Catalog().Containers(ctx)
			if err != nil {
				return fmt.Errorf("failed to list containers: %w", err)
			}

			type containerInfo struct {
				ContainerID int64    `json:"container_id"`
				Experiments int      `json:"experiments"`
				Stages      []string `json:"stages"`
			}
			infos := make([]containerInfo, 0, len(containers))
			for _, id := range containers {
				experiments, err := pc.Catalog().ByContainer(ctx, id)
				if err != nil {
					return fmt.Errorf("container %d: %w", id, err)
				}
				stages := make([]string, 0, len(experiments))
				for _, exp := range experiments {
					stages = append(stages, exp.StageName)
				}
				infos = append(infos, containerInfo{
					ContainerID: id,
					Experiments: len(experiments),
					Stages:      stages,
				})
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"containers": infos,
					"count":      len(infos),
				})
			}

			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No containers in manifest.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CONTAINER\tSESSIONS\tSTAGES")
			for _, info := range infos {
				fmt.Fprintf(w, "%d\t%d\t%v\n", info.ContainerID, info.Experiments, info.Stages)
			}
			w.Flush()
			return nil
		},
	}
}
