package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/spf13/cobra"

	"github.com/Laura-lc/AllenSDK/internal/frame"
	"github.com/Laura-lc/AllenSDK/internal/pathutil"
	"github.com/Laura-lc/AllenSDK/internal/session"
	"github.com/Laura-lc/AllenSDK/internal/tableio"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <experiment-id>",
		Short: "Write a session's curated tables to a directory of CSV files",
		Long: `Write a session's curated tables to a directory of CSV files.

Each table becomes <out>/<table>.csv. List-valued columns (lick_times,
licks, rewards) are JSON-encoded strings in the CSV output. The output
directory must lie outside the dataset's nwb and analysis directories,
which are read-only.

Examples:
  vbcache export 792815735 --out ./exported
  vbcache export 792815735 --out ./exported --tables trials,licks,rewards`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			outDir, _ := cmd.Flags().GetString("out")
			tablesFlag, _ := cmd.Flags().GetString("tables")

			experimentID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid experiment id %q", args[0])
			}
			if outDir == "" {
				return fmt.Errorf("--out is required")
			}

			tables := session.TableNames
			if tablesFlag != "" {
				tables = strings.Split(tablesFlag, ",")
				for i := range tables {
					tables[i] = strings.TrimSpace(tables[i])
				}
			}

			pc, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer pc.Close()

			cfg := pc.Config()
			readOnly := []string{cfg.NWBBaseDir, cfg.AnalysisFilesBaseDir}
			if err := pathutil.ValidateWriteTarget(outDir, readOnly); err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			ctx := context.Background()
			sess, err := pc.Session(ctx, experimentID)
			if err != nil {
				return fmt.Errorf("experiment %d: %w", experimentID, err)
			}

			written := make([]string, 0, len(tables))
			for _, name := range tables {
				rec, err := sess.Table(ctx, name)
				if err != nil {
					return fmt.Errorf("failed to load table %q: %w", name, err)
				}
				rec, err = encodeListColumns(rec)
				if err != nil {
					return fmt.Errorf("table %q: %w", name, err)
				}
				path := filepath.Join(outDir, name+".csv")
				if err := (tableio.CSV{}).WriteTable(ctx, path, rec); err != nil {
					return fmt.Errorf("failed to write table %q: %w", name, err)
				}
				written = append(written, path)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"ophys_experiment_id": experimentID,
					"files":               written,
					"count":               len(written),
				})
			}
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nExported %d tables for experiment %d\n",
				len(written), experimentID)
			return nil
		},
	}

	cmd.Flags().String("out", "", "Output directory (required)")
	cmd.Flags().String("tables", "", "Comma-separated table names (default: all)")

	return cmd
}

// encodeListColumns replaces list<float64> columns with JSON-encoded string
// columns, which is the only list representation CSV can carry.
func encodeListColumns(rec arrow.Record) (arrow.Record, error) {
	out := rec
	for _, field := range rec.Schema().Fields() {
		if field.Type.ID() != arrow.LIST {
			continue
		}
		lists, err := frame.Float64ListColumn(out, field.Name)
		if err != nil {
			return nil, err
		}
		encoded := make([]string, len(lists))
		for i, list := range lists {
			if list == nil {
				list = []float64{}
			}
			data, err := json.Marshal(list)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", field.Name, i, err)
			}
			encoded[i] = string(data)
		}
		out, err = frame.ReplaceColumn(out, field.Name, frame.StringArray(encoded))
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
