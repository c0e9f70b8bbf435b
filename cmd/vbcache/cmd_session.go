package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Laura-lc/AllenSDK/internal/frame"
	"github.com/Laura-lc/AllenSDK/internal/session"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session <experiment-id> <table>",
		Short: "Print rows of one curated session table",
		Long: fmt.Sprintf(`Print rows of one curated session table.

Tables: %s.

Examples:
  vbcache session 792815735 trials
  vbcache session 792815735 stimulus_presentations --limit 5 --offset 100
  vbcache session 792815735 licks --json`, strings.Join(session.TableNames, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			experimentID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid experiment id %q", args[0])
			}
			tableName := args[1]

			pc, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer pc.Close()

			ctx := context.Background()
			sess, err := pc.Session(ctx, experimentID)
			if err != nil {
				return fmt.Errorf("experiment %d: %w", experimentID, err)
			}

			rec, err := sess.Table(ctx, tableName)
			if err != nil {
				return fmt.Errorf("failed to load table %q: %w", tableName, err)
			}

			rows, err := frame.Rows(rec, offset, limit)
			if err != nil {
				return fmt.Errorf("failed to read table %q: %w", tableName, err)
			}
			names := frame.Names(rec)

			if jsonOut {
				for _, row := range rows {
					for k, v := range row {
						row[k] = encodableValue(v)
					}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"table":      tableName,
					"columns":    names,
					"rows":       rows,
					"total_rows": rec.NumRows(),
					"offset":     offset,
				})
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t")))
			for _, row := range rows {
				cells := make([]string, len(names))
				for i, name := range names {
					cells[i] = formatCell(row[name])
				}
				fmt.Fprintln(w, strings.Join(cells, "\t"))
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d rows (offset %d)\n",
				len(rows), rec.NumRows(), offset)
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum rows to print (0 = all)")
	cmd.Flags().Int("offset", 0, "Rows to skip from the start of the table")

	return cmd
}

// encodableValue rewrites NaN and infinities as strings so encoding/json
// does not reject the row.
func encodableValue(v interface{}) interface{} {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return strconv.FormatFloat(val, 'g', -1, 64)
		}
		return val
	case []float64:
		out := make([]interface{}, len(val))
		for i, f := range val {
			out[i] = encodableValue(f)
		}
		return out
	default:
		return v
	}
}

// formatCell renders one table cell for the text view.
func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(val, 'g', 6, 64)
	case []float64:
		parts := make([]string, len(val))
		for i, f := range val {
			parts[i] = strconv.FormatFloat(f, 'g', 6, 64)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}
