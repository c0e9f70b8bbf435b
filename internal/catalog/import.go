package catalog

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/Laura-lc/AllenSDK/internal/frame"
	"github.com/Laura-lc/AllenSDK/internal/tableio"
)

// manifestColumnTypes pins the CSV types of the kept columns. Inference
// cannot be trusted here: animal names are numeric ids, an all-"F" sex
// column parses as booleans, and acquisition dates parse as timestamps.
var manifestColumnTypes = map[string]arrow.DataType{
	"ophys_experiment_id": arrow.PrimitiveTypes.Int64,
	"container_id":        arrow.PrimitiveTypes.Int64,
	"imaging_depth":       arrow.PrimitiveTypes.Int64,
	"retake_number":       arrow.PrimitiveTypes.Int64,
	"full_genotype":       arrow.BinaryTypes.String,
	"targeted_structure":  arrow.BinaryTypes.String,
	"stage_name":          arrow.BinaryTypes.String,
	"animal_name":         arrow.BinaryTypes.String,
	"sex":                 arrow.BinaryTypes.String,
	"date_of_acquisition": arrow.BinaryTypes.String,
}

// importManifest replaces all catalog rows with the contents of the manifest
// CSV. Caller must hold the write lock. Returns the number of rows imported.
func (c *SQLiteCatalog) importManifest(ctx context.Context) (int, error) {
	reader := tableio.CSV{ColumnTypes: manifestColumnTypes}
	rec, err := reader.ReadTable(ctx, c.manifestPath, "")
	if err != nil {
		return 0, err
	}

	// Project to the kept columns. This drops the unnamed CSV index column
	// and anything else the manifest grows, and rejects a manifest missing a
	// kept column with an error naming it.
	rec, err = frame.Select(rec, ManifestColumns)
	if err != nil {
		return 0, fmt.Errorf("manifest %s: %w", c.manifestPath, err)
	}

	ints := make(map[string][]int64)
	for _, name := range []string{"ophys_experiment_id", "container_id", "imaging_depth", "retake_number"} {
		vals, err := frame.Int64Column(rec, name)
		if err != nil {
			return 0, fmt.Errorf("manifest %w", err)
		}
		ints[name] = vals
	}

	strs := make(map[string][]string)
	for _, name := range []string{"full_genotype", "targeted_structure", "stage_name", "animal_name", "sex", "date_of_acquisition"} {
		vals, err := frame.StringColumn(rec, name)
		if err != nil {
			return 0, fmt.Errorf("manifest %w", err)
		}
		strs[name] = vals
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM experiments`); err != nil {
		return 0, fmt.Errorf("failed to clear experiments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO experiments (
			ophys_experiment_id, container_id, full_genotype, imaging_depth,
			targeted_structure, stage_name, animal_name, sex,
			date_of_acquisition, retake_number
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	experimentIDs := ints["ophys_experiment_id"]
	seen := make(map[int64]bool, len(experimentIDs))
	for i := range experimentIDs {
		id := experimentIDs[i]
		if seen[id] {
			// Later rows replace earlier ones via INSERT OR REPLACE.
			c.logger.Debug("duplicate manifest row, keeping last",
				"ophys_experiment_id", id, "row", i)
		}
		seen[id] = true

		if _, err := stmt.ExecContext(ctx,
			id, ints["container_id"][i], strs["full_genotype"][i], ints["imaging_depth"][i],
			strs["targeted_structure"][i], strs["stage_name"][i], strs["animal_name"][i], strs["sex"][i],
			strs["date_of_acquisition"][i], ints["retake_number"][i],
		); err != nil {
			return 0, fmt.Errorf("failed to insert experiment %d: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO import_state (id, manifest_path, imported_at, row_count)
		VALUES (1, ?, datetime('now'), ?)
	`, c.manifestPath, len(seen)); err != nil {
		return 0, fmt.Errorf("failed to record import state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(seen), nil
}
