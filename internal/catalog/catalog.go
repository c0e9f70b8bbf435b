// Package catalog stores the project manifest in a queryable form. The
// manifest is distributed as a CSV file with one row per two-photon imaging
// session; the catalog imports it into a local SQLite database so lookups by
// experiment, container, or stage do not reparse the CSV.
package catalog

import (
	"context"
	"errors"

	"github.com/Laura-lc/AllenSDK/internal/models"
)

// ErrNotFound is returned when an experiment id has no row in the manifest.
var ErrNotFound = errors.New("experiment not found in manifest")

// ManifestColumns lists the manifest columns the catalog keeps, in order.
// Columns outside this list (including the unnamed CSV index column) are
// dropped on import; a manifest missing any of these is rejected.
var ManifestColumns = []string{
	"ophys_experiment_id",
	"container_id",
	"full_genotype",
	"imaging_depth",
	"targeted_structure",
	"stage_name",
	"animal_name",
	"sex",
	"date_of_acquisition",
	"retake_number",
}

// Catalog defines the interface for querying the project manifest.
type Catalog interface {
	// All returns every manifest row, ordered by experiment id.
	All(ctx context.Context) ([]models.Experiment, error)

	// Get returns the manifest row for one experiment.
	// Returns an error wrapping ErrNotFound if the id is not in the manifest.
	Get(ctx context.Context, ophysExperimentID int64) (*models.Experiment, error)

	// ByContainer returns the manifest rows sharing an experiment container,
	// ordered by experiment id.
	ByContainer(ctx context.Context, containerID int64) ([]models.Experiment, error)

	// Containers returns the distinct container ids in the manifest, sorted.
	Containers(ctx context.Context) ([]int64, error)

	// Stages returns the distinct stage names in the manifest, sorted.
	Stages(ctx context.Context) ([]string, error)

	// Count returns the number of manifest rows.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the catalog.
	Close() error
}
