package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Laura-lc/AllenSDK/internal/models"
)

// DBFileName is the name of the catalog database inside the state directory.
const DBFileName = "catalog.db"

// experimentColumns is the SELECT list matching scanExperiment.
const experimentColumns = `ophys_experiment_id, container_id, full_genotype, imaging_depth,
	targeted_structure, stage_name, animal_name, sex, date_of_acquisition, retake_number`

// SQLiteCatalog implements Catalog backed by a SQLite database under the
// .vbcache state directory. The manifest CSV is imported on open and
// re-imported whenever the CSV is newer than the database.
type SQLiteCatalog struct {
	mu           sync.RWMutex
	db           *sql.DB
	stateDir     string
	dbPath       string
	manifestPath string
	logger       *slog.Logger
}

// NewSQLiteCatalog opens (creating if needed) the catalog database under
// cacheRoot/.vbcache and imports the manifest CSV when the database is empty
// or the CSV has changed since the last import.
func NewSQLiteCatalog(cacheRoot, manifestPath string, logger *slog.Logger) (*SQLiteCatalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	stateDir, err := EnsureStateDir(cacheRoot)
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(stateDir, DBFileName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	ctx := context.Background()

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	c := &SQLiteCatalog{
		db:           db,
		stateDir:     stateDir,
		dbPath:       dbPath,
		manifestPath: manifestPath,
		logger:       logger,
	}

	if err := c.autoImport(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to import manifest: %w", err)
	}

	return c, nil
}

// autoImport imports the manifest CSV if the database is empty or the CSV is
// newer than the database. A populated database with a missing CSV is served
// as-is so the catalog keeps working when the dataset volume is unmounted.
func (c *SQLiteCatalog) autoImport(ctx context.Context) error {
	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiments`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count experiments: %w", err)
	}

	if count > 0 {
		dbInfo, err := os.Stat(c.dbPath)
		if err != nil {
			return fmt.Errorf("failed to stat catalog database: %w", err)
		}

		manifestInfo, err := os.Stat(c.manifestPath)
		if err != nil {
			if os.IsNotExist(err) {
				c.logger.Warn("manifest CSV missing, serving previously imported catalog",
					"manifest_path", c.manifestPath)
				return nil
			}
			return fmt.Errorf("failed to stat manifest: %w", err)
		}

		// If the CSV is older than the database, the import is current.
		if manifestInfo.ModTime().Before(dbInfo.ModTime()) {
			return nil
		}
	}

	rows, err := c.importManifest(ctx)
	if err != nil {
		return err
	}
	c.logger.Debug("imported manifest", "manifest_path", c.manifestPath, "rows", rows)
	return nil
}

// Reimport forces a fresh import of the manifest CSV, replacing all rows.
func (c *SQLiteCatalog) Reimport(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.importManifest(ctx)
}

// All returns every manifest row, ordered by experiment id.
func (c *SQLiteCatalog) All(ctx context.Context) ([]models.Experiment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.queryExperiments(ctx,
		`SELECT `+experimentColumns+` FROM experiments ORDER BY ophys_experiment_id`)
}

// Get returns the manifest row for one experiment.
func (c *SQLiteCatalog) Get(ctx context.Context, ophysExperimentID int64) (*models.Experiment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var e models.Experiment
	err := c.db.QueryRowContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments WHERE ophys_experiment_id = ?`,
		ophysExperimentID).Scan(
		&e.OphysExperimentID, &e.ContainerID, &e.FullGenotype, &e.ImagingDepth,
		&e.TargetedStructure, &e.StageName, &e.AnimalName, &e.Sex,
		&e.DateOfAcquisition, &e.RetakeNumber,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ophys experiment %d: %w", ophysExperimentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment %d: %w", ophysExperimentID, err)
	}
	return &e, nil
}

// ByContainer returns the manifest rows sharing an experiment container.
func (c *SQLiteCatalog) ByContainer(ctx context.Context, containerID int64) ([]models.Experiment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.queryExperiments(ctx,
		`SELECT `+experimentColumns+` FROM experiments WHERE container_id = ? ORDER BY ophys_experiment_id`,
		containerID)
}

// Containers returns the distinct container ids in the manifest, sorted.
func (c *SQLiteCatalog) Containers(ctx context.Context) ([]int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.QueryContext(ctx,
		`SELECT DISTINCT container_id FROM experiments ORDER BY container_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query containers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan container id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stages returns the distinct stage names in the manifest, sorted.
func (c *SQLiteCatalog) Stages(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.QueryContext(ctx,
		`SELECT DISTINCT stage_name FROM experiments ORDER BY stage_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}
	defer rows.Close()

	var stages []string
	for rows.Next() {
		var stage string
		if err := rows.Scan(&stage); err != nil {
			return nil, fmt.Errorf("failed to scan stage name: %w", err)
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

// Count returns the number of manifest rows.
func (c *SQLiteCatalog) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count experiments: %w", err)
	}
	return count, nil
}

// ImportState describes the most recent manifest import.
type ImportState struct {
	ManifestPath string `json:"manifest_path"`
	ImportedAt   string `json:"imported_at"`
	RowCount     int    `json:"row_count"`
}

// LastImport returns the most recent import state, or nil if the manifest has
// never been imported.
func (c *SQLiteCatalog) LastImport(ctx context.Context) (*ImportState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var state ImportState
	err := c.db.QueryRowContext(ctx,
		`SELECT manifest_path, imported_at, row_count FROM import_state WHERE id = 1`).Scan(
		&state.ManifestPath, &state.ImportedAt, &state.RowCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import state: %w", err)
	}
	return &state, nil
}

// Validate runs SQLite integrity checks on the catalog database.
func (c *SQLiteCatalog) Validate(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ValidateIntegrity(ctx, c.db)
}

// DBPath returns the path of the catalog database file.
func (c *SQLiteCatalog) DBPath() string {
	return c.dbPath
}

// Close closes the catalog database.
func (c *SQLiteCatalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// queryExperiments runs a query whose SELECT list is experimentColumns and
// scans the results.
func (c *SQLiteCatalog) queryExperiments(ctx context.Context, query string, args ...interface{}) ([]models.Experiment, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query experiments: %w", err)
	}
	defer rows.Close()

	var experiments []models.Experiment
	for rows.Next() {
		var e models.Experiment
		if err := rows.Scan(
			&e.OphysExperimentID, &e.ContainerID, &e.FullGenotype, &e.ImagingDepth,
			&e.TargetedStructure, &e.StageName, &e.AnimalName, &e.Sex,
			&e.DateOfAcquisition, &e.RetakeNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan experiment row: %w", err)
		}
		experiments = append(experiments, e)
	}
	return experiments, rows.Err()
}
