// Package cache provides project-level access to a visual behavior dataset
// release: the experiment manifest, per-session file paths, and session
// construction.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Laura-lc/AllenSDK/internal/catalog"
	"github.com/Laura-lc/AllenSDK/internal/config"
	"github.com/Laura-lc/AllenSDK/internal/logging"
	"github.com/Laura-lc/AllenSDK/internal/models"
	"github.com/Laura-lc/AllenSDK/internal/session"
	"github.com/Laura-lc/AllenSDK/internal/tableio"
)

// Per-session file name patterns, fixed by the dataset release.
const (
	nwbFilePattern          = "behavior_ophys_session_%d.nwb"
	trialResponsePattern    = "trial_response_df_%d.h5"
	flashResponsePattern    = "flash_response_df_%d.h5"
	extendedStimulusPattern = "extended_stimulus_presentations_df_%d.h5"
)

// ProjectCache is the top-level entry point for the dataset. It owns the
// experiment catalog and builds sessions from the configured data
// directories.
type ProjectCache struct {
	cfg                   *config.Config
	catalog               catalog.Catalog
	logger                *slog.Logger
	loads                 *logging.LoadLogger
	analysisFilesMetadata map[string]interface{}
}

// New creates a ProjectCache from a validated config. A nil logger falls
// back to slog.Default().
func New(cfg *config.Config, logger *slog.Logger) (*ProjectCache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	cat, err := catalog.NewSQLiteCatalog(cfg.CacheRoot(), cfg.ManifestPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	pc := &ProjectCache{
		cfg:     cfg,
		catalog: cat,
		logger:  logger,
		loads:   logging.NewLoadLogger(catalog.StateDir(cfg.CacheRoot()), cfg.Logging.Level),
	}

	if cfg.AnalysisFilesMetadataPath == "" {
		logger.Warn("no analysis files metadata configured; set analysis_files_metadata_path to the metadata json")
	} else {
		md, err := tableio.JSON{}.ReadObject(context.Background(), cfg.AnalysisFilesMetadataPath)
		if err != nil {
			logger.Warn("failed to read analysis files metadata",
				"path", cfg.AnalysisFilesMetadataPath, "error", err)
		} else {
			pc.analysisFilesMetadata = md
		}
	}

	return pc, nil
}

// FromFile creates a ProjectCache from a config file (YAML or JSON).
func FromFile(path string, logger *slog.Logger) (*ProjectCache, error) {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, logger)
}

// Catalog returns the experiment catalog.
func (pc *ProjectCache) Catalog() catalog.Catalog {
	return pc.catalog
}

// Config returns the cache's configuration.
func (pc *ProjectCache) Config() *config.Config {
	return pc.cfg
}

// AnalysisFilesMetadata returns the provenance metadata for the analysis
// files, or nil if none was configured or readable.
func (pc *ProjectCache) AnalysisFilesMetadata() map[string]interface{} {
	return pc.analysisFilesMetadata
}

// Manifest returns all experiments in the manifest.
func (pc *ProjectCache) Manifest(ctx context.Context) ([]models.Experiment, error) {
	return pc.catalog.All(ctx)
}

// Experiment returns one manifest row by ophys experiment id.
func (pc *ProjectCache) Experiment(ctx context.Context, experimentID int64) (*models.Experiment, error) {
	return pc.catalog.Get(ctx, experimentID)
}

// NWBPath returns the path of the session data file for an experiment.
func (pc *ProjectCache) NWBPath(experimentID int64) string {
	return filepath.Join(pc.cfg.NWBBaseDir, fmt.Sprintf(nwbFilePattern, experimentID))
}

// TrialResponsePath returns the path of the per-trial response table.
func (pc *ProjectCache) TrialResponsePath(experimentID int64) string {
	return filepath.Join(pc.cfg.AnalysisFilesBaseDir, fmt.Sprintf(trialResponsePattern, experimentID))
}

// FlashResponsePath returns the path of the per-flash response table.
func (pc *ProjectCache) FlashResponsePath(experimentID int64) string {
	return filepath.Join(pc.cfg.AnalysisFilesBaseDir, fmt.Sprintf(flashResponsePattern, experimentID))
}

// ExtendedStimulusPath returns the path of the extended stimulus
// presentations table.
func (pc *ProjectCache) ExtendedStimulusPath(experimentID int64) string {
	return filepath.Join(pc.cfg.AnalysisFilesBaseDir, fmt.Sprintf(extendedStimulusPattern, experimentID))
}

// Session returns a lazily-loading session for an experiment. The id must
// be present in the manifest; no data files are read until an attribute is
// accessed.
func (pc *ProjectCache) Session(ctx context.Context, experimentID int64) (*session.Session, error) {
	if _, err := pc.catalog.Get(ctx, experimentID); err != nil {
		return nil, err
	}
	return pc.newSession(experimentID)
}

func (pc *ProjectCache) newSession(experimentID int64) (*session.Session, error) {
	api, err := session.NewAPI(session.APIConfig{
		Source:               session.NewNWBSource(pc.NWBPath(experimentID)),
		TrialResponsePath:    pc.TrialResponsePath(experimentID),
		FlashResponsePath:    pc.FlashResponsePath(experimentID),
		ExtendedStimulusPath: pc.ExtendedStimulusPath(experimentID),
		Logger:               pc.logger,
		Loads:                pc.loads,
	})
	if err != nil {
		return nil, err
	}
	return session.New(api), nil
}

// ContainerSessions returns the sessions of one experiment container keyed
// by behavior stage. Retakes share a stage name; the highest experiment id
// wins.
func (pc *ProjectCache) ContainerSessions(ctx context.Context, containerID int64) (map[string]*session.Session, error) {
	experiments, err := pc.catalog.ByContainer(ctx, containerID)
	if err != nil {
		return nil, err
	}
	if len(experiments) == 0 {
		return nil, fmt.Errorf("container %d not found in manifest", containerID)
	}

	sessions := make(map[string]*session.Session, len(experiments))
	for _, exp := range experiments {
		s, err := pc.newSession(exp.OphysExperimentID)
		if err != nil {
			return nil, err
		}
		sessions[exp.StageName] = s
	}
	return sessions, nil
}

// FileStatus describes one expected data file.
type FileStatus struct {
	ExperimentID int64  `json:"ophys_experiment_id"`
	Kind         string `json:"kind"`
	Path         string `json:"path"`
	Exists       bool   `json:"exists"`
	SizeBytes    int64  `json:"size_bytes,omitempty"`
}

// ValidateReport summarizes a data file audit.
type ValidateReport struct {
	Experiments int          `json:"experiments"`
	Checked     int          `json:"files_checked"`
	Missing     []FileStatus `json:"missing,omitempty"`
}

// Validate checks that every data file named by the manifest exists on
// disk and reports the ones that do not.
func (pc *ProjectCache) Validate(ctx context.Context) (*ValidateReport, error) {
	experiments, err := pc.catalog.All(ctx)
	if err != nil {
		return nil, err
	}

	report := &ValidateReport{Experiments: len(experiments)}
	for _, exp := range experiments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := exp.OphysExperimentID
		checks := []FileStatus{
			{ExperimentID: id, Kind: "nwb", Path: pc.NWBPath(id)},
			{ExperimentID: id, Kind: "trial_response", Path: pc.TrialResponsePath(id)},
			{ExperimentID: id, Kind: "flash_response", Path: pc.FlashResponsePath(id)},
			{ExperimentID: id, Kind: "extended_stimulus", Path: pc.ExtendedStimulusPath(id)},
		}
		for _, check := range checks {
			report.Checked++
			info, err := os.Stat(check.Path)
			if err != nil {
				report.Missing = append(report.Missing, check)
				continue
			}
			check.Exists = true
			check.SizeBytes = info.Size()
		}
	}

	if len(report.Missing) > 0 {
		pc.logger.Warn("data files missing", "count", len(report.Missing))
	}
	return report, nil
}

// Close releases the catalog and the load trace.
func (pc *ProjectCache) Close() error {
	pc.loads.Close()
	if pc.catalog != nil {
		return pc.catalog.Close()
	}
	return nil
}
