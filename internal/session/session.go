// Package session exposes one imaging session's data as curated tables and
// images. An API applies the fixed transforms over the raw session datasets;
// a Session memoizes each result so repeated access never re-reads or
// re-derives.
package session

import (
	"context"
	"fmt"
	"sort"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/Laura-lc/AllenSDK/internal/frame"
	"github.com/Laura-lc/AllenSDK/internal/lazy"
	"github.com/Laura-lc/AllenSDK/internal/models"
)

// Session is a lazily-loading view over one imaging session. Each attribute
// is read and transformed on first access and cached; later accesses return
// the cached value, errors included. Safe for concurrent use.
type Session struct {
	api *API

	experimentID          *lazy.Property[int64]
	metadata              *lazy.Property[models.Metadata]
	taskParameters        *lazy.Property[models.TaskParameters]
	trials                *lazy.Property[arrow.Record]
	allTrials             *lazy.Property[arrow.Record]
	stimulusPresentations *lazy.Property[arrow.Record]
	stimulusTemplates     *lazy.Property[[]models.Image]
	stimulusTimestamps    *lazy.Property[[]float64]
	ophysTimestamps       *lazy.Property[[]float64]
	licks                 *lazy.Property[arrow.Record]
	rewards               *lazy.Property[arrow.Record]
	runningSpeed          *lazy.Property[arrow.Record]
	runningData           *lazy.Property[arrow.Record]
	dffTraces             *lazy.Property[arrow.Record]
	correctedFluorescence *lazy.Property[arrow.Record]
	cellSpecimenTable     *lazy.Property[arrow.Record]
	motionCorrection      *lazy.Property[arrow.Record]
	maxProjection         *lazy.Property[models.Image]
	averageProjection     *lazy.Property[models.Image]
	segmentationMask      *lazy.Property[models.Image]
	trialResponses        *lazy.Property[arrow.Record]
	flashResponses        *lazy.Property[arrow.Record]
	extendedStimulus      *lazy.Property[arrow.Record]
	imageIndex            *lazy.Property[arrow.Record]
}

// New creates a Session over the given API.
func New(api *API) *Session {
	s := &Session{api: api}
	s.experimentID = lazy.New(api.ExperimentID)
	s.metadata = lazy.New(api.Metadata)
	s.taskParameters = lazy.New(api.TaskParameters)
	s.trials = lazy.New(api.Trials)
	s.allTrials = lazy.New(api.AllTrials)
	s.stimulusPresentations = lazy.New(api.StimulusPresentations)
	s.stimulusTemplates = lazy.New(api.StimulusTemplates)
	s.stimulusTimestamps = lazy.New(api.StimulusTimestamps)
	s.ophysTimestamps = lazy.New(api.OphysTimestamps)
	s.licks = lazy.New(api.Licks)
	s.rewards = lazy.New(api.Rewards)
	s.runningSpeed = lazy.New(api.RunningSpeed)
	s.runningData = lazy.New(api.RunningData)
	s.dffTraces = lazy.New(api.DFFTraces)
	s.correctedFluorescence = lazy.New(api.CorrectedFluorescenceTraces)
	s.cellSpecimenTable = lazy.New(api.CellSpecimenTable)
	s.motionCorrection = lazy.New(api.MotionCorrection)
	s.maxProjection = lazy.New(api.MaxProjection)
	s.averageProjection = lazy.New(api.AverageProjection)
	s.segmentationMask = lazy.New(api.SegmentationMaskImage)
	s.trialResponses = lazy.New(api.TrialResponses)
	s.flashResponses = lazy.New(api.FlashResponses)
	s.extendedStimulus = lazy.New(api.ExtendedStimulusPresentations)
	s.imageIndex = lazy.New(s.loadImageIndex)
	return s
}

// ExperimentID returns the session's ophys experiment id.
func (s *Session) ExperimentID(ctx context.Context) (int64, error) {
	return s.experimentID.Get(ctx)
}

// Metadata returns the session metadata.
func (s *Session) Metadata(ctx context.Context) (models.Metadata, error) {
	return s.metadata.Get(ctx)
}

// TaskParameters returns the behavioral task parameters.
func (s *Session) TaskParameters(ctx context.Context) (models.TaskParameters, error) {
	return s.taskParameters.Get(ctx)
}

// Trials returns the curated trials table without aborted trials.
func (s *Session) Trials(ctx context.Context) (arrow.Record, error) {
	return s.trials.Get(ctx)
}

// AllTrials returns the curated trials table including aborted trials.
func (s *Session) AllTrials(ctx context.Context) (arrow.Record, error) {
	return s.allTrials.Get(ctx)
}

// StimulusPresentations returns the curated stimulus presentations table.
func (s *Session) StimulusPresentations(ctx context.Context) (arrow.Record, error) {
	return s.stimulusPresentations.Get(ctx)
}

// StimulusTemplates returns the stimulus image stack.
func (s *Session) StimulusTemplates(ctx context.Context) ([]models.Image, error) {
	return s.stimulusTemplates.Get(ctx)
}

// StimulusTimestamps returns the monitor frame timestamps.
func (s *Session) StimulusTimestamps(ctx context.Context) ([]float64, error) {
	return s.stimulusTimestamps.Get(ctx)
}

// OphysTimestamps returns the microscope frame timestamps.
func (s *Session) OphysTimestamps(ctx context.Context) ([]float64, error) {
	return s.ophysTimestamps.Get(ctx)
}

// Licks returns the lick table.
func (s *Session) Licks(ctx context.Context) (arrow.Record, error) {
	return s.licks.Get(ctx)
}

// Rewards returns the reward table.
func (s *Session) Rewards(ctx context.Context) (arrow.Record, error) {
	return s.rewards.Get(ctx)
}

// RunningSpeed returns the running speed table.
func (s *Session) RunningSpeed(ctx context.Context) (arrow.Record, error) {
	return s.runningSpeed.Get(ctx)
}

// RunningData returns the raw running wheel signals.
func (s *Session) RunningData(ctx context.Context) (arrow.Record, error) {
	return s.runningData.Get(ctx)
}

// DFFTraces returns the dff trace table.
func (s *Session) DFFTraces(ctx context.Context) (arrow.Record, error) {
	return s.dffTraces.Get(ctx)
}

// CorrectedFluorescenceTraces returns the motion-corrected fluorescence
// traces.
func (s *Session) CorrectedFluorescenceTraces(ctx context.Context) (arrow.Record, error) {
	return s.correctedFluorescence.Get(ctx)
}

// CellSpecimenTable returns the cell roi table.
func (s *Session) CellSpecimenTable(ctx context.Context) (arrow.Record, error) {
	return s.cellSpecimenTable.Get(ctx)
}

// MotionCorrection returns the motion correction traces.
func (s *Session) MotionCorrection(ctx context.Context) (arrow.Record, error) {
	return s.motionCorrection.Get(ctx)
}

// MaxProjection returns the 2D max projection image.
func (s *Session) MaxProjection(ctx context.Context) (models.Image, error) {
	return s.maxProjection.Get(ctx)
}

// AverageProjection returns the averaged field of view.
func (s *Session) AverageProjection(ctx context.Context) (models.Image, error) {
	return s.averageProjection.Get(ctx)
}

// SegmentationMaskImage returns the binarized roi segmentation mask.
func (s *Session) SegmentationMaskImage(ctx context.Context) (models.Image, error) {
	return s.segmentationMask.Get(ctx)
}

// TrialResponses returns the per-trial response table.
func (s *Session) TrialResponses(ctx context.Context) (arrow.Record, error) {
	return s.trialResponses.Get(ctx)
}

// FlashResponses returns the per-flash response table.
func (s *Session) FlashResponses(ctx context.Context) (arrow.Record, error) {
	return s.flashResponses.Get(ctx)
}

// ExtendedStimulusPresentations returns the extended stimulus presentation
// statistics.
func (s *Session) ExtendedStimulusPresentations(ctx context.Context) (arrow.Record, error) {
	return s.extendedStimulus.Get(ctx)
}

// ImageIndex returns the mapping from image_index to image_name, one row per
// distinct index, sorted by index.
func (s *Session) ImageIndex(ctx context.Context) (arrow.Record, error) {
	return s.imageIndex.Get(ctx)
}

// TableNames lists the curated tables addressable by name through Table.
var TableNames = []string{
	"trials",
	"all_trials",
	"stimulus_presentations",
	"licks",
	"rewards",
	"running_speed",
	"running_data",
	"dff_traces",
	"corrected_fluorescence_traces",
	"cell_specimen_table",
	"motion_correction",
	"trial_response",
	"flash_response",
	"extended_stimulus_presentations",
	"image_index",
}

// Table returns one curated table by name, for callers that address tables
// dynamically (the CLI and the MCP tools). The names are the entries of
// TableNames.
func (s *Session) Table(ctx context.Context, name string) (arrow.Record, error) {
	switch name {
	case "trials":
		return s.Trials(ctx)
	case "all_trials":
		return s.AllTrials(ctx)
	case "stimulus_presentations":
		return s.StimulusPresentations(ctx)
	case "licks":
		return s.Licks(ctx)
	case "rewards":
		return s.Rewards(ctx)
	case "running_speed":
		return s.RunningSpeed(ctx)
	case "running_data":
		return s.RunningData(ctx)
	case "dff_traces":
		return s.DFFTraces(ctx)
	case "corrected_fluorescence_traces":
		return s.CorrectedFluorescenceTraces(ctx)
	case "cell_specimen_table":
		return s.CellSpecimenTable(ctx)
	case "motion_correction":
		return s.MotionCorrection(ctx)
	case "trial_response":
		return s.TrialResponses(ctx)
	case "flash_response":
		return s.FlashResponses(ctx)
	case "extended_stimulus_presentations":
		return s.ExtendedStimulusPresentations(ctx)
	case "image_index":
		return s.ImageIndex(ctx)
	default:
		return nil, fmt.Errorf("unknown table %q", name)
	}
}

// loadImageIndex derives the index-to-name mapping from the stimulus
// presentations table.
func (s *Session) loadImageIndex(ctx context.Context) (arrow.Record, error) {
	stim, err := s.stimulusPresentations.Get(ctx)
	if err != nil {
		return nil, err
	}
	indices, err := frame.Int64Column(stim, "image_index")
	if err != nil {
		return nil, fmt.Errorf("image index: %w", err)
	}
	names, err := frame.StringColumn(stim, "image_name")
	if err != nil {
		return nil, fmt.Errorf("image index: %w", err)
	}

	byIndex := make(map[int64]string)
	for i, idx := range indices {
		name := names[i]
		if prev, ok := byIndex[idx]; ok && prev != name {
			return nil, fmt.Errorf("image index %d maps to multiple image names (%q, %q)", idx, prev, name)
		}
		byIndex[idx] = name
	}

	sorted := make([]int64, 0, len(byIndex))
	for idx := range byIndex {
		sorted = append(sorted, idx)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	outNames := make([]string, len(sorted))
	for i, idx := range sorted {
		outNames[i] = byIndex[idx]
	}
	return frame.NewRecord(
		frame.Int64Col("image_index", sorted),
		frame.StringCol("image_name", outNames),
	)
}
