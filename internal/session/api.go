package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/Laura-lc/AllenSDK/internal/constants"
	"github.com/Laura-lc/AllenSDK/internal/frame"
	"github.com/Laura-lc/AllenSDK/internal/logging"
	"github.com/Laura-lc/AllenSDK/internal/models"
	"github.com/Laura-lc/AllenSDK/internal/tableio"
	"github.com/Laura-lc/AllenSDK/internal/timing"
)

// TrialColumns is the exact column order of the curated trials table. The
// derived reward_rate and response_binary columns are appended after these.
var TrialColumns = []string{
	"initial_image_name",
	"change_image_name",
	"change_time",
	"lick_times",
	"response_latency",
	"reward_time",
	"go",
	"catch",
	"hit",
	"miss",
	"false_alarm",
	"correct_reject",
	"aborted",
	"auto_rewarded",
	"reward_volume",
	"start_time",
	"stop_time",
	"trial_length",
}

// StimulusColumns is the exact column order of the curated stimulus
// presentations table.
var StimulusColumns = []string{
	"flash_id",
	"image_name",
	"image_index",
	"start_time",
	"stop_time",
	"omitted",
	"change",
	"duration",
	"licks",
	"rewards",
	"mean_running_speed",
	"absolute_flash_number",
	"time_from_last_lick",
	"time_from_last_reward",
	"time_from_last_change",
	"block_index",
	"image_block_repetition",
	"repeat_within_block",
	"image_set",
}

// stimulusSelectColumns is StimulusColumns with the pre-rename names the
// joined table carries.
var stimulusSelectColumns = []string{
	"flash_id",
	"image_name",
	"image_index",
	"start_time",
	"stop_time",
	"omitted",
	"change",
	"duration",
	"licks",
	"rewards",
	"running_speed",
	"index",
	"time_from_last_lick",
	"time_from_last_reward",
	"time_from_last_change",
	"block_index",
	"image_block_repetition",
	"repeat_within_block",
	"image_set",
}

// APIConfig wires an API to one session's data.
type APIConfig struct {
	// Source reads the session's raw datasets.
	Source Source

	// Analysis reads the precomputed analysis tables. Defaults to Arrow IPC.
	Analysis tableio.TableReader

	// Paths of the three analysis tables for this session.
	TrialResponsePath    string
	FlashResponsePath    string
	ExtendedStimulusPath string

	// Logger for operational logging. Defaults to slog.Default().
	Logger *slog.Logger

	// Loads records table loads and reconciliation statistics. Optional.
	Loads *logging.LoadLogger
}

// API reads one session's raw data and applies the curated transforms: fixed
// renames, reorders, and drops, the trial timing reconciliation, and the
// derived behavioral statistics.
type API struct {
	source               Source
	analysis             tableio.TableReader
	trialResponsePath    string
	flashResponsePath    string
	extendedStimulusPath string
	logger               *slog.Logger
	loads                *logging.LoadLogger
}

// NewAPI creates an API from the config.
func NewAPI(cfg APIConfig) (*API, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("session source is required")
	}
	analysis := cfg.Analysis
	if analysis == nil {
		analysis = tableio.IPC{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		source:               cfg.Source,
		analysis:             analysis,
		trialResponsePath:    cfg.TrialResponsePath,
		flashResponsePath:    cfg.FlashResponsePath,
		extendedStimulusPath: cfg.ExtendedStimulusPath,
		logger:               logger,
		loads:                cfg.Loads,
	}, nil
}

// logLoad records a table load at debug level and in the load trace.
func (a *API) logLoad(name string, rec arrow.Record) {
	a.logger.Debug("loaded session table", "table", name, "rows", rec.NumRows())
	a.loads.Log(map[string]any{"event": "table_load", "table": name, "rows": rec.NumRows()})
}

// analysisTable reads one of the precomputed analysis tables.
func (a *API) analysisTable(ctx context.Context, path string) (arrow.Record, error) {
	rec, err := a.analysis.ReadTable(ctx, path, constants.AnalysisTableKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis table: %w", err)
	}
	return rec, nil
}

// ExperimentID returns the session's ophys experiment id.
func (a *API) ExperimentID(ctx context.Context) (int64, error) {
	md, err := a.Metadata(ctx)
	if err != nil {
		return 0, err
	}
	return md.OphysExperimentID, nil
}

// TaskParameters returns the session's task parameters. The omitted flash
// fraction and stimulus duration are overwritten with their known values:
// the recorded ones are wrong upstream.
func (a *API) TaskParameters(ctx context.Context) (models.TaskParameters, error) {
	obj, err := a.source.Object(ctx, ObjectTaskParameters)
	if err != nil {
		return models.TaskParameters{}, err
	}
	params := models.TaskParametersFromObject(obj)
	params.OmittedFlashFraction = constants.OmittedFlashFraction
	params.StimulusDurationSec = constants.StimulusDurationSec
	return params, nil
}

// Metadata returns the session's metadata with the behavior stage filled in
// from the task parameters.
func (a *API) Metadata(ctx context.Context) (models.Metadata, error) {
	obj, err := a.source.Object(ctx, ObjectMetadata)
	if err != nil {
		return models.Metadata{}, err
	}
	md := models.MetadataFromObject(obj)

	params, err := a.TaskParameters(ctx)
	if err != nil {
		return models.Metadata{}, err
	}
	md.Stage = params.Stage
	return md, nil
}

// Trials returns the curated trials table without aborted trials.
func (a *API) Trials(ctx context.Context) (arrow.Record, error) {
	return a.trials(ctx, false)
}

// AllTrials returns the curated trials table including aborted trials.
func (a *API) AllTrials(ctx context.Context) (arrow.Record, error) {
	return a.trials(ctx, true)
}

// trials loads the raw trials table and reconciles it against the stimulus
// clock before computing the derived behavioral statistics.
func (a *API) trials(ctx context.Context, includeAborted bool) (arrow.Record, error) {
	trials, err := a.source.Table(ctx, TableTrials)
	if err != nil {
		return nil, err
	}
	a.logLoad(TableTrials, trials)

	stim, err := a.source.Table(ctx, TableStimulusPresentations)
	if err != nil {
		return nil, err
	}
	starts, err := frame.Float64Column(stim, "start_time")
	if err != nil {
		return nil, fmt.Errorf("stimulus presentations: %w", err)
	}
	if len(starts) == 0 {
		return nil, fmt.Errorf("stimulus presentations table is empty")
	}

	// Recorded change times drift against the stimulus clock; snap each to
	// the next presentation start.
	changeTimes, err := frame.Float64Column(trials, "change_time")
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}
	snapped := timing.SnapToNext(changeTimes, starts)
	trials, err = frame.ReplaceColumn(trials, "change_time", frame.Float64Array(snapped))
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}

	// Trials running past the last presentation start have no stimulus
	// coverage. Compared against start, not stop: the last flash may be
	// omitted.
	stopTimes, err := frame.Float64Column(trials, "stop_time")
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}
	lastStart := starts[len(starts)-1]
	covered := make([]bool, len(stopTimes))
	droppedPastEnd := 0
	for i, stop := range stopTimes {
		covered[i] = !(stop > lastStart)
		if !covered[i] {
			droppedPastEnd++
		}
	}
	trials, err = frame.FilterMask(trials, covered)
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}

	// Latency is recomputed from the snapped change times.
	lickTimes, err := frame.Float64ListColumn(trials, "lick_times")
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}
	changeTimes, err = frame.Float64Column(trials, "change_time")
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}
	latency, err := timing.ResponseLatency(lickTimes, changeTimes)
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}
	trials, err = frame.ReplaceColumn(trials, "response_latency", frame.Float64Array(latency))
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}

	// Every snapped change time must be a presentation start time.
	for i, t := range changeTimes {
		if !math.IsNaN(t) && !timing.ContainsTime(starts, t) {
			return nil, fmt.Errorf("trial %d: change time %v does not match any stimulus start time", i, t)
		}
	}

	droppedAborted := 0
	if !includeAborted {
		aborted, err := frame.BoolColumn(trials, "aborted")
		if err != nil {
			return nil, fmt.Errorf("trials: %w", err)
		}
		keep := make([]bool, len(aborted))
		for i, ab := range aborted {
			keep[i] = !ab
			if ab {
				droppedAborted++
			}
		}
		trials, err = frame.FilterMask(trials, keep)
		if err != nil {
			return nil, fmt.Errorf("trials: %w", err)
		}
	}

	trials, err = frame.Select(trials, TrialColumns)
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}

	// Derived statistics come strictly after the timing patch.
	latency, err = frame.Float64Column(trials, "response_latency")
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}
	startTimes, err := frame.Float64Column(trials, "start_time")
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}
	rewardRate, err := timing.RewardRate(latency, startTimes, timing.DefaultRewardRateOptions())
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}
	trials, err = frame.AppendColumn(trials, "reward_rate", frame.Float64Array(rewardRate))
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}

	hit, err := frame.BoolColumn(trials, "hit")
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}
	falseAlarm, err := frame.BoolColumn(trials, "false_alarm")
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}
	responded, err := timing.ResponseBinary(hit, falseAlarm)
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}
	trials, err = frame.AppendColumn(trials, "response_binary", frame.BoolArray(responded))
	if err != nil {
		return nil, fmt.Errorf("trials: %w", err)
	}

	a.logger.Debug("reconciled trials", "rows", trials.NumRows(),
		"dropped_past_end", droppedPastEnd, "dropped_aborted", droppedAborted)
	a.loads.Log(map[string]any{
		"event":            "trials_reconciled",
		"rows":             trials.NumRows(),
		"dropped_past_end": droppedPastEnd,
		"dropped_aborted":  droppedAborted,
	})
	return trials, nil
}

// StimulusPresentations returns the curated stimulus presentations table:
// the raw presentations joined with the extended presentation statistics,
// projected to the fixed column order.
func (a *API) StimulusPresentations(ctx context.Context) (arrow.Record, error) {
	stim, err := a.source.Table(ctx, TableStimulusPresentations)
	if err != nil {
		return nil, err
	}
	a.logLoad(TableStimulusPresentations, stim)

	// The flash id is the row's ordinal position in presentation order.
	stim, err = frame.WithRowIndex(stim, "flash_id")
	if err != nil {
		return nil, fmt.Errorf("stimulus presentations: %w", err)
	}

	ext, err := a.analysisTable(ctx, a.extendedStimulusPath)
	if err != nil {
		return nil, err
	}
	// The extended table repeats the omitted flag; keep the base copy.
	ext, err = frame.Drop(ext, "omitted")
	if err != nil {
		return nil, fmt.Errorf("extended stimulus presentations: %w", err)
	}

	joined, err := frame.LeftJoin(stim, ext, "flash_id")
	if err != nil {
		return nil, fmt.Errorf("stimulus presentations join: %w", err)
	}

	out, err := frame.Select(joined, stimulusSelectColumns)
	if err != nil {
		return nil, fmt.Errorf("stimulus presentations: %w", err)
	}
	out, err = frame.Rename(out, map[string]string{
		"index":         "absolute_flash_number",
		"running_speed": "mean_running_speed",
	})
	if err != nil {
		return nil, fmt.Errorf("stimulus presentations: %w", err)
	}

	// The recorded image_set is a full stimulus set name; students only need
	// the set letter carried in the stage name.
	params, err := a.TaskParameters(ctx)
	if err != nil {
		return nil, err
	}
	imageSet, err := params.ImageSet()
	if err != nil {
		return nil, err
	}
	out, err = frame.ReplaceColumn(out, "image_set", frame.RepeatString(imageSet, int(out.NumRows())))
	if err != nil {
		return nil, fmt.Errorf("stimulus presentations: %w", err)
	}
	return out, nil
}

// TrialResponses returns the per-trial response table with internal roi
// bookkeeping dropped.
func (a *API) TrialResponses(ctx context.Context) (arrow.Record, error) {
	rec, err := a.analysisTable(ctx, a.trialResponsePath)
	if err != nil {
		return nil, err
	}
	a.logLoad("trial_response", rec)
	out, err := frame.Drop(rec, "cell_roi_id")
	if err != nil {
		return nil, fmt.Errorf("trial responses: %w", err)
	}
	return out, nil
}

// FlashResponses returns the per-flash response table joined with the
// curated stimulus presentations.
func (a *API) FlashResponses(ctx context.Context) (arrow.Record, error) {
	rec, err := a.analysisTable(ctx, a.flashResponsePath)
	if err != nil {
		return nil, err
	}
	a.logLoad("flash_response", rec)
	rec, err = frame.Drop(rec, "image_name", "cell_roi_id")
	if err != nil {
		return nil, fmt.Errorf("flash responses: %w", err)
	}

	stim, err := a.StimulusPresentations(ctx)
	if err != nil {
		return nil, err
	}
	out, err := frame.LeftJoin(rec, stim, "flash_id")
	if err != nil {
		return nil, fmt.Errorf("flash responses join: %w", err)
	}
	return out, nil
}

// ExtendedStimulusPresentations returns the extended stimulus presentation
// statistics as stored.
func (a *API) ExtendedStimulusPresentations(ctx context.Context) (arrow.Record, error) {
	rec, err := a.analysisTable(ctx, a.extendedStimulusPath)
	if err != nil {
		return nil, err
	}
	a.logLoad("extended_stimulus_presentations", rec)
	return rec, nil
}

// RunningSpeed returns the running speed as a two-column table (speed,
// timestamps).
func (a *API) RunningSpeed(ctx context.Context) (arrow.Record, error) {
	rec, err := a.source.Table(ctx, TableRunningSpeed)
	if err != nil {
		return nil, err
	}
	a.logLoad(TableRunningSpeed, rec)
	rec, err = frame.Rename(rec, map[string]string{"values": "speed"})
	if err != nil {
		return nil, fmt.Errorf("running speed: %w", err)
	}
	out, err := frame.Select(rec, []string{"speed", "timestamps"})
	if err != nil {
		return nil, fmt.Errorf("running speed: %w", err)
	}
	return out, nil
}

// RunningData returns the raw signals used to compute running speed.
func (a *API) RunningData(ctx context.Context) (arrow.Record, error) {
	rec, err := a.source.Table(ctx, TableRunningData)
	if err != nil {
		return nil, err
	}
	a.logLoad(TableRunningData, rec)
	return rec, nil
}

// Licks returns the lick table with its time column renamed to timestamps,
// consistent with the rest of the session.
func (a *API) Licks(ctx context.Context) (arrow.Record, error) {
	rec, err := a.source.Table(ctx, TableLicks)
	if err != nil {
		return nil, err
	}
	a.logLoad(TableLicks, rec)
	out, err := frame.Rename(rec, map[string]string{"time": "timestamps"})
	if err != nil {
		return nil, fmt.Errorf("licks: %w", err)
	}
	return out, nil
}

// Rewards returns the reward table with timestamps as the leading column.
func (a *API) Rewards(ctx context.Context) (arrow.Record, error) {
	rec, err := a.source.Table(ctx, TableRewards)
	if err != nil {
		return nil, err
	}
	a.logLoad(TableRewards, rec)

	names := frame.Names(rec)
	order := make([]string, 0, len(names))
	order = append(order, "timestamps")
	for _, name := range names {
		if name != "timestamps" {
			order = append(order, name)
		}
	}
	out, err := frame.Select(rec, order)
	if err != nil {
		return nil, fmt.Errorf("rewards: %w", err)
	}
	return out, nil
}

// DFFTraces returns the dff traces with internal roi bookkeeping dropped.
func (a *API) DFFTraces(ctx context.Context) (arrow.Record, error) {
	rec, err := a.source.Table(ctx, TableDFFTraces)
	if err != nil {
		return nil, err
	}
	a.logLoad(TableDFFTraces, rec)
	out, err := frame.Drop(rec, "cell_roi_id")
	if err != nil {
		return nil, fmt.Errorf("dff traces: %w", err)
	}
	return out, nil
}

// CorrectedFluorescenceTraces returns the motion-corrected fluorescence
// traces as stored.
func (a *API) CorrectedFluorescenceTraces(ctx context.Context) (arrow.Record, error) {
	rec, err := a.source.Table(ctx, TableCorrectedFluorescence)
	if err != nil {
		return nil, err
	}
	a.logLoad(TableCorrectedFluorescence, rec)
	return rec, nil
}

// CellSpecimenTable returns the cell roi table as stored.
func (a *API) CellSpecimenTable(ctx context.Context) (arrow.Record, error) {
	rec, err := a.source.Table(ctx, TableCellSpecimen)
	if err != nil {
		return nil, err
	}
	a.logLoad(TableCellSpecimen, rec)
	return rec, nil
}

// MotionCorrection returns the motion correction trace table as stored.
func (a *API) MotionCorrection(ctx context.Context) (arrow.Record, error) {
	rec, err := a.source.Table(ctx, TableMotionCorrection)
	if err != nil {
		return nil, err
	}
	a.logLoad(TableMotionCorrection, rec)
	return rec, nil
}

// StimulusTimestamps returns the monitor frame timestamps.
func (a *API) StimulusTimestamps(ctx context.Context) ([]float64, error) {
	return a.source.Series(ctx, SeriesStimulusTimestamps)
}

// OphysTimestamps returns the microscope frame timestamps.
func (a *API) OphysTimestamps(ctx context.Context) ([]float64, error) {
	return a.source.Series(ctx, SeriesOphysTimestamps)
}

// StimulusTemplates returns the session's stimulus image stack. The raw
// mapping has exactly one image set; its value is returned directly.
func (a *API) StimulusTemplates(ctx context.Context) ([]models.Image, error) {
	templates, err := a.source.Templates(ctx)
	if err != nil {
		return nil, err
	}
	if len(templates) != 1 {
		return nil, fmt.Errorf("stimulus templates: expected one image set, got %d", len(templates))
	}
	var stack []models.Image
	for _, frames := range templates {
		stack = frames
	}
	return stack, nil
}

// MaxProjection returns the 2D max projection image.
func (a *API) MaxProjection(ctx context.Context) (models.Image, error) {
	return a.source.Image(ctx, ObjectMaxProjection)
}

// AverageProjection returns the field of view averaged across the session.
func (a *API) AverageProjection(ctx context.Context) (models.Image, error) {
	return a.source.Image(ctx, ObjectAverageProjection)
}

// SegmentationMaskImage returns the roi segmentation mask, binarized: the
// stored per-pixel values are unexplained weights and would only confuse.
func (a *API) SegmentationMaskImage(ctx context.Context) (models.Image, error) {
	img, err := a.source.Image(ctx, ObjectSegmentationMaskImage)
	if err != nil {
		return models.Image{}, err
	}
	return img.Binarized(), nil
}
