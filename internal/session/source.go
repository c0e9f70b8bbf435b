// Package session adapts one imaging session's raw data into the curated
// tables handed to students: fixed renames, reorders, and drops, plus the
// trial/stimulus timing reconciliation. Session wraps the adapter in a
// lazily-memoized facade.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/Laura-lc/AllenSDK/internal/frame"
	"github.com/Laura-lc/AllenSDK/internal/models"
	"github.com/Laura-lc/AllenSDK/internal/tableio"
)

// Dataset names a Source must resolve. Tables are Arrow records; series are
// single-column tables; objects are JSON-style documents.
const (
	TableTrials                 = "trials"
	TableStimulusPresentations  = "stimulus_presentations"
	TableLicks                  = "licks"
	TableRewards                = "rewards"
	TableRunningSpeed           = "running_speed"
	TableRunningData            = "running_data"
	TableDFFTraces              = "dff_traces"
	TableCorrectedFluorescence  = "corrected_fluorescence_traces"
	TableCellSpecimen           = "cell_specimen_table"
	TableMotionCorrection       = "motion_correction"
	SeriesStimulusTimestamps    = "stimulus_timestamps"
	SeriesOphysTimestamps       = "ophys_timestamps"
	ObjectMetadata              = "metadata"
	ObjectTaskParameters        = "task_parameters"
	ObjectStimulusTemplates     = "stimulus_templates"
	ObjectMaxProjection         = "max_projection"
	ObjectAverageProjection     = "average_projection"
	ObjectSegmentationMaskImage = "segmentation_mask_image"
)

// Source reads one session's raw datasets by name. Implementations resolve
// names against whatever backing layout they have; API applies the curated
// transforms on top.
type Source interface {
	// Table returns the named raw table.
	Table(ctx context.Context, name string) (arrow.Record, error)

	// Object returns the named raw document.
	Object(ctx context.Context, name string) (map[string]interface{}, error)

	// Series returns the named single-column table's values.
	Series(ctx context.Context, name string) ([]float64, error)

	// Image returns the named raw image.
	Image(ctx context.Context, name string) (models.Image, error)

	// Templates returns the stimulus template stacks keyed by image set name.
	Templates(ctx context.Context) (map[string][]models.Image, error)
}

// NWBSource reads a session laid out on disk: a directory holding one Arrow
// file and one JSON document per dataset name, or a single JSON file holding
// the documents under top-level keys. It stands in front of the upstream
// recording container format, which is out of scope here.
type NWBSource struct {
	path    string
	tables  tableio.TableReader
	objects tableio.ObjectReader
}

// NewNWBSource creates a source reading session data at path using the Arrow
// IPC and JSON readers.
func NewNWBSource(path string) *NWBSource {
	return &NWBSource{
		path:    path,
		tables:  tableio.IPC{},
		objects: tableio.JSON{},
	}
}

// Table returns the named raw table.
func (s *NWBSource) Table(ctx context.Context, name string) (arrow.Record, error) {
	rec, err := s.tables.ReadTable(ctx, s.path, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read session table %q: %w", name, err)
	}
	return rec, nil
}

// Series returns the named single-column table's values.
func (s *NWBSource) Series(ctx context.Context, name string) ([]float64, error) {
	rec, err := s.Table(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec.NumCols() != 1 {
		return nil, fmt.Errorf("session dataset %q: expected a single column, got %d", name, rec.NumCols())
	}
	vals, err := frame.Float64Column(rec, rec.ColumnName(0))
	if err != nil {
		return nil, fmt.Errorf("session dataset %q: %w", name, err)
	}
	return vals, nil
}

// Object returns the named raw document. When the session path is a
// directory the document lives in <path>/<name>.json; a single-file session
// holds all documents under top-level keys.
func (s *NWBSource) Object(ctx context.Context, name string) (map[string]interface{}, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to locate session data: %w", err)
	}

	if info.IsDir() {
		obj, err := s.objects.ReadObject(ctx, filepath.Join(s.path, name+".json"))
		if err != nil {
			return nil, fmt.Errorf("failed to read session document %q: %w", name, err)
		}
		return obj, nil
	}

	doc, err := s.objects.ReadObject(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session data: %w", err)
	}
	raw, ok := doc[name]
	if !ok {
		return nil, fmt.Errorf("session data has no %q entry", name)
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("session %q entry is not an object", name)
	}
	return obj, nil
}

// Image returns the named raw image.
func (s *NWBSource) Image(ctx context.Context, name string) (models.Image, error) {
	obj, err := s.Object(ctx, name)
	if err != nil {
		return models.Image{}, err
	}
	img, err := models.ImageFromObject(obj)
	if err != nil {
		return models.Image{}, fmt.Errorf("session image %q: %w", name, err)
	}
	return img, nil
}

// Templates returns the stimulus template stacks keyed by image set name.
func (s *NWBSource) Templates(ctx context.Context) (map[string][]models.Image, error) {
	obj, err := s.Object(ctx, ObjectStimulusTemplates)
	if err != nil {
		return nil, err
	}
	templates, err := models.TemplatesFromObject(obj)
	if err != nil {
		return nil, fmt.Errorf("stimulus templates: %w", err)
	}
	return templates, nil
}
