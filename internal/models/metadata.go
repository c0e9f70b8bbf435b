package models

import (
	"github.com/Laura-lc/AllenSDK/internal/utils"
)

// Metadata describes a single imaging session. It is built from the raw
// session attribute mapping by the session API, which also copies the stage
// name in from task parameters. The upstream session_type attribute (always
// "Unknown") and behavior_session_uuid are not carried over.
type Metadata struct {
	OphysExperimentID     int64    `json:"ophys_experiment_id"`
	ExperimentContainerID int64    `json:"experiment_container_id"`
	Stage                 string   `json:"stage"`
	MouseID               string   `json:"mouse_id"`
	FullGenotype          string   `json:"full_genotype"`
	ReporterLine          []string `json:"reporter_line"`
	DriverLine            []string `json:"driver_line"`
	Sex                   string   `json:"sex"`
	Age                   string   `json:"age"`
	TargetedStructure     string   `json:"targeted_structure"`
	ImagingDepth          int64    `json:"imaging_depth"`
	Rig                   string   `json:"rig_name"`
	DateOfAcquisition     string   `json:"date_of_acquisition"`
	OphysFrameRate        float64  `json:"ophys_frame_rate"`
	StimulusFrameRate     float64  `json:"stimulus_frame_rate"`
	FieldOfViewWidth      int64    `json:"field_of_view_width"`
	FieldOfViewHeight     int64    `json:"field_of_view_height"`
	ExcitationLambda      float64  `json:"excitation_lambda"`
	EmissionLambda        float64  `json:"emission_lambda"`
	Indicator             string   `json:"indicator"`
}

// MetadataFromObject builds Metadata from a raw session attribute mapping.
// The upstream LabTracks_ID attribute is exposed as MouseID; Stage is left
// empty for the caller to fill from task parameters.
func MetadataFromObject(m map[string]interface{}) Metadata {
	return Metadata{
		OphysExperimentID:     utils.GetInt64(m, "ophys_experiment_id", 0),
		ExperimentContainerID: utils.GetInt64(m, "experiment_container_id", 0),
		MouseID:               utils.GetString(m, "LabTracks_ID", ""),
		FullGenotype:          utils.GetString(m, "full_genotype", ""),
		ReporterLine:          utils.GetStringSlice(m, "reporter_line"),
		DriverLine:            utils.GetStringSlice(m, "driver_line"),
		Sex:                   utils.GetString(m, "sex", ""),
		Age:                   utils.GetString(m, "age", ""),
		TargetedStructure:     utils.GetString(m, "targeted_structure", ""),
		ImagingDepth:          utils.GetInt64(m, "imaging_depth", 0),
		Rig:                   utils.GetString(m, "rig_name", ""),
		DateOfAcquisition:     utils.GetString(m, "date_of_acquisition", ""),
		OphysFrameRate:        utils.GetFloat64(m, "ophys_frame_rate", 0),
		StimulusFrameRate:     utils.GetFloat64(m, "stimulus_frame_rate", 0),
		FieldOfViewWidth:      utils.GetInt64(m, "field_of_view_width", 0),
		FieldOfViewHeight:     utils.GetInt64(m, "field_of_view_height", 0),
		ExcitationLambda:      utils.GetFloat64(m, "excitation_lambda", 0),
		EmissionLambda:        utils.GetFloat64(m, "emission_lambda", 0),
		Indicator:             utils.GetString(m, "indicator", ""),
	}
}
