// Package mcp provides an MCP (Model Context Protocol) server for vbcache.
package mcp

import (
	"github.com/Laura-lc/AllenSDK/internal/cache"
	"github.com/Laura-lc/AllenSDK/internal/models"
)

// VBManifestInput defines the input for the vb_manifest tool.
type VBManifestInput struct {
	ContainerID       int64  `json:"container_id,omitempty" jsonschema:"Only experiments from this container"`
	Stage             string `json:"stage,omitempty" jsonschema:"Only experiments with this behavior stage name"`
	TargetedStructure string `json:"targeted_structure,omitempty" jsonschema:"Only experiments targeting this brain structure"`
}

// VBManifestOutput defines the output for the vb_manifest tool.
type VBManifestOutput struct {
	Experiments []models.Experiment `json:"experiments" jsonschema:"Matching manifest rows"`
	Count       int                 `json:"count" jsonschema:"Number of matching experiments"`
}

// VBSessionInfoInput defines the input for the vb_session_info tool.
type VBSessionInfoInput struct {
	OphysExperimentID int64 `json:"ophys_experiment_id" jsonschema:"Experiment id from the manifest"`
}

// VBSessionInfoOutput defines the output for the vb_session_info tool.
// Metadata and task parameters are filled when the session data file is
// readable; DataError explains when it is not.
type VBSessionInfoOutput struct {
	Experiment     models.Experiment      `json:"experiment" jsonschema:"The manifest row"`
	Metadata       *models.Metadata       `json:"metadata,omitempty" jsonschema:"Session metadata"`
	TaskParameters *models.TaskParameters `json:"task_parameters,omitempty" jsonschema:"Behavioral task parameters"`
	DataError      string                 `json:"data_error,omitempty" jsonschema:"Why session data could not be read"`
}

// VBSessionTableInput defines the input for the vb_session_table tool.
type VBSessionTableInput struct {
	OphysExperimentID int64  `json:"ophys_experiment_id" jsonschema:"Experiment id from the manifest"`
	Table             string `json:"table" jsonschema:"Table name: trials, all_trials, stimulus_presentations, licks, rewards, running_speed, running_data, dff_traces, corrected_fluorescence_traces, cell_specimen_table, motion_correction, trial_response, flash_response, extended_stimulus_presentations, or image_index"`
	Limit             int    `json:"limit,omitempty" jsonschema:"Maximum rows to return (default 50, max 500)"`
	Offset            int    `json:"offset,omitempty" jsonschema:"Rows to skip from the start of the table"`
}

// VBSessionTableOutput defines the output for the vb_session_table tool.
type VBSessionTableOutput struct {
	Table   string                   `json:"table"`
	Columns []string                 `json:"columns" jsonschema:"Column names in table order"`
	Rows    []map[string]interface{} `json:"rows" jsonschema:"One object per row; NaN and infinities are encoded as strings"`
	Total   int64                    `json:"total_rows" jsonschema:"Row count before paging"`
	Offset  int                      `json:"offset"`
}

// VBValidateInput defines the input for the vb_validate tool.
type VBValidateInput struct{}

// VBValidateOutput defines the output for the vb_validate tool.
type VBValidateOutput struct {
	Experiments  int                `json:"experiments" jsonschema:"Experiments in the manifest"`
	FilesChecked int                `json:"files_checked" jsonschema:"Data files checked"`
	MissingCount int                `json:"missing_count" jsonschema:"Data files missing"`
	Missing      []cache.FileStatus `json:"missing,omitempty" jsonschema:"The missing files"`
	Message      string             `json:"message" jsonschema:"Human-readable summary"`
}
