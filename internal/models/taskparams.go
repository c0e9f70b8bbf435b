package models

import (
	"fmt"

	"github.com/Laura-lc/AllenSDK/internal/constants"
	"github.com/Laura-lc/AllenSDK/internal/utils"
)

// TaskParameters holds the parameters that defined the behavior task at
// runtime: stimulus timing, the response window, and the behavior stage.
type TaskParameters struct {
	BlankDurationSec     []float64 `json:"blank_duration_sec"`
	StimulusDurationSec  float64   `json:"stimulus_duration_sec"`
	OmittedFlashFraction float64   `json:"omitted_flash_fraction"`
	ResponseWindowSec    []float64 `json:"response_window_sec"`
	RewardVolume         float64   `json:"reward_volume"`
	Stage                string    `json:"stage"`
	Stimulus             string    `json:"stimulus"`
	StimulusDistribution string    `json:"stimulus_distribution"`
	Task                 string    `json:"task"`
	NStimulusFrames      int64     `json:"n_stimulus_frames"`
}

// TaskParametersFromObject builds TaskParameters from a raw session attribute
// mapping. No corrections are applied here; the session API overwrites the
// known-bad parameters after parsing.
func TaskParametersFromObject(m map[string]interface{}) TaskParameters {
	return TaskParameters{
		BlankDurationSec:     utils.GetFloat64Slice(m, "blank_duration_sec"),
		StimulusDurationSec:  utils.GetFloat64(m, "stimulus_duration_sec", 0),
		OmittedFlashFraction: utils.GetFloat64(m, "omitted_flash_fraction", 0),
		ResponseWindowSec:    utils.GetFloat64Slice(m, "response_window_sec"),
		RewardVolume:         utils.GetFloat64(m, "reward_volume", 0),
		Stage:                utils.GetString(m, "stage", ""),
		Stimulus:             utils.GetString(m, "stimulus", ""),
		StimulusDistribution: utils.GetString(m, "stimulus_distribution", ""),
		Task:                 utils.GetString(m, "task", ""),
		NStimulusFrames:      utils.GetInt64(m, "n_stimulus_frames", 0),
	}
}

// ImageSet returns the image-set letter encoded in the stage name, e.g. "A"
// for stage "OPHYS_1_images_A". Stage names too short to carry the letter are
// an error.
func (p TaskParameters) ImageSet() (string, error) {
	if len(p.Stage) <= constants.ImageSetStageIndex {
		return "", fmt.Errorf("stage name %q too short to carry an image set letter", p.Stage)
	}
	return string(p.Stage[constants.ImageSetStageIndex]), nil
}
