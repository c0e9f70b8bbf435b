// Package constants provides named constants used throughout the vbcache codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Task parameter corrections. The values recorded in the session files are
// wrong for these two parameters, so the session API overwrites them with the
// values the task actually used.
const (
	// OmittedFlashFraction is the fraction of stimulus flashes omitted at random.
	OmittedFlashFraction = 0.05

	// StimulusDurationSec is the duration of a single stimulus flash, in seconds.
	StimulusDurationSec = 0.25
)

// Reward rate parameters control the rolling rewards-per-minute estimate
// recomputed for each trial after the timing patch.
const (
	// RewardRateResponseWindowSec is the latency bound under which a response
	// counts as correct, in seconds.
	RewardRateResponseWindowSec = 0.75

	// RewardRateTrialWindow is the number of trials included on each side of
	// the current trial when estimating the rate.
	RewardRateTrialWindow = 25

	// RewardRateInitialTrials is the number of leading trials whose rate is
	// seeded to +Inf so they always pass engagement filters.
	RewardRateInitialTrials = 10
)

// ImageSetStageIndex is the character position of the image-set letter in a
// behavior stage name, e.g. the 'A' in "OPHYS_1_images_A".
const ImageSetStageIndex = 15

// Analysis file table key. The precomputed analysis tables are stored in
// container files under this key.
const AnalysisTableKey = "df"
