// Package models defines the core data structures for the visual behavior
// ophys dataset: manifest rows, session metadata, task parameters, and images.
package models

// Experiment is one row of the project manifest: a single two-photon imaging
// session. Sessions that image the same field of view across behavior stages
// share a container id.
type Experiment struct {
	OphysExperimentID int64  `json:"ophys_experiment_id"`
	ContainerID       int64  `json:"container_id"`
	FullGenotype      string `json:"full_genotype"`
	ImagingDepth      int64  `json:"imaging_depth"`
	TargetedStructure string `json:"targeted_structure"`
	StageName         string `json:"stage_name"`
	AnimalName        string `json:"animal_name"`
	Sex               string `json:"sex"`
	DateOfAcquisition string `json:"date_of_acquisition"`
	RetakeNumber      int64  `json:"retake_number"`
}
