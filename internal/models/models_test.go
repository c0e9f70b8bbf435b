package models

import (
	"testing"
)

func TestMetadataFromObject(t *testing.T) {
	raw := map[string]interface{}{
		"ophys_experiment_id":     float64(792815735),
		"experiment_container_id": float64(782536745),
		"LabTracks_ID":            float64(431151),
		"full_genotype":           "Slc17a7-IRES2-Cre/wt;Camk2a-tTA/wt;Ai93(TITL-GCaMP6f)/wt",
		"reporter_line":           []interface{}{"Ai93(TITL-GCaMP6f)"},
		"driver_line":             []interface{}{"Camk2a-tTA", "Slc17a7-IRES2-Cre"},
		"sex":                     "F",
		"age":                     "P152",
		"targeted_structure":      "VISp",
		"imaging_depth":           float64(175),
		"rig_name":                "CAM2P.5",
		"date_of_acquisition":     "2018-11-30 22:22:24",
		"ophys_frame_rate":        31.0,
		"stimulus_frame_rate":     60.0,
		"field_of_view_width":     float64(447),
		"field_of_view_height":    float64(512),
		"excitation_lambda":       910.0,
		"emission_lambda":         520.0,
		"indicator":               "GCAMP6f",
		"session_type":            "Unknown",
		"behavior_session_uuid":   "394a910e-94c7-4472-9838-5345aff59ed8",
	}

	md := MetadataFromObject(raw)

	if md.OphysExperimentID != 792815735 {
		t.Errorf("OphysExperimentID = %d, want 792815735", md.OphysExperimentID)
	}
	if md.ExperimentContainerID != 782536745 {
		t.Errorf("ExperimentContainerID = %d, want 782536745", md.ExperimentContainerID)
	}
	if md.MouseID != "431151" {
		t.Errorf("MouseID = %q, want %q", md.MouseID, "431151")
	}
	if len(md.DriverLine) != 2 || md.DriverLine[0] != "Camk2a-tTA" {
		t.Errorf("DriverLine = %v, want [Camk2a-tTA Slc17a7-IRES2-Cre]", md.DriverLine)
	}
	if md.TargetedStructure != "VISp" {
		t.Errorf("TargetedStructure = %q, want VISp", md.TargetedStructure)
	}
	if md.ImagingDepth != 175 {
		t.Errorf("ImagingDepth = %d, want 175", md.ImagingDepth)
	}
	if md.OphysFrameRate != 31.0 {
		t.Errorf("OphysFrameRate = %v, want 31.0", md.OphysFrameRate)
	}
	// Stage is filled by the session API, not the parser.
	if md.Stage != "" {
		t.Errorf("Stage = %q, want empty", md.Stage)
	}
}

func TestTaskParametersFromObject(t *testing.T) {
	raw := map[string]interface{}{
		"blank_duration_sec":     []interface{}{0.5, 0.5},
		"stimulus_duration_sec":  6.0,
		"omitted_flash_fraction": nil,
		"response_window_sec":    []interface{}{0.15, 0.75},
		"reward_volume":          0.007,
		"stage":                  "OPHYS_1_images_A",
		"stimulus":               "images",
		"stimulus_distribution":  "geometric",
		"task":                   "DoC_untranslated",
		"n_stimulus_frames":      float64(69882),
	}

	p := TaskParametersFromObject(raw)

	if len(p.BlankDurationSec) != 2 || p.BlankDurationSec[0] != 0.5 {
		t.Errorf("BlankDurationSec = %v, want [0.5 0.5]", p.BlankDurationSec)
	}
	if p.StimulusDurationSec != 6.0 {
		t.Errorf("StimulusDurationSec = %v, want 6.0 (uncorrected)", p.StimulusDurationSec)
	}
	if p.OmittedFlashFraction != 0 {
		t.Errorf("OmittedFlashFraction = %v, want 0 (uncorrected)", p.OmittedFlashFraction)
	}
	if p.Stage != "OPHYS_1_images_A" {
		t.Errorf("Stage = %q, want OPHYS_1_images_A", p.Stage)
	}
	if p.NStimulusFrames != 69882 {
		t.Errorf("NStimulusFrames = %d, want 69882", p.NStimulusFrames)
	}
}

func TestTaskParametersImageSet(t *testing.T) {
	tests := []struct {
		name    string
		stage   string
		want    string
		wantErr bool
	}{
		{name: "images A", stage: "OPHYS_1_images_A", want: "A"},
		{name: "images B", stage: "OPHYS_4_images_B", want: "B"},
		{name: "exactly sixteen chars", stage: "OPHYS_1_images_A", want: "A"},
		{name: "too short", stage: "OPHYS_1", wantErr: true},
		{name: "empty", stage: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := TaskParameters{Stage: tt.stage}
			got, err := p.ImageSet()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ImageSet() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ImageSet() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ImageSet() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImageFromObject(t *testing.T) {
	raw := map[string]interface{}{
		"data":    []interface{}{[]interface{}{0.0, 0.4}, []interface{}{0.9, 0.0}},
		"spacing": []interface{}{0.78, 0.78},
		"unit":    "mm",
	}

	im, err := ImageFromObject(raw)
	if err != nil {
		t.Fatalf("ImageFromObject() error = %v", err)
	}
	if im.Rows() != 2 || im.Cols() != 2 {
		t.Errorf("dimensions = %dx%d, want 2x2", im.Rows(), im.Cols())
	}
	if im.Data[1][0] != 0.9 {
		t.Errorf("Data[1][0] = %v, want 0.9", im.Data[1][0])
	}
	if len(im.Spacing) != 2 || im.Spacing[0] != 0.78 {
		t.Errorf("Spacing = %v, want [0.78 0.78]", im.Spacing)
	}
	if im.Unit != "mm" {
		t.Errorf("Unit = %q, want mm", im.Unit)
	}
}

func TestImageFromObjectMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
	}{
		{name: "data not an array", raw: map[string]interface{}{"data": "pixels"}},
		{name: "row not an array", raw: map[string]interface{}{"data": []interface{}{"row"}}},
		{name: "cell not a number", raw: map[string]interface{}{
			"data": []interface{}{[]interface{}{"x"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ImageFromObject(tt.raw); err == nil {
				t.Errorf("ImageFromObject() error = nil, want error")
			}
		})
	}
}

func TestImageBinarized(t *testing.T) {
	im := Image{
		Data:    [][]float64{{0, 0.4}, {0.9, 0}},
		Spacing: []float64{0.78, 0.78},
		Unit:    "mm",
	}

	bin := im.Binarized()

	want := [][]float64{{0, 1}, {1, 0}}
	for i := range want {
		for j := range want[i] {
			if bin.Data[i][j] != want[i][j] {
				t.Errorf("Data[%d][%d] = %v, want %v", i, j, bin.Data[i][j], want[i][j])
			}
		}
	}
	// Original must be untouched.
	if im.Data[0][1] != 0.4 {
		t.Errorf("source image modified: Data[0][1] = %v, want 0.4", im.Data[0][1])
	}
	if bin.Unit != "mm" {
		t.Errorf("Unit = %q, want mm", bin.Unit)
	}
}

func TestTemplatesFromObject(t *testing.T) {
	raw := map[string]interface{}{
		"Natural_Images_Lum_Matched_set_training_2017.07.14": []interface{}{
			[]interface{}{[]interface{}{1.0, 2.0}},
			[]interface{}{[]interface{}{3.0, 4.0}},
		},
	}

	sets, err := TemplatesFromObject(raw)
	if err != nil {
		t.Fatalf("TemplatesFromObject() error = %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("len(sets) = %d, want 1", len(sets))
	}
	stack := sets["Natural_Images_Lum_Matched_set_training_2017.07.14"]
	if len(stack) != 2 {
		t.Fatalf("len(stack) = %d, want 2", len(stack))
	}
	if stack[1].Data[0][1] != 4.0 {
		t.Errorf("frame 1 Data[0][1] = %v, want 4.0", stack[1].Data[0][1])
	}
}

func TestTemplatesFromObjectTyped(t *testing.T) {
	// Fixture maps built in Go code carry typed frame stacks directly.
	raw := map[string]interface{}{
		"im_set": [][][]float64{{{1, 2}}, {{3, 4}}},
	}

	sets, err := TemplatesFromObject(raw)
	if err != nil {
		t.Fatalf("TemplatesFromObject() error = %v", err)
	}
	if len(sets["im_set"]) != 2 {
		t.Fatalf("len(stack) = %d, want 2", len(sets["im_set"]))
	}
	if sets["im_set"][0].Data[0][0] != 1 {
		t.Errorf("frame 0 Data[0][0] = %v, want 1", sets["im_set"][0].Data[0][0])
	}
}
