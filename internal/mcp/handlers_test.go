package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Laura-lc/AllenSDK/internal/cache"
	"github.com/Laura-lc/AllenSDK/internal/config"
	"github.com/Laura-lc/AllenSDK/internal/frame"
	"github.com/Laura-lc/AllenSDK/internal/tableio"
)

const testManifest = `,ophys_experiment_id,container_id,full_genotype,imaging_depth,targeted_structure,stage_name,animal_name,sex,date_of_acquisition,retake_number
0,792815735,782536745,"Slc17a7-IRES2-Cre/wt;Camk2a-tTA/wt;Ai93(TITL-GCaMP6f)/wt",375,VISp,OPHYS_1_images_A,431151,F,2018-10-24 00:00:00,0
1,796105823,782536745,"Slc17a7-IRES2-Cre/wt;Camk2a-tTA/wt;Ai93(TITL-GCaMP6f)/wt",375,VISp,OPHYS_3_images_A,431151,F,2018-11-02 00:00:00,0
2,799368904,799368262,"Vip-IRES-Cre/wt;Ai148(TIT2L-GC6f-ICL-tTA2)/wt",175,VISl,OPHYS_1_images_A,435431,M,2018-11-20 00:00:00,0
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeJSONFile(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

// newTestServer builds a server over a temp-dir dataset: three experiments
// in the manifest, with session documents and a licks table on disk for
// experiment 792815735.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "visual_behavior_data_manifest.csv")
	if err := os.WriteFile(manifestPath, []byte(testManifest), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nwbDir := filepath.Join(dir, "nwb_files")
	analysisDir := filepath.Join(dir, "analysis_files")
	for _, d := range []string{nwbDir, analysisDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
	}

	pc, err := cache.New(&config.Config{
		ManifestPath:         manifestPath,
		NWBBaseDir:           nwbDir,
		AnalysisFilesBaseDir: analysisDir,
		CacheDir:             filepath.Join(dir, "cache"),
	}, testLogger())
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	t.Cleanup(func() { pc.Close() })

	sessionDir := pc.NWBPath(792815735)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	writeJSONFile(t, filepath.Join(sessionDir, "metadata.json"), map[string]interface{}{
		"ophys_experiment_id":     792815735,
		"experiment_container_id": 782536745,
		"LabTracks_ID":            "431151",
		"targeted_structure":      "VISp",
		"imaging_depth":           375,
	})
	writeJSONFile(t, filepath.Join(sessionDir, "task_parameters.json"), map[string]interface{}{
		"stage":                  "OPHYS_1_images_A",
		"stimulus_duration_sec":  6000.0,
		"omitted_flash_fraction": 0.0,
	})

	licks, err := frame.NewRecord(
		frame.Float64Col("time", []float64{10.9, 11.05, 13.4}),
	)
	if err != nil {
		t.Fatalf("NewRecord() error = %v", err)
	}
	licksPath := filepath.Join(sessionDir, "licks.arrow")
	if err := (tableio.IPC{}).WriteTable(context.Background(), licksPath, licks); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}

	s, err := NewServer(&Config{
		Name:    "vbcache",
		Version: "test",
		Cache:   pc,
		Logger:  testLogger(),
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestVBManifestAll(t *testing.T) {
	s := newTestServer(t)
	_, out, err := s.handleVBManifest(context.Background(), nil, VBManifestInput{})
	if err != nil {
		t.Fatalf("handleVBManifest() error = %v", err)
	}
	if out.Count != 3 {
		t.Fatalf("expected 3 experiments, got %d", out.Count)
	}
	if out.Experiments[0].OphysExperimentID != 792815735 {
		t.Errorf("expected 792815735 first, got %d", out.Experiments[0].OphysExperimentID)
	}
}

func TestVBManifestFilters(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   VBManifestInput
		want int
	}{
		{"by container", VBManifestInput{ContainerID: 782536745}, 2},
		{"by stage", VBManifestInput{Stage: "OPHYS_1_images_A"}, 2},
		{"by structure", VBManifestInput{TargetedStructure: "VISl"}, 1},
		{"combined", VBManifestInput{ContainerID: 782536745, Stage: "OPHYS_3_images_A"}, 1},
		{"no match", VBManifestInput{Stage: "OPHYS_6_images_B"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := s.handleVBManifest(ctx, nil, tt.in)
			if err != nil {
				t.Fatalf("handleVBManifest() error = %v", err)
			}
			if out.Count != tt.want {
				t.Errorf("count = %d, want %d", out.Count, tt.want)
			}
		})
	}
}

func TestVBSessionInfo(t *testing.T) {
	s := newTestServer(t)
	_, out, err := s.handleVBSessionInfo(context.Background(), nil, VBSessionInfoInput{
		OphysExperimentID: 792815735,
	})
	if err != nil {
		t.Fatalf("handleVBSessionInfo() error = %v", err)
	}
	if out.Experiment.StageName != "OPHYS_1_images_A" {
		t.Errorf("stage = %q", out.Experiment.StageName)
	}
	if out.DataError != "" {
		t.Fatalf("unexpected data error: %s", out.DataError)
	}
	if out.Metadata == nil || out.Metadata.MouseID != "431151" {
		t.Errorf("metadata = %+v", out.Metadata)
	}
	if out.TaskParameters == nil || out.TaskParameters.StimulusDurationSec != 0.25 {
		t.Errorf("expected corrected stimulus duration, got %+v", out.TaskParameters)
	}
}

func TestVBSessionInfoMissingData(t *testing.T) {
	s := newTestServer(t)
	// In the manifest, but no session files on disk.
	_, out, err := s.handleVBSessionInfo(context.Background(), nil, VBSessionInfoInput{
		OphysExperimentID: 796105823,
	})
	if err != nil {
		t.Fatalf("handleVBSessionInfo() error = %v", err)
	}
	if out.DataError == "" {
		t.Error("expected DataError for missing session data")
	}
	if out.Metadata != nil {
		t.Error("expected nil metadata when data is unreadable")
	}
}

func TestVBSessionInfoUnknownExperiment(t *testing.T) {
	s := newTestServer(t)
	_, _, err := s.handleVBSessionInfo(context.Background(), nil, VBSessionInfoInput{
		OphysExperimentID: 42,
	})
	if err == nil {
		t.Fatal("expected error for unknown experiment")
	}
}

func TestVBSessionTable(t *testing.T) {
	s := newTestServer(t)
	_, out, err := s.handleVBSessionTable(context.Background(), nil, VBSessionTableInput{
		OphysExperimentID: 792815735,
		Table:             "licks",
	})
	if err != nil {
		t.Fatalf("handleVBSessionTable() error = %v", err)
	}
	if out.Total != 3 {
		t.Fatalf("total = %d, want 3", out.Total)
	}
	if len(out.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(out.Rows))
	}
	if len(out.Columns) != 1 || out.Columns[0] != "timestamps" {
		t.Errorf("columns = %v, want [timestamps]", out.Columns)
	}
	if out.Rows[0]["timestamps"] != 10.9 {
		t.Errorf("first timestamp = %v, want 10.9", out.Rows[0]["timestamps"])
	}
}

func TestVBSessionTablePaging(t *testing.T) {
	s := newTestServer(t)
	_, out, err := s.handleVBSessionTable(context.Background(), nil, VBSessionTableInput{
		OphysExperimentID: 792815735,
		Table:             "licks",
		Limit:             1,
		Offset:            1,
	})
	if err != nil {
		t.Fatalf("handleVBSessionTable() error = %v", err)
	}
	if len(out.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out.Rows))
	}
	if out.Rows[0]["timestamps"] != 11.05 {
		t.Errorf("timestamp = %v, want 11.05", out.Rows[0]["timestamps"])
	}
	if out.Offset != 1 {
		t.Errorf("offset = %d, want 1", out.Offset)
	}
}

func TestVBSessionTableUnknownTable(t *testing.T) {
	s := newTestServer(t)
	_, _, err := s.handleVBSessionTable(context.Background(), nil, VBSessionTableInput{
		OphysExperimentID: 792815735,
		Table:             "nonsense",
	})
	if err == nil {
		t.Fatal("expected error for unknown table name")
	}
}

func TestVBValidate(t *testing.T) {
	s := newTestServer(t)
	_, out, err := s.handleVBValidate(context.Background(), nil, VBValidateInput{})
	if err != nil {
		t.Fatalf("handleVBValidate() error = %v", err)
	}
	if out.Experiments != 3 {
		t.Errorf("experiments = %d, want 3", out.Experiments)
	}
	if out.FilesChecked != 12 {
		t.Errorf("files checked = %d, want 12", out.FilesChecked)
	}
	// The session directory stands in for the NWB file; the analysis files
	// are absent for every experiment.
	if out.MissingCount != 11 {
		t.Errorf("missing = %d, want 11", out.MissingCount)
	}
}

func TestManifestResource(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleManifestResource(context.Background(), nil)
	if err != nil {
		t.Fatalf("handleManifestResource() error = %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(result.Contents))
	}
	text := result.Contents[0].Text
	if text == "" {
		t.Fatal("empty resource text")
	}
	for _, want := range []string{"792815735", "OPHYS_3_images_A", "VISl"} {
		if !strings.Contains(text, want) {
			t.Errorf("resource missing %q", want)
		}
	}
}

func TestJSONSafe(t *testing.T) {
	tests := []struct {
		in   interface{}
		want interface{}
	}{
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{1.5, 1.5},
		{"im_a", "im_a"},
		{int64(7), int64(7)},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := jsonSafe(tt.in); got != tt.want {
			t.Errorf("jsonSafe(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	list := jsonSafe([]float64{1.0, math.Inf(1)}).([]interface{})
	if list[0] != 1.0 || list[1] != "Infinity" {
		t.Errorf("jsonSafe list = %v", list)
	}
}
