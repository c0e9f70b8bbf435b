package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestManifestCmdAll(t *testing.T) {
	configPath := writeDataset(t)

	out, err := runCommand(t, configPath, newManifestCmd(), "manifest", "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Unmarshal() error = %v\noutput: %s", err, out)
	}
	if count := result["count"].(float64); count != 3 {
		t.Errorf("count = %v, want 3", count)
	}
}

func TestManifestCmdFilters(t *testing.T) {
	configPath := writeDataset(t)

	tests := []struct {
		name string
		args []string
		want float64
	}{
		{"by container", []string{"manifest", "--container", "782536745"}, 2},
		{"by stage", []string{"manifest", "--stage", "OPHYS_1_images_A"}, 2},
		{"by structure", []string{"manifest", "--structure", "VISl"}, 1},
		{"combined", []string{"manifest", "--container", "782536745", "--stage", "OPHYS_3_images_A"}, 1},
		{"no match", []string{"manifest", "--structure", "VISam"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, configPath, newManifestCmd(), append(tt.args, "--json")...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			var result map[string]interface{}
			if err := json.Unmarshal([]byte(out), &result); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if count := result["count"].(float64); count != tt.want {
				t.Errorf("count = %v, want %v", count, tt.want)
			}
		})
	}
}

func TestManifestCmdText(t *testing.T) {
	configPath := writeDataset(t)

	out, err := runCommand(t, configPath, newManifestCmd(), "manifest")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "792815735") {
		t.Errorf("output missing experiment id:\n%s", out)
	}
	if !strings.Contains(out, "3 experiments") {
		t.Errorf("output missing count line:\n%s", out)
	}
}

func TestManifestCmdFlags(t *testing.T) {
	cmd := newManifestCmd()
	for _, name := range []string{"container", "stage", "structure"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("manifest command missing --%s flag", name)
		}
	}
}
