package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportCmd(t *testing.T) {
	configPath := writeDataset(t)
	outDir := filepath.Join(t.TempDir(), "exported")

	out, err := runCommand(t, configPath, newExportCmd(),
		"export", "792815735", "--out", outDir, "--tables", "licks")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Exported 1 tables") {
		t.Errorf("output missing summary:\n%s", out)
	}

	f, err := os.Open(filepath.Join(outDir, "licks.csv"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d csv lines, want header + 3 rows", len(records))
	}
	if records[0][0] != "timestamps" {
		t.Errorf("header = %v, want [timestamps]", records[0])
	}
}

func TestExportCmdRejectsDatasetDir(t *testing.T) {
	configPath := writeDataset(t)
	nwbDir := filepath.Join(filepath.Dir(configPath), "nwb_files")

	_, err := runCommand(t, configPath, newExportCmd(),
		"export", "792815735", "--out", filepath.Join(nwbDir, "exported"))
	if err == nil {
		t.Fatal("expected error for output inside the dataset directory")
	}
	if !strings.Contains(err.Error(), "read-only") {
		t.Errorf("error = %v, want mention of read-only dataset directory", err)
	}
}

func TestExportCmdRequiresOut(t *testing.T) {
	configPath := writeDataset(t)

	_, err := runCommand(t, configPath, newExportCmd(), "export", "792815735")
	if err == nil {
		t.Fatal("expected error when --out is missing")
	}
}
