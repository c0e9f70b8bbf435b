package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.ManifestPath != "" {
		t.Errorf("expected empty ManifestPath, got '%s'", config.ManifestPath)
	}
	if config.NWBBaseDir != "" {
		t.Errorf("expected empty NWBBaseDir, got '%s'", config.NWBBaseDir)
	}
	if config.AnalysisFilesBaseDir != "" {
		t.Errorf("expected empty AnalysisFilesBaseDir, got '%s'", config.AnalysisFilesBaseDir)
	}

	// Logging defaults
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
manifest_path: /data/visual_behavior/visual_behavior_data_manifest.csv
nwb_base_dir: /data/visual_behavior/nwb_files
analysis_files_base_dir: /data/visual_behavior/analysis_files
analysis_files_metadata_path: /data/visual_behavior/analysis_files_metadata.json

logging:
  level: debug
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.ManifestPath != "/data/visual_behavior/visual_behavior_data_manifest.csv" {
		t.Errorf("expected manifest path from file, got '%s'", config.ManifestPath)
	}
	if config.NWBBaseDir != "/data/visual_behavior/nwb_files" {
		t.Errorf("expected nwb base dir from file, got '%s'", config.NWBBaseDir)
	}
	if config.AnalysisFilesBaseDir != "/data/visual_behavior/analysis_files" {
		t.Errorf("expected analysis files base dir from file, got '%s'", config.AnalysisFilesBaseDir)
	}
	if config.AnalysisFilesMetadataPath != "/data/visual_behavior/analysis_files_metadata.json" {
		t.Errorf("expected analysis files metadata path from file, got '%s'", config.AnalysisFilesMetadataPath)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level 'debug', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile_CachePathsJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "cache_paths.json")

	// The shape of the cache-paths document distributed with the dataset.
	configContent := `{
  "manifest_path": "/data/dynamic_brain_workshop/visual_behavior/visual_behavior_data_manifest.csv",
  "nwb_base_dir": "/data/dynamic_brain_workshop/visual_behavior/nwb_files",
  "analysis_files_base_dir": "/data/dynamic_brain_workshop/visual_behavior/extra_files_final",
  "analysis_files_metadata_path": "/data/dynamic_brain_workshop/visual_behavior/analysis_files_metadata.json"
}`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.ManifestPath != "/data/dynamic_brain_workshop/visual_behavior/visual_behavior_data_manifest.csv" {
		t.Errorf("expected manifest path from document, got '%s'", config.ManifestPath)
	}
	if config.AnalysisFilesBaseDir != "/data/dynamic_brain_workshop/visual_behavior/extra_files_final" {
		t.Errorf("expected analysis files base dir from document, got '%s'", config.AnalysisFilesBaseDir)
	}
	// The document carries no logging section, so the default must survive.
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("TEST_VB_DATA_ROOT", "/mnt/workshop")

	configContent := `
manifest_path: ${TEST_VB_DATA_ROOT}/visual_behavior_data_manifest.csv
nwb_base_dir: ${TEST_VB_DATA_ROOT}/nwb_files
analysis_files_base_dir: ${TEST_VB_DATA_ROOT}/analysis_files
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.ManifestPath != "/mnt/workshop/visual_behavior_data_manifest.csv" {
		t.Errorf("expected expanded manifest path, got '%s'", config.ManifestPath)
	}
	if config.NWBBaseDir != "/mnt/workshop/nwb_files" {
		t.Errorf("expected expanded nwb base dir, got '%s'", config.NWBBaseDir)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("manifest_path: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ManifestPath:         "/data/manifest.csv",
			NWBBaseDir:           "/data/nwb_files",
			AnalysisFilesBaseDir: "/data/analysis_files",
			Logging:              LoggingConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing manifest path",
			mutate:  func(c *Config) { c.ManifestPath = "" },
			wantErr: true,
		},
		{
			name:    "missing nwb base dir",
			mutate:  func(c *Config) { c.NWBBaseDir = "" },
			wantErr: true,
		},
		{
			name:    "missing analysis files base dir",
			mutate:  func(c *Config) { c.AnalysisFilesBaseDir = "" },
			wantErr: true,
		},
		{
			name:    "metadata path is optional",
			mutate:  func(c *Config) { c.AnalysisFilesMetadataPath = "" },
			wantErr: false,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "empty log level allowed",
			mutate:  func(c *Config) { c.Logging.Level = "" },
			wantErr: false,
		},
		{
			name:    "trace log level allowed",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCacheRoot(t *testing.T) {
	config := &Config{
		ManifestPath: "/data/visual_behavior/visual_behavior_data_manifest.csv",
	}
	if got := config.CacheRoot(); got != "/data/visual_behavior" {
		t.Errorf("expected manifest directory, got '%s'", got)
	}

	config.CacheDir = "/var/cache/vbcache"
	if got := config.CacheRoot(); got != "/var/cache/vbcache" {
		t.Errorf("expected explicit cache dir, got '%s'", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("VBCACHE_MANIFEST_PATH", "/override/manifest.csv")
	t.Setenv("VBCACHE_NWB_BASE_DIR", "/override/nwb_files")
	t.Setenv("VBCACHE_LOG_LEVEL", "trace")

	config := Default()
	config.ManifestPath = "/original/manifest.csv"
	applyEnvOverrides(config)

	if config.ManifestPath != "/override/manifest.csv" {
		t.Errorf("expected env override for manifest path, got '%s'", config.ManifestPath)
	}
	if config.NWBBaseDir != "/override/nwb_files" {
		t.Errorf("expected env override for nwb base dir, got '%s'", config.NWBBaseDir)
	}
	if config.Logging.Level != "trace" {
		t.Errorf("expected env override for log level, got '%s'", config.Logging.Level)
	}
}
