// Package config provides unified configuration loading for vbcache.
// It supports loading from YAML files, JSON cache-paths documents, and
// environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config locates the dataset on disk and configures vbcache behavior.
//
// The path fields mirror the cache-paths document that ships with the
// dataset, so a JSON file with manifest_path / nwb_base_dir /
// analysis_files_base_dir / analysis_files_metadata_path keys loads directly.
type Config struct {
	// ManifestPath is the full path to the project manifest CSV file.
	ManifestPath string `json:"manifest_path" yaml:"manifest_path"`

	// NWBBaseDir is the directory containing the session NWB files.
	NWBBaseDir string `json:"nwb_base_dir" yaml:"nwb_base_dir"`

	// AnalysisFilesBaseDir is the directory containing the precomputed trial
	// response, flash response, and extended stimulus presentation files.
	AnalysisFilesBaseDir string `json:"analysis_files_base_dir" yaml:"analysis_files_base_dir"`

	// AnalysisFilesMetadataPath is the full path to the JSON document
	// describing how the analysis files were created. Optional: without it
	// the cache works but reports no analysis provenance.
	AnalysisFilesMetadataPath string `json:"analysis_files_metadata_path,omitempty" yaml:"analysis_files_metadata_path,omitempty"`

	// CacheDir is where vbcache keeps its own state (the .vbcache directory
	// holding the catalog database and load traces). Defaults to the
	// manifest's directory.
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`

	// Logging contains settings for operational and load logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// LoggingConfig configures vbcache's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables load logging to .vbcache/loads.jsonl.
	// "trace" additionally includes per-row reconciliation detail.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults. The dataset paths start
// empty and must come from a config file, a cache-paths document, or
// environment variables.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.vbcache/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	// Try to load from default config file
	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".vbcache", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a YAML config file or a JSON
// cache-paths document (selected by the .json extension).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Expand ${VAR} references in dataset paths
	config.ManifestPath = expandEnvVars(config.ManifestPath)
	config.NWBBaseDir = expandEnvVars(config.NWBBaseDir)
	config.AnalysisFilesBaseDir = expandEnvVars(config.AnalysisFilesBaseDir)
	config.AnalysisFilesMetadataPath = expandEnvVars(config.AnalysisFilesMetadataPath)
	config.CacheDir = expandEnvVars(config.CacheDir)

	return config, nil
}

// CacheRoot returns the directory under which the .vbcache state directory
// lives: CacheDir when set, otherwise the manifest's directory.
func (c *Config) CacheRoot() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	return filepath.Dir(c.ManifestPath)
}

// Validate checks that the configuration is complete enough to open the
// cache. The analysis metadata path is optional.
func (c *Config) Validate() error {
	if c.ManifestPath == "" {
		return fmt.Errorf("manifest_path is required")
	}
	if c.NWBBaseDir == "" {
		return fmt.Errorf("nwb_base_dir is required")
	}
	if c.AnalysisFilesBaseDir == "" {
		return fmt.Errorf("analysis_files_base_dir is required")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("VBCACHE_MANIFEST_PATH"); v != "" {
		config.ManifestPath = v
	}

	if v := os.Getenv("VBCACHE_NWB_BASE_DIR"); v != "" {
		config.NWBBaseDir = v
	}

	if v := os.Getenv("VBCACHE_ANALYSIS_FILES_BASE_DIR"); v != "" {
		config.AnalysisFilesBaseDir = v
	}

	if v := os.Getenv("VBCACHE_ANALYSIS_FILES_METADATA_PATH"); v != "" {
		config.AnalysisFilesMetadataPath = v
	}

	if v := os.Getenv("VBCACHE_CACHE_DIR"); v != "" {
		config.CacheDir = v
	}

	if v := os.Getenv("VBCACHE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
