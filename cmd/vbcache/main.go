package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Laura-lc/AllenSDK/internal/cache"
	"github.com/Laura-lc/AllenSDK/internal/config"
	"github.com/Laura-lc/AllenSDK/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "vbcache",
		Short: "Visual behavior dataset cache",
		Long: `vbcache locates and curates the visual behavior ophys dataset.

It imports the experiment manifest into a local catalog, builds per-session
file paths, and serves the curated session tables: trials reconciled against
the stimulus clock, stimulus presentations, licks, rewards, and the
precomputed response tables.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (YAML or cache-paths JSON)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newManifestCmd(),
		newContainersCmd(),
		newInfoCmd(),
		newPathsCmd(),
		newSessionCmd(),
		newExportCmd(),
		newValidateCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "vbcache version %s\n", version)
			}
		},
	}
}

// loadConfig resolves the effective configuration: the --config file when
// given, otherwise the default locations plus VBCACHE_* environment
// variables.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// openCache builds the project cache for a command invocation. The caller
// closes it.
func openCache(cmd *cobra.Command) (*cache.ProjectCache, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
	return cache.New(cfg, logger)
}
