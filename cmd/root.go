package main

import (
	"fmt"
	"log"
	"os"

	"glide/internal/config"
	"glide/internal/preset"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "glide",
	Short: "glide drifts the pointer while the arm and fire buttons are held",
	Long: `glide watches two mouse buttons and, while both are held, moves the pointer
by a fixed displacement every interval, split into evenly paced micro-steps.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file (default: per-user config dir)")
}

// loadConfig opens the configuration named by --config, or the per-user one.
// A missing or unreadable file leaves the defaults in place.
func loadConfig(cmd *cobra.Command) (*config.Manager, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfgMgr *config.Manager
	if path != "" {
		cfgMgr = config.NewManagerAt(path)
	} else {
		var err error
		cfgMgr, err = config.NewManager()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize config: %w", err)
		}
	}
	if err := cfgMgr.Load(); err != nil {
		log.Printf("Warning: failed to load config: %v", err)
	}
	return cfgMgr, nil
}

func openPresets(cfgMgr *config.Manager) (*preset.Store, error) {
	store, err := preset.NewStore(cfgMgr.PresetDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open preset directory: %w", err)
	}
	return store, nil
}
