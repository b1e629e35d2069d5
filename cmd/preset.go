package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"glide/internal/params"
	"glide/internal/preset"

	"github.com/spf13/cobra"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage saved parameter presets",
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgMgr, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := openPresets(cfgMgr)
		if err != nil {
			return err
		}
		names, err := store.List()
		if err != nil {
			return err
		}

		current := cfgMgr.Get().Motion.CurrentPreset
		fmt.Printf("Presets in %s:\n", store.Dir())
		if len(names) == 0 {
			fmt.Println("  (none)")
		}
		for _, name := range names {
			marker := " "
			if name == current {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return nil
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, format, err := presetStoreAndFormat(cmd)
		if err != nil {
			return err
		}
		return store.Export(args[0], os.Stdout, format)
	},
}

var presetSaveCmd = &cobra.Command{
	Use:   "save NAME",
	Short: "Save a preset from flags, or from the last-used parameters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgMgr, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := openPresets(cfgMgr)
		if err != nil {
			return err
		}

		p := cfgMgr.Get().Motion.Params
		if cmd.Flags().Changed("x") {
			p.X, _ = cmd.Flags().GetFloat64("x")
		}
		if cmd.Flags().Changed("y") {
			p.Y, _ = cmd.Flags().GetFloat64("y")
		}
		if cmd.Flags().Changed("interval") {
			p.IntervalMs, _ = cmd.Flags().GetFloat64("interval")
		}

		name, err := store.Save(args[0], p.Clamp())
		if err != nil {
			return err
		}
		fmt.Printf("Saved preset %s (%s)\n", name, p.Clamp())
		return nil
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgMgr, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := openPresets(cfgMgr)
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted preset %s\n", preset.Sanitize(args[0]))
		return nil
	},
}

var presetExportCmd = &cobra.Command{
	Use:   "export NAME [FILE]",
	Short: "Write a preset to a file or stdout",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, format, err := presetStoreAndFormat(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			return store.Export(args[0], os.Stdout, format)
		}

		if !cmd.Flags().Changed("format") {
			format = formatFromPath(args[1], format)
		}
		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := store.Export(args[0], f, format); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

var presetImportCmd = &cobra.Command{
	Use:   "import NAME FILE",
	Short: "Read a preset from a file (or - for stdin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, format, err := presetStoreAndFormat(cmd)
		if err != nil {
			return err
		}

		var r io.Reader = os.Stdin
		if args[1] != "-" {
			if !cmd.Flags().Changed("format") {
				format = formatFromPath(args[1], format)
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		name, p, err := store.Import(args[0], r, format)
		if err != nil {
			return err
		}
		fmt.Printf("Imported preset %s (%s)\n", name, p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetListCmd, presetShowCmd, presetSaveCmd, presetDeleteCmd, presetExportCmd, presetImportCmd)

	for _, c := range []*cobra.Command{presetShowCmd, presetExportCmd, presetImportCmd} {
		c.Flags().StringP("format", "f", "json", "Document format: json or yaml")
	}

	presetSaveCmd.Flags().Float64("x", params.DefaultX, "Horizontal displacement per interval")
	presetSaveCmd.Flags().Float64("y", params.DefaultY, "Vertical displacement per interval")
	presetSaveCmd.Flags().Float64("interval", params.DefaultIntervalMs, "Interval length in milliseconds")
}

func presetStoreAndFormat(cmd *cobra.Command) (*preset.Store, preset.Format, error) {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := preset.ParseFormat(formatName)
	if err != nil {
		return nil, "", err
	}

	cfgMgr, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	store, err := openPresets(cfgMgr)
	if err != nil {
		return nil, "", err
	}
	return store, format, nil
}

// formatFromPath picks yaml for .yaml/.yml files and json for .json, falling
// back to def
func formatFromPath(path string, def preset.Format) preset.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return preset.FormatYAML
	case ".json":
		return preset.FormatJSON
	}
	return def
}
