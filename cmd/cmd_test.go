package main

import (
	"testing"

	"glide/internal/preset"

	"github.com/stretchr/testify/assert"
)

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, preset.FormatYAML, formatFromPath("smg.yaml", preset.FormatJSON))
	assert.Equal(t, preset.FormatYAML, formatFromPath("SMG.YML", preset.FormatJSON))
	assert.Equal(t, preset.FormatJSON, formatFromPath("smg.json", preset.FormatYAML))
	assert.Equal(t, preset.FormatYAML, formatFromPath("smg.txt", preset.FormatYAML))
}

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "Status: off", statusLine(false, "idle"))
	assert.Equal(t, "Status: firing", statusLine(true, "firing"))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"run"},
		{"simulate"},
		{"version"},
		{"preset", "list"},
		{"preset", "import"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if assert.NoError(t, err, path) {
			assert.Equal(t, path[len(path)-1], cmd.Name())
		}
	}

	f := rootCmd.Flags().Lookup("no-tray")
	assert.NotNil(t, f, "root accepts run flags")
}
