package autostart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePlist(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, writePlist(&sb, "/Applications/glide"))

	out := sb.String()
	assert.Contains(t, out, "<string>com.glide.agent</string>")
	assert.Contains(t, out, "<string>/Applications/glide</string>")
	assert.Contains(t, out, "<string>run</string>")
}

func TestRunCommandQuotesPath(t *testing.T) {
	assert.Equal(t, `"C:\Program Files\glide.exe" run`, runCommand(`C:\Program Files\glide.exe`))
}
