package preset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glide/internal/params"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  rifle one  ", "rifle one"},
		{"a\t\tb", "a b"},
		{"../../etc/passwd", "etcpasswd"},
		{"a ! b", "a b"},
		{"!!!", "config"},
		{"", "config"},
		{"under_score-dash", "under_score-dash"},
		{strings.Repeat("x", 80), strings.Repeat("x", 60)},
	}

	for _, tt := range tests {
		got := Sanitize(tt.in)
		assert.Equal(t, tt.want, got, "Sanitize(%q)", tt.in)
		assert.Equal(t, got, Sanitize(got), "Sanitize not idempotent for %q", tt.in)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "presets"))
	require.NoError(t, err)
	return s
}

func TestStoreSaveLoadDelete(t *testing.T) {
	s := newTestStore(t)

	name, err := s.Save("Rifle/1", params.Params{X: 1.5, Y: -42, IntervalMs: 90})
	require.NoError(t, err)
	assert.Equal(t, "Rifle1", name)
	assert.True(t, s.Exists("Rifle1"))

	p, err := s.Load("Rifle1")
	require.NoError(t, err)
	assert.Equal(t, params.Params{X: 1.5, Y: -42, IntervalMs: 90}, p)

	require.NoError(t, s.Delete("Rifle1"))
	assert.False(t, s.Exists("Rifle1"))
	assert.NoError(t, s.Delete("Rifle1"))

	_, err = s.Load("Rifle1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStoreLoadDefaultsMissingKeys(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "partial.json"), []byte(`{"x": 4}`), 0644))

	p, err := s.Load("partial")
	require.NoError(t, err)
	assert.Equal(t, params.Params{X: 4, Y: params.DefaultY, IntervalMs: params.DefaultIntervalMs}, p)
}

func TestStoreLoadInvalidJSON(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "broken.json"), []byte(`{`), 0644))

	_, err := s.Load("broken")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestStoreListSorted(t *testing.T) {
	s := newTestStore(t)
	for _, n := range []string{"beta", "Alpha", "gamma"} {
		_, err := s.Save(n, params.Default())
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0644))

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "beta", "gamma"}, names)
}

func TestExportImport(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			s := newTestStore(t)
			_, err := s.Save("src", params.Params{X: -3, Y: -60, IntervalMs: 150})
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, s.Export("src", &buf, format))

			name, p, err := s.Import("copy of src", &buf, format)
			require.NoError(t, err)
			assert.Equal(t, "copy of src", name)
			assert.Equal(t, params.Params{X: -3, Y: -60, IntervalMs: 150}, p)
		})
	}
}

func TestDecodeYAMLDefaultsAndClamps(t *testing.T) {
	p, err := Decode(strings.NewReader("y: -900\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, params.Params{X: 0, Y: -200, IntervalMs: params.DefaultIntervalMs}, p)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("toml")
	assert.Error(t, err)
}
