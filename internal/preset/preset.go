// Package preset stores named motion parameter sets as JSON documents.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"glide/internal/params"

	"gopkg.in/yaml.v3"
)

// maxNameLen is the longest sanitized preset name
const maxNameLen = 60

// fallbackName is used when sanitizing leaves nothing
const fallbackName = "config"

// ErrNotFound is returned when a preset does not exist
var ErrNotFound = errors.New("preset not found")

// Format selects the export/import encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user-supplied string to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown preset format %q", s)
	}
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[^A-Za-z0-9 _-]`)
)

// Sanitize turns a user-supplied name into a safe file stem. It is idempotent.
func Sanitize(name string) string {
	safe := unsafeChars.ReplaceAllString(name, "")
	safe = strings.TrimSpace(whitespaceRun.ReplaceAllString(safe, " "))
	if len(safe) > maxNameLen {
		safe = strings.TrimSpace(safe[:maxNameLen])
	}
	if safe == "" {
		return fallbackName
	}
	return safe
}

// document is the on-disk shape. Pointer fields let Load tell a missing key
// from an explicit zero.
type document struct {
	X          *float64 `json:"x" yaml:"x"`
	Y          *float64 `json:"y" yaml:"y"`
	IntervalMs *float64 `json:"interval_ms" yaml:"interval_ms"`
}

func (d document) params() params.Params {
	p := params.Default()
	if d.X != nil {
		p.X = *d.X
	}
	if d.Y != nil {
		p.Y = *d.Y
	}
	if d.IntervalMs != nil {
		p.IntervalMs = *d.IntervalMs
	}
	return p.Clamp()
}

func newDocument(p params.Params) document {
	return document{X: &p.X, Y: &p.Y, IntervalMs: &p.IntervalMs}
}

// Store manages presets in one directory
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create preset dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the preset directory
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, Sanitize(name)+".json")
}

// List returns preset names sorted case-insensitively
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

// Exists reports whether a preset with this name is stored
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Save writes p under the sanitized name and returns that name
func (s *Store) Save(name string, p params.Params) (string, error) {
	data, err := json.MarshalIndent(newDocument(p.Clamp()), "", "  ")
	if err != nil {
		return "", err
	}
	safe := Sanitize(name)
	if err := os.WriteFile(s.path(safe), data, 0644); err != nil {
		return "", fmt.Errorf("save preset %q: %w", safe, err)
	}
	return safe, nil
}

// Load reads a preset. Missing keys take their defaults.
func (s *Store) Load(name string) (params.Params, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return params.Params{}, fmt.Errorf("%w: %s", ErrNotFound, Sanitize(name))
	}
	if err != nil {
		return params.Params{}, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return params.Params{}, fmt.Errorf("parse preset %q: %w", Sanitize(name), err)
	}
	return doc.params(), nil
}

// Delete removes a preset. Deleting a missing preset is not an error.
func (s *Store) Delete(name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Export writes a stored preset to w
func (s *Store) Export(name string, w io.Writer, format Format) error {
	p, err := s.Load(name)
	if err != nil {
		return err
	}
	return Encode(w, p, format)
}

// Import decodes a preset from r and saves it under name
func (s *Store) Import(name string, r io.Reader, format Format) (string, params.Params, error) {
	p, err := Decode(r, format)
	if err != nil {
		return "", params.Params{}, err
	}
	safe, err := s.Save(name, p)
	return safe, p, err
}

// Encode writes p in the given format
func Encode(w io.Writer, p params.Params, format Format) error {
	doc := newDocument(p)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
}

// Decode reads parameters in the given format, defaulting missing keys
func Decode(r io.Reader, format Format) (params.Params, error) {
	var doc document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	default:
		err = json.NewDecoder(r).Decode(&doc)
	}
	if err != nil {
		return params.Params{}, fmt.Errorf("decode preset: %w", err)
	}
	return doc.params(), nil
}
