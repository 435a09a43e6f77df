// Package config implements .tskit.yaml configuration file support.
//
// When a .tskit.yaml file exists in the project root, tskit uses its
// catalog list as is. Otherwise catalogs are discovered from *.ts file
// names. Environment variables override logging and strictness either way.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .tskit.yaml structure.
type File struct {
	// SourceLang is the language of the source strings (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// Strict logs every lookup that falls back to the source text.
	Strict bool `yaml:"strict,omitempty" env:"TSKIT_STRICT"`
	// Log configures diagnostics output.
	Log Log `yaml:"log,omitempty"`
	// Catalogs is the list of .ts files tskit works on.
	Catalogs []Catalog `yaml:"catalogs"`
}

// Log holds logging options.
type Log struct {
	// Level is a zerolog level name: trace, debug, info, warn, error.
	Level string `yaml:"level,omitempty" env:"TSKIT_LOG_LEVEL"`
	// Format is "console" or "json".
	Format string `yaml:"format,omitempty" env:"TSKIT_LOG_FORMAT"`
}

// Catalog describes one translation file.
type Catalog struct {
	// Name is a label shown in status output (default: file name prefix).
	Name string `yaml:"name,omitempty"`
	// Path is relative to .tskit.yaml.
	Path string `yaml:"path"`
	// Language overrides the language derived from the file name.
	Language string `yaml:"language,omitempty"`
}

const (
	// FileName is the config file name looked up in the project root.
	FileName = ".tskit.yaml"

	DefaultSourceLang = "en"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "console"
)

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "disabled": true,
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// LoadFile loads and validates .tskit.yaml from the given directory.
// Returns nil if no .tskit.yaml exists.
func LoadFile(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.setDefaults()

	for i := range f.Catalogs {
		c := &f.Catalogs[i]
		if c.Path == "" {
			return nil, fmt.Errorf("%s: catalog #%d has no path", path, i+1)
		}
		if filepath.Ext(c.Path) != ".ts" {
			return nil, fmt.Errorf("%s: catalog %q is not a .ts file", path, c.Path)
		}
		name, lang := SplitName(c.Path)
		if c.Name == "" {
			c.Name = name
		}
		if c.Language == "" {
			c.Language = lang
		}
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

// Load returns the project configuration for rootDir: .tskit.yaml when
// present, detected catalogs otherwise, with environment overrides applied.
func Load(rootDir string) (*File, error) {
	f, err := LoadFile(rootDir)
	if err != nil {
		return nil, err
	}
	if f == nil {
		f = &File{Catalogs: Detect(rootDir)}
		f.setDefaults()
	}
	if err := ApplyEnv(f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// ApplyEnv overrides fields from TSKIT_* environment variables. Unset
// variables leave the current values alone.
func ApplyEnv(f *File) error {
	if err := env.Parse(f); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	f.Log.Level = strings.ToLower(f.Log.Level)
	f.Log.Format = strings.ToLower(f.Log.Format)
	return nil
}

// Validate checks logging options.
func (f *File) Validate() error {
	if !logLevels[f.Log.Level] {
		return fmt.Errorf("unknown log level %q", f.Log.Level)
	}
	if f.Log.Format != "console" && f.Log.Format != "json" {
		return fmt.Errorf("unknown log format %q (valid: console, json)", f.Log.Format)
	}
	return nil
}

func (f *File) setDefaults() {
	f.Log.Level = strings.ToLower(f.Log.Level)
	f.Log.Format = strings.ToLower(f.Log.Format)
	if f.SourceLang == "" {
		f.SourceLang = DefaultSourceLang
	}
	if f.Log.Level == "" {
		f.Log.Level = DefaultLogLevel
	}
	if f.Log.Format == "" {
		f.Log.Format = DefaultLogFormat
	}
}

// Paths returns the absolute paths of all catalogs.
func (f *File) Paths(rootDir string) ([]string, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(f.Catalogs))
	for _, c := range f.Catalogs {
		if filepath.IsAbs(c.Path) {
			paths = append(paths, c.Path)
			continue
		}
		paths = append(paths, filepath.Join(absRoot, c.Path))
	}
	return paths, nil
}
