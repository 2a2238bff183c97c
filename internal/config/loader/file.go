package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies a configuration file syntax.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	default:
		return "", false
	}
}

// FileLoader loads configuration from a TOML, YAML or JSON file.
type FileLoader struct {
	fs   FileSystem
	path string
}

// NewFileLoader creates a loader for path on the OS file system.
func NewFileLoader(path string) *FileLoader {
	return NewFileLoaderWithFS(DefaultFS(), path)
}

// NewFileLoaderWithFS creates a loader with a custom file system.
func NewFileLoaderWithFS(fsys FileSystem, path string) *FileLoader {
	return &FileLoader{fs: fsys, path: path}
}

// Path returns the file the loader reads.
func (l *FileLoader) Path() string { return l.path }

// Load reads and parses the file. A missing file yields nil, nil.
func (l *FileLoader) Load() (map[string]any, error) {
	format, ok := FormatOf(l.path)
	if !ok {
		return nil, fmt.Errorf("unsupported config file extension: %s", l.path)
	}

	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", l.path, err)
	}
	return Parse(l.path, format, data)
}

// Parse decodes data in the given format. source names the input in errors.
func Parse(source string, format Format, data []byte) (map[string]any, error) {
	config := make(map[string]any)
	if len(bytes.TrimSpace(data)) == 0 {
		return config, nil
	}

	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &config); err != nil {
			perr := &ParseError{Path: source, Format: format, Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, perr.Column = derr.Position()
			}
			return nil, perr
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, &ParseError{Path: source, Format: format, Err: err}
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &config); err != nil {
			perr := &ParseError{Path: source, Format: format, Err: err}
			var serr *json.SyntaxError
			if errors.As(err, &serr) {
				perr.Line, perr.Column = position(data, serr.Offset)
			}
			return nil, perr
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	return config, nil
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, column int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	prefix := data[:offset]
	line = bytes.Count(prefix, []byte("\n")) + 1
	column = int(offset) - bytes.LastIndexByte(prefix, '\n')
	return line, column
}

// FirstExisting returns a loader for the first of paths that exists on
// fsys, or nil when none does.
func FirstExisting(fsys FileSystem, paths ...string) *FileLoader {
	for _, p := range paths {
		if _, err := fsys.Stat(p); err == nil {
			return NewFileLoaderWithFS(fsys, p)
		}
	}
	return nil
}
