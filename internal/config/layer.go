package config

import "github.com/dshills/revlauncher/internal/config/loader"

// Source identifies where a configuration value came from.
type Source uint8

// Sources in increasing priority.
const (
	SourceDefault Source = iota
	SourceFile
	SourceEnv
	SourceFlag
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "env"
	case SourceFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// layer is one configuration source's values.
type layer struct {
	source Source
	data   map[string]any
}

// mergeLayers merges layers in order, later layers overriding earlier ones,
// and records which layer supplied each known key.
func mergeLayers(layers []layer) (map[string]any, map[string]Source) {
	merged := make(map[string]any)
	sources := make(map[string]Source, len(Keys))
	for _, l := range layers {
		if l.data == nil {
			continue
		}
		merged = loader.DeepMerge(merged, l.data)
		for _, key := range Keys {
			if _, ok := loader.GetPath(l.data, key); ok {
				sources[key] = l.source
			}
		}
	}
	return merged, sources
}
