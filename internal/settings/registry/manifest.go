package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dshills/revlauncher/internal/settings"
)

// GlobalScope is the scope id addressing the global store.
const GlobalScope = -1

// ManifestEntry maps a scope id to the directory holding its settings.
type ManifestEntry struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
}

// UnmarshalJSON decodes an entry strictly. Manifests written by older
// launchers name the directory "modpack_path"; it is accepted as Path.
func (e *ManifestEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          *int   `json:"id"`
		Path        string `json:"path"`
		ModpackPath string `json:"modpack_path"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw.ID == nil {
		return errors.New("manifest entry without id")
	}

	e.ID = *raw.ID
	e.Path = raw.Path
	if e.Path == "" {
		e.Path = raw.ModpackPath
	}
	return nil
}

// validate reports why a workspace entry cannot back a scope.
func (e ManifestEntry) validate() error {
	if e.ID < 0 {
		return fmt.Errorf("scope id %d is negative", e.ID)
	}
	if e.Path == "" {
		return fmt.Errorf("scope %d has no directory", e.ID)
	}
	if !filepath.IsAbs(e.Path) {
		return fmt.Errorf("scope %d directory %q is not absolute", e.ID, e.Path)
	}
	return nil
}

// loadManifest reads the manifest, creating an empty one when missing.
func loadManifest(path string) ([]ManifestEntry, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if data == nil {
		if err := writeFile(path, []byte("[]")); err != nil {
			return nil, err
		}
		return []ManifestEntry{}, nil
	}

	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &settings.ParseError{Path: path, Err: err}
	}
	return entries, nil
}

func saveManifest(path string, entries []ManifestEntry) error {
	if entries == nil {
		entries = []ManifestEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func sortEntries(entries []ManifestEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
}
