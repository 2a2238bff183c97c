package registry

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tidwall/pretty"

	"github.com/dshills/revlauncher/internal/settings"
)

// File names inside the configuration directory and scope directories.
const (
	GlobalFileName   = "setting.json"
	ManifestFileName = "id_setting.json"
	ScopeDirName     = "rev"
	ScopeFileName    = "settings.json"
)

// GlobalFile returns the global settings file inside configDir.
func GlobalFile(configDir string) string {
	return filepath.Join(configDir, GlobalFileName)
}

// ManifestFile returns the scope manifest inside configDir.
func ManifestFile(configDir string) string {
	return filepath.Join(configDir, ManifestFileName)
}

// ScopeFile returns the settings file of the scope rooted at dir.
func ScopeFile(dir string) string {
	return filepath.Join(dir, ScopeDirName, ScopeFileName)
}

// readFile returns the file contents, or nil without error when the file
// does not exist.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &settings.IOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// writeFile pretty-prints data and replaces path atomically using a
// temp file + rename.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &settings.IOError{Op: "mkdir", Path: dir, Err: err}
	}

	tempPath := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tempPath, pretty.Pretty(data), 0o644); err != nil {
		os.Remove(tempPath)
		return &settings.IOError{Op: "write", Path: tempPath, Err: err}
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return &settings.IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
