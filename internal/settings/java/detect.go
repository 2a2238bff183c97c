package java

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dshills/revlauncher/internal/settings"
	"github.com/dshills/revlauncher/internal/version"
)

// DefaultCommand is the executable looked up on PATH during first-run
// detection.
const DefaultCommand = "java"

// LegacyFileName is the standalone versions file older launchers kept in the
// configuration directory.
const LegacyFileName = "java_versions.json"

// DefaultProbeTimeout bounds a single `java -version` invocation.
const DefaultProbeTimeout = 5 * time.Second

// Detector finds Java installations and reports their versions.
// The zero value uses DefaultCommand, DefaultProbeTimeout and the real
// operating system.
type Detector struct {
	// Command is the executable name searched on PATH.
	Command string

	// Timeout bounds each version probe.
	Timeout time.Duration

	// LookPath resolves Command. Defaults to exec.LookPath.
	LookPath func(file string) (string, error)

	// Run executes `<path> -version` and returns its combined banner.
	// Defaults to running the binary.
	Run func(ctx context.Context, path string) (string, error)

	// LegacyFile, when set, is imported on first run instead of probing
	// PATH if the file exists.
	LegacyFile string
}

// Detect returns the installation found on PATH. It reports false when no
// usable java command exists; probing failures are not errors.
func (d *Detector) Detect() (Installation, bool) {
	lookPath := d.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	command := d.Command
	if command == "" {
		command = DefaultCommand
	}

	path, err := lookPath(command)
	if err != nil {
		return Installation{}, false
	}

	v, err := d.Probe(path)
	if err != nil {
		return Installation{}, false
	}
	return Installation{Path: path, Version: v}, true
}

// Probe runs the binary at path and parses the first line of its version
// banner.
func (d *Detector) Probe(path string) (version.Version, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	run := d.Run
	if run == nil {
		run = runVersion
	}

	out, err := run(ctx, path)
	if err != nil {
		return version.Version{}, &settings.IOError{Op: "probe", Path: path, Err: err}
	}

	line := firstLine(out)
	if line == "" {
		return version.Version{}, &settings.IOError{Op: "probe", Path: path, Err: errNoOutput}
	}
	return version.Parse(line, '"')
}

var errNoOutput = errors.New("no output from -version")

// readLegacy returns the legacy versions file, or nil when none is configured
// or it does not exist.
func (d *Detector) readLegacy() ([]byte, error) {
	if d.LegacyFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(d.LegacyFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &settings.IOError{Op: "read", Path: d.LegacyFile, Err: err}
	}
	return data, nil
}

// runVersion executes `java -version`, which prints to stderr.
func runVersion(ctx context.Context, path string) (string, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-version")
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stderr.String(), nil
}

func firstLine(s string) string {
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	return ""
}
