// Package java implements the "java" setting item: the list of known Java
// installations and which one is selected for launching.
package java

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dshills/revlauncher/internal/settings"
	"github.com/dshills/revlauncher/internal/version"
)

// Name is the item name used in settings files.
const Name = "java"

// Installation is one Java runtime on disk.
type Installation struct {
	Path    string          `json:"path"`
	Version version.Version `json:"version"`
}

// Versions is the set of known Java installations.
type Versions struct {
	Installations []Installation
	Selected      int

	detector *Detector
}

type persisted struct {
	Versions []Installation `json:"versions"`
	Select   int            `json:"select"`
}

// Read decodes a persisted Versions value, or detects the Java on PATH when
// persisted is nil. It uses a zero Detector.
func Read(data json.RawMessage) (*Versions, error) {
	return (&Detector{}).Read(data)
}

// Read decodes a persisted Versions value. When data is nil it imports the
// legacy versions file if d names one that exists, and otherwise detects the
// Java on PATH. Installations registered later through Apply are probed with d.
func (d *Detector) Read(data json.RawMessage) (*Versions, error) {
	if data == nil {
		legacy, err := d.readLegacy()
		if err != nil {
			return nil, err
		}
		if legacy != nil {
			return d.decode(legacy, d.LegacyFile)
		}

		v := &Versions{detector: d}
		if inst, ok := d.Detect(); ok {
			v.Installations = append(v.Installations, inst)
		}
		return v, nil
	}
	return d.decode(data, "")
}

func (d *Detector) decode(data []byte, path string) (*Versions, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var p persisted
	if err := dec.Decode(&p); err != nil {
		return nil, &settings.ParseError{Path: path, Item: Name, Err: err}
	}
	if p.Select < 0 || (p.Select > 0 && p.Select >= len(p.Versions)) {
		return nil, &settings.ParseError{
			Path:    path,
			Item:    Name,
			Message: fmt.Sprintf("select %d out of range for %d versions", p.Select, len(p.Versions)),
		}
	}
	return &Versions{Installations: p.Versions, Selected: p.Select, detector: d}, nil
}

// Write implements settings.Item.
func (v *Versions) Write() (json.RawMessage, error) {
	p := persisted{Versions: v.Installations, Select: v.Selected}
	if p.Versions == nil {
		p.Versions = []Installation{}
	}
	return json.Marshal(p)
}

// Project implements settings.Item. The projected form equals the persisted
// form.
func (v *Versions) Project() (json.RawMessage, error) {
	return v.Write()
}

// Apply implements settings.Item.
//
//	[path]                     register path, probing its version
//	["add", path]              same as above
//	["add", path, version]     register path with an explicit version
//	["remove", path]           forget path
//	["select", index-or-path]  choose the installation used for launching
func (v *Versions) Apply(values []string) error {
	switch len(values) {
	case 1:
		return v.add(values[0], "")
	case 2, 3:
		switch values[0] {
		case "add":
			if len(values) == 3 {
				return v.add(values[1], values[2])
			}
			return v.add(values[1], "")
		case "remove":
			if len(values) == 2 {
				return v.remove(values[1])
			}
		case "select":
			if len(values) == 2 {
				return v.selectInstallation(values[1])
			}
		}
	}
	return settings.Unsupported(Name, values)
}

// Selection returns the installation used for launching.
func (v *Versions) Selection() (Installation, bool) {
	if v.Selected < 0 || v.Selected >= len(v.Installations) {
		return Installation{}, false
	}
	return v.Installations[v.Selected], true
}

func (v *Versions) add(path, raw string) error {
	if path == "" {
		return &settings.ParseError{Item: Name, Message: "empty path"}
	}

	var (
		ver version.Version
		err error
	)
	if raw != "" {
		ver, err = version.Parse(raw, '"')
	} else {
		ver, err = v.probe(path)
	}
	if err != nil {
		var perr *version.ParseError
		if errors.As(err, &perr) {
			return &settings.ParseError{Item: Name, Err: err}
		}
		return err
	}

	inst := Installation{Path: path, Version: ver}
	if i := v.indexOf(path); i >= 0 {
		v.Installations[i] = inst
		return nil
	}
	v.Installations = append(v.Installations, inst)
	return nil
}

func (v *Versions) remove(path string) error {
	i := v.indexOf(path)
	if i < 0 {
		return settings.NotFound(path)
	}

	v.Installations = append(v.Installations[:i], v.Installations[i+1:]...)
	switch {
	case v.Selected > i:
		v.Selected--
	case v.Selected >= len(v.Installations):
		v.Selected = max(len(v.Installations)-1, 0)
	}
	return nil
}

func (v *Versions) selectInstallation(ref string) error {
	if i := v.indexOf(ref); i >= 0 {
		v.Selected = i
		return nil
	}
	i, err := strconv.Atoi(ref)
	if err != nil || i < 0 || i >= len(v.Installations) {
		return settings.NotFound(ref)
	}
	v.Selected = i
	return nil
}

func (v *Versions) indexOf(path string) int {
	for i, inst := range v.Installations {
		if inst.Path == path {
			return i
		}
	}
	return -1
}

func (v *Versions) probe(path string) (version.Version, error) {
	d := v.detector
	if d == nil {
		d = &Detector{}
	}
	return d.Probe(path)
}
