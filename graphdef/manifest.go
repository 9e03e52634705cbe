/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package graphdef

import (
	"os"
	"path/filepath"

	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/value"
)

// Schema is the validation interface the core consumes: a
// validate(&Value) -> Result<()> contract. Concrete schema validation is
// out of scope.
type Schema interface {
	Validate(v *value.Value) error
}

// APIMessageSpec names one declared message in a manifest's `api` section,
// by direction (in/out), with an optional property schema.
type APIMessageSpec struct {
	Name     string `json:"name"`
	Property any    `json:"property,omitempty"`
}

// API is the manifest's declared message schemas by direction.
type API struct {
	CmdIn         []APIMessageSpec `json:"cmd_in,omitempty"`
	CmdOut        []APIMessageSpec `json:"cmd_out,omitempty"`
	DataIn        []APIMessageSpec `json:"data_in,omitempty"`
	DataOut       []APIMessageSpec `json:"data_out,omitempty"`
	AudioFrameIn  []APIMessageSpec `json:"audio_frame_in,omitempty"`
	AudioFrameOut []APIMessageSpec `json:"audio_frame_out,omitempty"`
	VideoFrameIn  []APIMessageSpec `json:"video_frame_in,omitempty"`
	VideoFrameOut []APIMessageSpec `json:"video_frame_out,omitempty"`
}

// Manifest is an addon's `manifest.json`: identity plus declared api,
// merged with graph connections during routing-table resolution.
type Manifest struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Version string `json:"version"`
	API     API    `json:"api"`
}

// LoadManifest reads and parses manifest.json from dir, validating it
// against schema if non-nil.
func LoadManifest(dir string, schema Schema) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, newInvalidManifest("manifest.json: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, newInvalidManifest("manifest.json: %v", err)
	}
	if m.Type == "" || m.Name == "" {
		return nil, newInvalidManifest("manifest.json in %s: missing type/name", dir)
	}
	if schema != nil {
		v, err := value.FromJSON(data)
		if err != nil {
			return nil, newInvalidManifest("manifest.json in %s: %v", dir, err)
		}
		if err := schema.Validate(v); err != nil {
			return nil, newInvalidManifest("manifest.json in %s: schema: %v", dir, err)
		}
	}
	return &m, nil
}

// LoadProperty reads the optional property.json (an addon's default
// property tree); a missing file is not an error — addons need not ship
// one.
func LoadProperty(dir string, schema Schema) (*value.Value, error) {
	path := filepath.Join(dir, "property.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return value.NewObject(), nil
	}
	if err != nil {
		return nil, newInvalidManifest("property.json: %v", err)
	}
	v, err := value.FromJSON(data)
	if err != nil {
		return nil, newInvalidManifest("property.json: %v", err)
	}
	if schema != nil {
		if err := schema.Validate(v); err != nil {
			return nil, newInvalidManifest("property.json in %s: schema: %v", dir, err)
		}
	}
	return v, nil
}

// FindManifestDir walks up from startPath looking for a directory whose
// manifest.json declares the given type+name: manifests are located by
// walking parent directories from the addon's loaded module path until a
// matching type+name is found.
func FindManifestDir(startPath, addonType, addonName string) (string, error) {
	dir := startPath
	for {
		candidate := filepath.Join(dir, "manifest.json")
		if data, err := os.ReadFile(candidate); err == nil {
			var m Manifest
			if json.Unmarshal(data, &m) == nil && m.Type == addonType && m.Name == addonName {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", newInvalidManifest("no manifest.json found for %s %q above %s", addonType, addonName, startPath)
		}
		dir = parent
	}
}

func newInvalidManifest(format string, a ...any) error {
	return cmn.NewError(cmn.InvalidManifest, format, a...)
}
