// config.go implements discovery, parsing, and name resolution for the
// portguard configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/portguard/internal/model"
)

// candidateNames lists the recognized configuration file names in
// priority order. YAML is listed first as the primary format; the JSON
// variants exist for projects that keep tool configuration in JSONC.
var candidateNames = []string{
	"portguard.yaml",
	"portguard.yml",
	"portguard.jsonc",
	"portguard.json",
}

// File represents a parsed portguard configuration file.
type File struct {
	// Locks is the set of named lock definitions. Names and ports must
	// each be unique across the file — two names sharing a port would
	// silently contend for the same lock.
	Locks []model.LockSpec `json:"locks" yaml:"locks"`
}

// Find searches for a portguard configuration file, first in the given
// directory and then in the user's configuration directory
// (os.UserConfigDir()/portguard/). Within each directory the candidate
// file names are checked in priority order.
//
// Returns the path of the first file found, or a CLIError with
// ExitConfigNotFound if no location contains one.
func Find(dir string) (string, error) {
	searchDirs := []string{dir}

	// The user config dir is the per-user fallback for machine-wide lock
	// assignments (e.g., ~/.config/portguard/portguard.yaml on Linux).
	if userDir, err := os.UserConfigDir(); err == nil {
		searchDirs = append(searchDirs, filepath.Join(userDir, "portguard"))
	}

	for _, d := range searchDirs {
		for _, name := range candidateNames {
			path := filepath.Join(d, name)
			// os.Stat checks existence without reading contents; Load
			// handles the actual read and parse.
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", model.NewCLIError(
		model.ExitConfigNotFound,
		fmt.Sprintf("no portguard configuration found in %s or the user config directory (searched %s)",
			dir, strings.Join(candidateNames, ", ")),
	)
}

// Load reads and parses a configuration file, dispatching on the file
// extension: .yaml/.yml are parsed with yaml.v3, .json/.jsonc have their
// comments stripped with tidwall/jsonc before standard JSON parsing.
//
// The parsed lock specs are validated (name format, port range, name and
// port uniqueness) before the file is returned, so callers can trust
// every spec in the result.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitConfigNotFound,
				fmt.Sprintf("configuration file not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML configuration at %s: %w", path, err)
		}
	case ".json", ".jsonc":
		// Strip JSONC comments (// and /* */) and trailing commas before
		// parsing, so hand-maintained config files can carry annotations.
		if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
			return nil, fmt.Errorf("failed to parse JSON configuration at %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration format %q (expected .yaml, .yml, .json, or .jsonc)", filepath.Ext(path))
	}

	if err := model.ValidateLockSpecs(f.Locks); err != nil {
		return nil, fmt.Errorf("invalid configuration at %s: %w", path, err)
	}

	return &f, nil
}

// FindAndLoad combines Find and Load for the common CLI path: locate the
// configuration starting from the current working directory and parse it.
func FindAndLoad() (*File, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	path, err := Find(cwd)
	if err != nil {
		return nil, err
	}

	return Load(path)
}

// Resolve looks up a lock definition by name. Returns a CLIError with
// ExitConfigNotFound if the name is not defined, listing the known names
// to make typos easy to spot.
func (f *File) Resolve(name string) (*model.LockSpec, error) {
	for i := range f.Locks {
		if f.Locks[i].Name == name {
			return &f.Locks[i], nil
		}
	}

	known := make([]string, 0, len(f.Locks))
	for i := range f.Locks {
		known = append(known, f.Locks[i].Name)
	}

	return nil, model.NewCLIError(
		model.ExitConfigNotFound,
		fmt.Sprintf("lock %q is not defined in the configuration (known locks: %s)",
			name, strings.Join(known, ", ")),
	)
}
