// Package project locates GameMaker projects and reads their identity.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Ext is the project file extension.
const Ext = ".yyp"

var (
	ErrInvalid = errors.New("project invalid, or in a newer format")
	ErrNoGUID  = errors.New("project has no game GUID")
)

// Identity names a project file. It is derived once and never changes.
type Identity struct {
	// File is the absolute path of the .yyp file.
	File string
	// Dir is the directory holding File.
	Dir string
	// Name is the base name of File without its extension.
	Name string
}

// New derives the identity of the project file at path.
func New(path string) (Identity, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Identity{}, err
	}
	base := filepath.Base(abs)
	return Identity{
		File: abs,
		Dir:  filepath.Dir(abs),
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
	}, nil
}

// Find resolves path to a valid project file. A directory is searched for
// the first valid project file it directly contains.
func Find(path string) (Identity, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Identity{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return Identity{}, fmt.Errorf("project does not exist at %s: %w", abs, err)
	}
	if fi.IsDir() {
		entries, err := os.ReadDir(abs)
		if err != nil {
			return Identity{}, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if p := filepath.Join(abs, e.Name()); Valid(p) {
				return New(p)
			}
		}
		return Identity{}, fmt.Errorf("%w: no project file in %s", ErrInvalid, abs)
	}
	if !Valid(abs) {
		return Identity{}, fmt.Errorf("%w: %s", ErrInvalid, abs)
	}
	return New(abs)
}

// Valid performs basic checks that the file at path is a project file.
func Valid(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]json.RawMessage
	if json.Unmarshal(data, &doc) != nil {
		return false
	}
	for _, key := range []string{"IsDnDProject", "id", "mvc", "resources"} {
		if _, ok := doc[key]; !ok {
			return false
		}
	}
	var model string
	return json.Unmarshal(doc["modelName"], &model) == nil && model == "GMProject"
}

// OptionsFile returns the project's inherited main options file.
func (p Identity) OptionsFile() string {
	return filepath.Join(p.Dir, "options", "main", "inherited", "options_main.inherited.yy")
}

var guidRE = regexp.MustCompile(`"option_gameguid": "(.*?)"`)

// GUID returns the game GUID recorded in the project's main options.
func (p Identity) GUID() (string, error) {
	data, err := os.ReadFile(p.OptionsFile())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: missing %s, the project may be partial", ErrNoGUID, filepath.Base(p.OptionsFile()))
		}
		return "", err
	}
	m := guidRE.FindSubmatch(data)
	if m == nil {
		return "", fmt.Errorf("%w: %s has no option_gameguid", ErrNoGUID, p.OptionsFile())
	}
	return string(m[1]), nil
}
