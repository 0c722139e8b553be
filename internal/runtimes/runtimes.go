// Copyright 2024 The rubber Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runtimes locates installed GameMaker runtimes.
//
// The runtime index (runtime.json in the GameMaker data directory) maps
// runtime ids to install paths, plus an "active" entry naming the runtime
// selected in the IDE:
//
//	{"active": "runtime-2.3.7.606", "runtime-2.3.7.606": "C:\\...\\runtime-2.3.7.606&..."}
//
// Anything after the first '&' of a path is an annotation and is dropped.
package runtimes

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// IndexFile is the name of the runtime index inside the data directory.
const IndexFile = "runtime.json"

// Latest selects the newest installed runtime when passed to Resolve.
const Latest = "latest"

var (
	ErrMissingIndex    = errors.New("runtime index not found")
	ErrCorruptIndex    = errors.New("runtime index is corrupt")
	ErrNoActiveRuntime = errors.New("no active runtime")
	ErrRuntimeNotFound = errors.New("runtime not found")
)

const activeKey = "active"

// Runtime is one entry of the runtime index.
type Runtime struct {
	ID     string
	Path   string
	Active bool
}

// Index is a parsed runtime index.
type Index struct {
	active string
	paths  map[string]string
}

// Load reads the runtime index at path.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrMissingIndex, path)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse parses the content of a runtime index.
func Parse(data []byte) (*Index, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrCorruptIndex)
	}
	idx := &Index{paths: make(map[string]string, len(raw))}
	for k, v := range raw {
		if k == activeKey {
			idx.active, _ = v.(string)
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: entry %q is not a string", ErrCorruptIndex, k)
		}
		idx.paths[k] = s
	}
	return idx, nil
}

// Active returns the id of the active runtime.
func (idx *Index) Active() (string, bool) {
	return idx.active, idx.active != ""
}

// Resolve returns the install path of runtime id. An empty id selects the
// active runtime and Latest selects the newest one.
func (idx *Index) Resolve(id string) (string, error) {
	switch id {
	case "":
		active, ok := idx.Active()
		if !ok {
			return "", ErrNoActiveRuntime
		}
		id = active
	case Latest:
		list := idx.List()
		if len(list) == 0 {
			return "", fmt.Errorf("%w: index is empty", ErrRuntimeNotFound)
		}
		return list[0].Path, nil
	}
	p, ok := idx.paths[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRuntimeNotFound, id)
	}
	return trimAnnotation(p), nil
}

// List returns every runtime of the index, newest first.
func (idx *Index) List() []Runtime {
	list := make([]Runtime, 0, len(idx.paths))
	for id, p := range idx.paths {
		list = append(list, Runtime{ID: id, Path: trimAnnotation(p), Active: id == idx.active})
	}
	slices.SortFunc(list, func(a, b Runtime) int {
		if c := compareIDs(b.ID, a.ID); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return list
}

// Resolve reads the index at indexPath and resolves id; see Index.Resolve.
// The resolved directory is not checked for existence.
func Resolve(indexPath, id string) (string, error) {
	idx, err := Load(indexPath)
	if err != nil {
		return "", err
	}
	return idx.Resolve(id)
}

// IndexPath returns the index location inside a GameMaker data directory.
func IndexPath(dataDir string) string {
	return filepath.Join(dataDir, IndexFile)
}

func trimAnnotation(p string) string {
	p, _, _ = strings.Cut(p, "&")
	return p
}

// compareIDs orders runtime ids such as "runtime-2023.4.0.113" by version.
// Ids that carry no version sort before those that do.
func compareIDs(a, b string) int {
	va, ra := version(a)
	vb, rb := version(b)
	switch {
	case va == "" && vb == "":
		return 0
	case va == "":
		return -1
	case vb == "":
		return 1
	}
	if c := semver.Compare(va, vb); c != 0 {
		return c
	}
	return ra - rb
}

// version maps "runtime-A.B.C.D" to the semver "vA.B.C" and revision D.
func version(id string) (v string, revision int) {
	s := strings.TrimPrefix(id, "runtime-")
	parts := strings.Split(s, ".")
	if len(parts) < 3 {
		return "", 0
	}
	v = "v" + strings.Join(parts[:3], ".")
	if !semver.IsValid(v) {
		return "", 0
	}
	if len(parts) > 3 {
		revision, _ = strconv.Atoi(parts[3])
	}
	return v, revision
}
