// Copyright 2024 The rubber Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inherit resolves a project's inherited options file against the
// runtime's base template.
//
// An inherited file is ordinary JSON text carrying directive spans:
//
//	←<id>|{ "field": value, ... }
//
// Each span overlays its fields onto the template node whose "id" equals
// <id>. The template itself is never scanned for spans.
package inherit

import (
	"fmt"
	"os"
)

// Merge applies the directives of override to base and returns base.
// base must be a document tree as produced by Decode. On error base is left
// untouched.
func Merge(override string, base any) (any, error) {
	directives, err := ParseDirectives(override)
	if err != nil {
		return nil, err
	}
	apply(base, directives)
	return base, nil
}

// MergeJSON merges override into the JSON template base and returns the
// result with 2-space indentation.
func MergeJSON(override string, base []byte) ([]byte, error) {
	tree, err := Decode(base)
	if err != nil {
		return nil, fmt.Errorf("%w: base template: %v", ErrFormat, err)
	}
	merged, err := Merge(override, tree)
	if err != nil {
		return nil, err
	}
	return Encode(merged)
}

// MergeFile merges the override file at overridePath into the template at
// basePath and writes the result to outPath. Nothing is written on error.
func MergeFile(overridePath, basePath, outPath string) error {
	override, err := os.ReadFile(overridePath)
	if err != nil {
		return err
	}
	base, err := os.ReadFile(basePath)
	if err != nil {
		return err
	}
	out, err := MergeJSON(string(override), base)
	if err != nil {
		return fmt.Errorf("merge %s: %w", overridePath, err)
	}
	return os.WriteFile(outPath, out, 0o644)
}

// apply walks v depth-first. Children are visited before their parent is
// matched, so fields introduced by a directive are not walked.
func apply(v any, directives []Directive) {
	switch v := v.(type) {
	case *Object:
		for _, k := range v.keys {
			apply(v.vals[k], directives)
		}
		id, ok := v.ID()
		if !ok {
			return
		}
		for _, d := range directives {
			if d.ID != id {
				continue
			}
			for _, k := range d.Changes.keys {
				v.Set(k, d.Changes.vals[k])
			}
		}
	case []any:
		for _, elem := range v {
			apply(elem, directives)
		}
	}
}
