package build

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goplus/rubber/internal/ctxlog"
	"github.com/goplus/rubber/internal/env"
	"github.com/goplus/rubber/internal/project"
)

// Build root layout:
//
//	<temp>/gamemaker-rubber/
//	  <guid>/                  # one project
//	    <session-id>/          # session dir, owned by one session
//	      .rubber.json         # session record, only when the cache is kept
//	      macros.json
//	      build.bff
//	      targetoptions.json
//	      GMCache/
//	      GMTemp/
//	      Output/
const recordFile = ".rubber.json"

// Record describes a retained build session.
type Record struct {
	ID          string    `json:"id"`
	Project     string    `json:"project"`
	Runtime     string    `json:"runtime"`
	Compiler    string    `json:"compiler"`
	Args        []string  `json:"args"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
	ExitCode    int       `json:"exit_code"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
}

// LoadRecord reads the session record in dir.
func LoadRecord(dir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, recordFile))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func saveRecord(dir string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, recordFile), data, 0o644)
}

// Retained lists the records of the sessions kept under the build root.
// Session dirs without a record are skipped.
func Retained(e *env.Env) ([]*Record, error) {
	projects, err := subdirs(e.BuildRoot())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var recs []*Record
	for _, p := range projects {
		sessions, err := subdirs(p)
		if err != nil {
			return nil, err
		}
		for _, dir := range sessions {
			rec, err := LoadRecord(dir)
			if err != nil {
				continue
			}
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(dir, entry.Name()))
		}
	}
	return dirs, nil
}

// ClearCache removes every session dir of p, retained or not.
func (b *Builder) ClearCache(ctx context.Context, p project.Identity) error {
	e, err := env.Load(b.lookup)
	if err != nil {
		return err
	}
	guid, err := p.GUID()
	if err != nil {
		return err
	}
	dir := e.ProjectDir(guid)
	ctxlog.FromContext(ctx).Debug("clearing cache", "project", p.Name, "dir", dir)
	return os.RemoveAll(dir)
}
