// Package env captures the process environment a build depends on.
//
// Every build needs a writable temp directory, the user's roaming app-data
// directory and the OS user name. Their absence is a fatal precondition:
// Load reports which binding is missing instead of guessing a default.
package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissing is matched by every MissingError.
var ErrMissing = errors.New("missing environment")

// MissingError reports a required environment binding that is not set.
type MissingError struct {
	// Name describes the binding, e.g. "temp directory".
	Name string
	// Vars lists the variables that were consulted, in order.
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s is missing from the environment (set %s)", e.Name, strings.Join(e.Vars, " or "))
}

func (e *MissingError) Is(target error) bool {
	return target == ErrMissing
}

// Env holds the resolved environment of one rubber process.
type Env struct {
	TempDir  string
	AppData  string
	UserName string

	// Well-known Windows folders. These are only used to fill in macro
	// literals and default install locations, so they fall back to the
	// stock Windows paths.
	ProgramData           string
	ProgramFiles          string
	ProgramFilesX86       string
	CommonProgramFiles    string
	CommonProgramFilesX86 string
}

// Lookup is the signature of os.LookupEnv.
type Lookup func(key string) (string, bool)

var (
	tempVars    = []string{"TEMP", "TMP", "TMPDIR"}
	appDataVars = []string{"APPDATA", "XDG_CONFIG_HOME"}
	userVars    = []string{"USERNAME", "USER"}
)

// Load resolves the environment using lookup.
func Load(lookup Lookup) (*Env, error) {
	first := func(name string, vars []string) (string, error) {
		for _, v := range vars {
			if val, ok := lookup(v); ok && val != "" {
				return val, nil
			}
		}
		return "", &MissingError{Name: name, Vars: vars}
	}
	optional := func(key, def string) string {
		if val, ok := lookup(key); ok && val != "" {
			return val
		}
		return def
	}

	tempDir, err := first("temp directory", tempVars)
	if err != nil {
		return nil, err
	}
	appData, err := first("app-data directory", appDataVars)
	if err != nil {
		return nil, err
	}
	userName, err := first("user name", userVars)
	if err != nil {
		return nil, err
	}

	return &Env{
		TempDir:               tempDir,
		AppData:               appData,
		UserName:              userName,
		ProgramData:           optional("ProgramData", `C:\ProgramData`),
		ProgramFiles:          optional("ProgramFiles", `C:\Program Files`),
		ProgramFilesX86:       optional("ProgramFiles(x86)", `C:\Program Files (x86)`),
		CommonProgramFiles:    optional("CommonProgramFiles", `C:\Program Files\Common Files`),
		CommonProgramFilesX86: optional("CommonProgramFiles(x86)", `C:\Program Files (x86)\Common Files`),
	}, nil
}

// FromOS resolves the environment of the current process.
func FromOS() (*Env, error) {
	return Load(os.LookupEnv)
}

// BuildRoot returns the directory holding every project's build sessions:
// <TempDir>/gamemaker-rubber.
func (e *Env) BuildRoot() string {
	return filepath.Join(e.TempDir, "gamemaker-rubber")
}

// ProjectDir returns the directory holding the build sessions of the
// project identified by guid.
func (e *Env) ProjectDir(guid string) string {
	return filepath.Join(e.BuildRoot(), guid)
}

// SessionDir returns the directory owned by build session id of the project
// identified by guid.
func (e *Env) SessionDir(guid, id string) string {
	return filepath.Join(e.ProjectDir(guid), id)
}
