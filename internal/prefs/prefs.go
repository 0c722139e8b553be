// Package prefs reads the signed-in user's IDE preferences.
package prefs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// ProgramDir is the IDE's folder name under the roaming application data
// directory.
const ProgramDir = "GameMakerStudio2"

var (
	ErrNoUser    = errors.New("no signed-in user")
	ErrNoLicence = errors.New("licence has no components")
)

// Context locates one user's preferences. Local settings are read at most
// once per Context.
type Context struct {
	// AppData is the roaming application data directory.
	AppData string
	// Program overrides ProgramDir when not empty.
	Program string

	once     sync.Once
	settings map[string]any
	err      error
}

// New returns a Context rooted at appData.
func New(appData string) *Context {
	return &Context{AppData: appData}
}

func (c *Context) programDir() string {
	p := c.Program
	if p == "" {
		p = ProgramDir
	}
	return filepath.Join(c.AppData, p)
}

// UserDir returns the directory holding the signed-in user's settings,
// named after um.json as "<account>_<userID>".
func (c *Context) UserDir() (string, error) {
	path := filepath.Join(c.programDir(), "um.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoUser, err)
	}
	var um struct {
		Username string      `json:"username"`
		UserID   json.Number `json:"userID"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&um); err != nil {
		return "", fmt.Errorf("%w: parse %s: %v", ErrNoUser, path, err)
	}
	if um.Username == "" || um.UserID == "" {
		return "", fmt.Errorf("%w: %s lacks username or userID", ErrNoUser, path)
	}
	account, _, _ := strings.Cut(um.Username, "@")
	return filepath.Join(c.programDir(), account+"_"+um.UserID.String()), nil
}

// LocalSetting returns the value of key in the user's local_settings.json,
// or def when the key is absent or empty.
func (c *Context) LocalSetting(key, def string) (string, error) {
	c.once.Do(c.loadSettings)
	if c.err != nil {
		return "", c.err
	}
	switch v := c.settings[key].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case nil:
	default:
		return fmt.Sprint(v), nil
	}
	return def, nil
}

func (c *Context) loadSettings() {
	dir, err := c.UserDir()
	if err != nil {
		c.err = err
		return
	}
	data, err := os.ReadFile(filepath.Join(dir, "local_settings.json"))
	if err != nil {
		c.err = err
		return
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&c.settings); err != nil {
		c.err = fmt.Errorf("parse local settings: %w", err)
	}
}

var componentsRE = regexp.MustCompile(`<key>components</key>.*?\n.*?<string>(.*?)</string>`)

// Components returns the build components the user's licence.plist grants.
func (c *Context) Components() ([]string, error) {
	dir, err := c.UserDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "licence.plist"))
	if err != nil {
		return nil, err
	}
	m := componentsRE.FindSubmatch(data)
	if m == nil {
		return nil, ErrNoLicence
	}
	return strings.Split(string(m[1]), ";"), nil
}

// HasComponent reports whether the licence grants component.
func (c *Context) HasComponent(component string) (bool, error) {
	comps, err := c.Components()
	if err != nil {
		return false, err
	}
	for _, name := range comps {
		if name == component {
			return true, nil
		}
	}
	return false, nil
}
