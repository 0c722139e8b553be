// Package config loads per-project build defaults from rubber.toml.
//
// A project may carry a rubber.toml next to its .yyp file:
//
//	platform = "windows"
//	runtime = "runtime-2023.4.0.113"
//	config = "Release"
//	yyc = true
//	keep_cache = false
//
// Every key is optional. Command line flags override the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

// FileName is the name of the per-project config file.
const FileName = "rubber.toml"

// File holds the values of a rubber.toml.
type File struct {
	Platform     string   `toml:"platform"`
	Runtime      string   `toml:"runtime"`
	RuntimeDir   string   `toml:"runtime_dir"`
	Config       string   `toml:"config"`
	YYC          bool     `toml:"yyc"`
	EA           bool     `toml:"ea"`
	GMSDir       string   `toml:"gms_dir"`
	DataDir      string   `toml:"data_dir"`
	DeviceConfig string   `toml:"device_config"`
	TargetDevice string   `toml:"target_device"`
	DebugPort    int      `toml:"debug_port"`
	Verbose      bool     `toml:"verbose"`
	KeepCache    bool     `toml:"keep_cache"`
	With         []string `toml:"with"`
}

// Load reads the rubber.toml in dir. A missing file yields zero values.
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &File{}, nil
		}
		return nil, err
	}
	return Parse(data, path)
}

// Parse decodes rubber.toml content. name is used in error messages.
func Parse(data []byte, name string) (*File, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if f.DebugPort < 0 || f.DebugPort > 65535 {
		return nil, fmt.Errorf("parse %s: debug_port %d out of range", name, f.DebugPort)
	}
	return &f, nil
}
