// Copyright 2024 The rubber Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package descriptor writes the descriptor files the compiler reads its
// build configuration from.
//
// Three files are always written into the session directory:
//
//	macros.json         path fragments, possibly referencing each other as ${key}
//	build.bff           the build-meta table passed on the command line
//	targetoptions.json  backend selection and remote device fields
//
// The IDE writes a few more files the compiler does not require. They can be
// requested through Extras.
package descriptor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goplus/rubber/internal/ctxlog"
	"github.com/goplus/rubber/internal/device"
	"github.com/goplus/rubber/internal/env"
	"github.com/goplus/rubber/internal/platform"
	"github.com/goplus/rubber/internal/prefs"
	"github.com/goplus/rubber/internal/project"
)

// File names inside a session directory.
const (
	MacrosFile          = "macros.json"
	BuildMetaFile       = "build.bff"
	TargetOptionsFile   = "targetoptions.json"
	PreferencesFile     = "preferences.json"
	SteamOptionsFile    = "steam_options.yy"
	MainOptionsFile     = "MainOptions.json"
	PlatformOptionsFile = "PlatformOptions.json"

	CacheDir  = "GMCache"
	TempDir   = "GMTemp"
	OutputDir = "Output"
)

// DefaultDebuggerPort is written when debugging is disabled.
const DefaultDebuggerPort = 6509

// Input collects everything synthesis reads.
type Input struct {
	Project project.Identity
	Env     *env.Env
	// Runtime is the resolved runtime directory.
	Runtime string
	// InstallDir is the IDE installation directory.
	InstallDir string
	// UserDir is the signed-in user's settings directory.
	UserDir string
	EA      bool

	Target     platform.Target
	Kind       platform.OutputKind
	Backend    platform.Backend
	Config     string
	DebugPort  int
	Verbose    bool
	OutputPath string

	// Device and HostMac are set only for targets that build on a remote
	// device. HostMac is the Mac an iOS device builds through.
	Device  *device.Device
	HostMac *device.Device

	Extras Extras
	// Prefs is read by the preferences and steam options extras.
	Prefs *prefs.Context
}

// Paths lists the files of a synthesized session.
type Paths struct {
	Dir             string
	Macros          string
	BuildMeta       string
	TargetOptions   string
	Preferences     string
	SteamOptions    string
	MainOptions     string
	PlatformOptions string
}

// PathsIn returns the descriptor paths of the session directory dir.
func PathsIn(dir string) Paths {
	return Paths{
		Dir:             dir,
		Macros:          filepath.Join(dir, MacrosFile),
		BuildMeta:       filepath.Join(dir, BuildMetaFile),
		TargetOptions:   filepath.Join(dir, TargetOptionsFile),
		Preferences:     filepath.Join(dir, PreferencesFile),
		SteamOptions:    filepath.Join(dir, SteamOptionsFile),
		MainOptions:     filepath.Join(dir, CacheDir, MainOptionsFile),
		PlatformOptions: filepath.Join(dir, CacheDir, PlatformOptionsFile),
	}
}

// Synthesize writes the descriptors for in into dir. Every file is written
// and closed before Synthesize returns.
func Synthesize(ctx context.Context, in Input, dir string) (Paths, error) {
	if err := checkEnv(in.Env); err != nil {
		return Paths{}, err
	}
	paths := PathsIn(dir)
	log := ctxlog.FromContext(ctx)

	macros := Macros(in, dir)
	if err := macros.CheckClosure(); err != nil {
		return Paths{}, err
	}
	steps := []struct {
		path string
		v    any
	}{
		{paths.Macros, macros},
		{paths.BuildMeta, BuildMeta(in, paths)},
		{paths.TargetOptions, TargetOptions(in)},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return Paths{}, err
		}
		if err := writeJSON(s.path, s.v); err != nil {
			return Paths{}, err
		}
		log.Debug("wrote descriptor", "path", s.path)
	}
	if err := writeExtras(ctx, in, paths); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

func checkEnv(e *env.Env) error {
	switch {
	case e == nil || e.TempDir == "":
		return &env.MissingError{Name: "temp directory", Vars: []string{"TEMP"}}
	case e.AppData == "":
		return &env.MissingError{Name: "app-data directory", Vars: []string{"APPDATA"}}
	case e.UserName == "":
		return &env.MissingError{Name: "user name", Vars: []string{"USERNAME"}}
	}
	return nil
}

// join concatenates macro path fragments without cleaning them, so that
// ${key} references survive verbatim.
func join(elem ...string) string {
	return strings.Join(elem, string(filepath.Separator))
}

// ProgramName returns the IDE's program directory name.
func ProgramName(ea bool) string {
	if ea {
		return "GameMakerStudio2-EA"
	}
	return "GameMakerStudio2"
}

// Macros builds the macro table for a session in dir.
func Macros(in Input, dir string) *Table {
	e := in.Env
	installName := "GameMaker Studio 2"
	if in.EA {
		installName += "-EA"
	}
	t := NewTable()
	for _, kv := range [][2]string{
		{"project_name", in.Project.Name},
		{"project_dir", in.Project.Dir},
		{"UserProfileName", e.UserName},

		{"custom.tempdir", dir},
		{"custom.gm_cache", join("${custom.tempdir}", CacheDir)},
		{"custom.gm_temp", join("${custom.tempdir}", TempDir)},
		{"custom.output", join("${custom.tempdir}", OutputDir)},

		{"project_full_filename", join("${project_dir}", "${project_name}"+project.Ext)},
		{"options_dir", join("${project_dir}", "options")},

		{"project_cache_directory_name", CacheDir},
		{"asset_compiler_cache_directory", "${custom.tempdir}"},

		{"project_dir_inherited_BaseProject", join("${runtimeLocation}", "BaseProject")},
		{"project_full_inherited_BaseProject", join("${runtimeLocation}", "BaseProject", "BaseProject.yyp")},
		{"base_project", join("${runtimeLocation}", "BaseProject", "BaseProject.yyp")},
		{"base_options_dir", join("${runtimeLocation}", "BaseProject", "options")},

		{"local_directory", join("${ApplicationData}", "${program_dir_name}")},
		{"local_cache_directory", join("${local_directory}", "Cache")},
		{"temp_directory", "${custom.gm_temp}"},

		{"system_directory", join("${CommonApplicationData}", "${program_dir_name}")},
		{"system_cache_directory", join("${system_directory}", "Cache")},
		{"runtimeBaseLocation", join("${system_cache_directory}", "runtimes")},
		{"runtimeLocation", in.Runtime},

		{"igor_path", join("${runtimeLocation}", "bin", "Igor.exe")},
		{"asset_compiler_path", join("${runtimeLocation}", "bin", "GMAssetCompiler.exe")},
		{"lib_compatibility_path", join("${runtimeLocation}", "lib", "compatibility.zip")},
		{"runner_path", join("${runtimeLocation}", "windows", "Runner.exe")},
		{"webserver_path", join("${runtimeLocation}", "bin", "GMWebServer.exe")},
		{"html5_runner_path", join("${runtimeLocation}", "html5", "scripts.html5.zip")},
		{"adb_exe_path", join("platform-tools", "adb.exe")},
		{"java_exe_path", join("bin", "java.exe")},
		{"licenses_path", join("${exe_path}", "Licenses")},

		{"keytool_exe_path", join("bin", "keytool.exe")},
		{"openssl_exe_path", join("bin", "openssl.exe")},

		{"GMS_name", ProgramName(in.EA)},
		{"program_dir_name", "${GMS_name}"},
		{"program_name", "${GMS_name}"},
		{"program_name_pretty", "${GMS_name}"},

		{"default_font", "Open Sans"},
		{"default_style", "Regular"},
		{"default_font_size", "9"},

		{"ApplicationData", join("${UserProfile}", "AppData", "Roaming")},
		{"CommonApplicationData", e.ProgramData},
		{"ProgramFiles", e.ProgramFiles},
		{"ProgramFilesX86", e.ProgramFilesX86},
		{"CommonProgramFiles", e.CommonProgramFiles},
		{"CommonProgramFilesX86", e.CommonProgramFilesX86},
		{"UserProfile", join("C:", "Users", "${UserProfileName}")},
		{"TempPath", join("${UserProfile}", "AppData", "Local")},
		{"exe_path", join("${ProgramFiles}", installName)},
	} {
		t.Set(kv[0], kv[1])
	}
	return t
}

func boolString(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// BuildMeta builds the build-meta table that points the compiler at every
// other descriptor.
func BuildMeta(in Input, paths Paths) *Table {
	exe := "GameMakerStudio.exe"
	if in.EA {
		exe = "GameMakerStudio-EA.exe"
	}
	config := in.Config
	if config == "" {
		config = "default"
	}
	port := in.DebugPort
	if port == 0 {
		port = DefaultDebuggerPort
	}
	targetFile := in.OutputPath
	if in.Kind == platform.Test {
		targetFile = ""
	}
	output := filepath.Join(paths.Dir, OutputDir)

	t := NewTable()
	for _, kv := range [][2]string{
		{"applicationPath", filepath.Join(in.InstallDir, exe)},
		{"assetCompiler", ""},
		{"compile_output_file_name", filepath.Join(output, in.Project.Name+".win")},
		{"config", config},
		{"debug", boolString(in.DebugPort != 0)},
		{"debuggerPort", strconv.Itoa(port)},
		{"helpPort", "51290"},
		{"macros", paths.Macros},
		{"outputFolder", output},
		{"preferences", paths.Preferences},
		{"projectDir", in.Project.Dir},
		{"projectName", in.Project.Name},
		{"projectPath", in.Project.File},
		{"runtimeLocation", in.Runtime},
		{"steamOptions", paths.SteamOptions},
		{"targetFile", targetFile},
		{"targetMask", "64"},
		{"targetOptions", paths.TargetOptions},
		{"tempFolder", filepath.Join(paths.Dir, TempDir)},
		{"useShaders", "True"},
		{"userDir", in.UserDir},
		{"verbose", boolString(in.Verbose)},
	} {
		t.Set(kv[0], kv[1])
	}
	return t
}

var (
	deviceFields  = []string{"displayname", "productType", "version", "device", "type", "status", "hostmac", "deviceIP", "target_ip"}
	hostMacFields = []string{"hostname", "username", "encrypted_password", "install_dir"}
)

// TargetOptions builds the target-options table. Device fields are empty
// unless the target builds on a remote device.
func TargetOptions(in Input) *Table {
	backend := in.Backend
	if backend == "" {
		backend = platform.VM
	}
	t := NewTable()
	t.Set("runtime", string(backend))

	var dev, host device.Device
	if in.Target.Remote && in.Device != nil {
		dev = *in.Device
		host = dev
		if in.HostMac != nil {
			host = *in.HostMac
		}
	}
	for _, k := range deviceFields {
		t.Set(k, dev.Get(k))
	}
	for _, k := range hostMacFields {
		t.Set(k, host.Get(k))
	}
	return t
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, bytes.TrimRight(buf.Bytes(), "\n"), 0o644)
}
