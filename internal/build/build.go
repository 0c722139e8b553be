// Copyright 2024 The rubber Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package build prepares build sessions and runs the compiler.
//
// A build has two phases. Prepare checks every precondition and writes the
// session's descriptors, returning errors synchronously. Run then starts
// the compiler and reports its progress as an event stream.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/goplus/rubber/internal/ctxlog"
	"github.com/goplus/rubber/internal/descriptor"
	"github.com/goplus/rubber/internal/device"
	"github.com/goplus/rubber/internal/env"
	"github.com/goplus/rubber/internal/platform"
	"github.com/goplus/rubber/internal/prefs"
	"github.com/goplus/rubber/internal/project"
	"github.com/goplus/rubber/internal/runtimes"
)

var (
	ErrInstallDirMissing    = errors.New("alternative GameMaker installation directory does not exist")
	ErrDeviceConfigRequired = errors.New("this platform requires a target device config file")
	ErrNoPermission         = errors.New("licence does not include the platform's build module")
)

// Options configures one build.
type Options struct {
	Project  project.Identity
	Platform string
	Kind     platform.OutputKind
	Backend  platform.Backend
	// Config is the project configuration to build. Empty means "default".
	Config string
	// DebugPort enables the debugger when not 0.
	DebugPort  int
	Verbose    bool
	OutputPath string

	// Runtime is a runtime id from the runtime index. Empty selects the
	// active runtime. RuntimeDir bypasses the index.
	Runtime    string
	RuntimeDir string
	// InstallDir and DataDir override the default IDE locations.
	InstallDir string
	DataDir    string
	EA         bool

	DeviceConfig string
	DeviceName   string

	// KeepCache keeps the session dir after the build.
	KeepCache bool
	Extras    descriptor.Extras
}

// Session is a prepared build. Its descriptors are on disk.
type Session struct {
	ID          string
	GUID        string
	Project     project.Identity
	Kind        platform.OutputKind
	Dir         string
	Descriptors descriptor.Paths
	Runtime     string
	Compiler    string
	Args        []string
	KeepCache   bool
}

// Builder prepares build sessions. The user preferences are read once per
// Builder.
type Builder struct {
	lookup env.Lookup

	initOnce sync.Once
	prefs    *prefs.Context
}

// NewBuilder returns a Builder reading the environment through lookup. A
// nil lookup reads the process environment.
func NewBuilder(lookup env.Lookup) *Builder {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Builder{lookup: lookup}
}

func (b *Builder) userPrefs(e *env.Env) *prefs.Context {
	b.initOnce.Do(func() {
		b.prefs = prefs.New(e.AppData)
	})
	return b.prefs
}

// DefaultDataDir returns the IDE's shared data directory.
func DefaultDataDir(e *env.Env, ea bool) string {
	return filepath.Join(e.ProgramData, descriptor.ProgramName(ea))
}

// DefaultInstallDir returns the IDE's installation directory.
func DefaultInstallDir(e *env.Env, ea bool) string {
	name := "GameMaker Studio 2"
	if ea {
		name += "-EA"
	}
	return filepath.Join(e.ProgramFiles, name)
}

// Prepare checks the preconditions of opts and writes the session's
// descriptors. On failure nothing is left on disk.
func (b *Builder) Prepare(ctx context.Context, opts Options) (_ *Session, err error) {
	log := ctxlog.FromContext(ctx)

	target, err := platform.Lookup(opts.Platform)
	if err != nil {
		return nil, err
	}
	exportType, err := target.ExportType(opts.Kind)
	if err != nil {
		return nil, err
	}

	e, err := env.Load(b.lookup)
	if err != nil {
		return nil, err
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir(e, opts.EA)
	}
	installDir := opts.InstallDir
	if installDir == "" {
		installDir = DefaultInstallDir(e, opts.EA)
	} else if _, err := os.Stat(installDir); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInstallDirMissing, installDir)
	}

	dev, host, err := selectDevice(target, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	guid, err := opts.Project.GUID()
	if err != nil {
		return nil, err
	}

	runtime := opts.RuntimeDir
	if runtime == "" {
		runtime, err = runtimes.Resolve(runtimes.IndexPath(dataDir), opts.Runtime)
		if err != nil {
			return nil, err
		}
	}
	log.Debug("resolved runtime", "runtime", runtime)

	up := b.userPrefs(e)
	userDir, err := up.UserDir()
	if err != nil {
		return nil, err
	}
	ok, err := up.HasComponent(target.Module)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: building for %s needs %s; check the signed-in account", ErrNoPermission, target.Name, target.Module)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	dir := e.SessionDir(guid, id)
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()
	for _, sub := range []string{descriptor.CacheDir, descriptor.TempDir, descriptor.OutputDir} {
		if err = os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, err
		}
	}

	paths, err := descriptor.Synthesize(ctx, descriptor.Input{
		Project:    opts.Project,
		Env:        e,
		Runtime:    runtime,
		InstallDir: installDir,
		UserDir:    userDir,
		EA:         opts.EA,
		Target:     target,
		Kind:       opts.Kind,
		Backend:    opts.Backend,
		Config:     opts.Config,
		DebugPort:  opts.DebugPort,
		Verbose:    opts.Verbose,
		OutputPath: opts.OutputPath,
		Device:     dev,
		HostMac:    host,
		Extras:     opts.Extras,
		Prefs:      up,
	}, dir)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:          id,
		GUID:        guid,
		Project:     opts.Project,
		Kind:        opts.Kind,
		Dir:         dir,
		Descriptors: paths,
		Runtime:     runtime,
		Compiler:    filepath.Join(runtime, "bin", "Igor.exe"),
		Args:        []string{"-options=" + paths.BuildMeta, "--", target.Component, exportType},
		KeepCache:   opts.KeepCache,
	}
	log.Debug("prepared session", "id", s.ID, "dir", dir, "args", s.Args)
	return s, nil
}

// selectDevice reads the device config for targets building on a remote
// device. host is set for iOS.
func selectDevice(target platform.Target, opts Options) (dev, host *device.Device, err error) {
	if opts.DeviceConfig == "" {
		if target.Remote {
			return nil, nil, ErrDeviceConfigRequired
		}
		return nil, nil, nil
	}
	cfg, err := device.Load(opts.DeviceConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("target device config: %w", err)
	}
	d, err := cfg.Select(target.Name, opts.DeviceName)
	if err != nil {
		return nil, nil, err
	}
	if target.Name == "ios" {
		h, err := cfg.HostMac(d)
		if err != nil {
			return nil, nil, err
		}
		host = &h
	}
	return &d, host, nil
}
