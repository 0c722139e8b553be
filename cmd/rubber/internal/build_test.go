package internal

import (
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/goplus/rubber/internal/config"
	"github.com/goplus/rubber/internal/descriptor"
	"github.com/goplus/rubber/internal/platform"
	"github.com/goplus/rubber/internal/project"
)

// parseBuildFlags resets the build flags to their defaults and parses args.
func parseBuildFlags(t *testing.T, args ...string) {
	t.Helper()
	buildZip, buildInstaller, buildYYC = false, false, false
	buildConfig, buildPlatform = "default", "windows"
	buildGMSDir, buildDataDir, buildRuntimeDir, buildRuntime = "", "", "", ""
	buildDeviceConfig, buildDeviceName = "", ""
	buildEA, buildVerbose, buildKeepCache = false, false, false
	buildDebugPort, buildWith, buildTimeout = 0, nil, 0
	buildCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	if err := buildCmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%q) error: %v", args, err)
	}
}

func testProject(t *testing.T) project.Identity {
	t.Helper()
	p, err := project.New(filepath.Join(t.TempDir(), "Game.yyp"))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestBuildOptions_Layering(t *testing.T) {
	file := &config.File{
		Platform:   "android",
		Runtime:    "runtime-2.3.7.606",
		Config:     "Release",
		YYC:        true,
		DebugPort:  6510,
		KeepCache:  true,
		With:       []string{"preferences"},
		RuntimeDir: "/file/runtime",
	}
	parseBuildFlags(t, "-p", "windows", "--runtime", "latest", "--with", "main_options")

	opts, err := buildOptions(buildCmd, file, testProject(t), nil)
	if err != nil {
		t.Fatalf("buildOptions() error: %v", err)
	}
	checks := []struct {
		name      string
		got, want any
	}{
		{"Platform", opts.Platform, "windows"},
		{"Runtime", opts.Runtime, "latest"},
		{"Config", opts.Config, "Release"},
		{"Backend", opts.Backend, platform.YYC},
		{"DebugPort", opts.DebugPort, 6510},
		{"KeepCache", opts.KeepCache, true},
		{"RuntimeDir", opts.RuntimeDir, "/file/runtime"},
		{"Extras", opts.Extras, descriptor.Extras{MainOptions: true}},
		{"Kind", opts.Kind, platform.Test},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestBuildOptions_Defaults(t *testing.T) {
	parseBuildFlags(t)
	opts, err := buildOptions(buildCmd, &config.File{}, testProject(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Platform != "windows" || opts.Config != "default" || opts.Backend != platform.VM {
		t.Errorf("defaults = %q, %q, %q", opts.Platform, opts.Config, opts.Backend)
	}
	if opts.Extras != (descriptor.Extras{}) {
		t.Errorf("Extras = %+v, want none", opts.Extras)
	}
}

func TestBuildOptions_ExplicitFalseWins(t *testing.T) {
	parseBuildFlags(t, "--yyc=false")
	opts, err := buildOptions(buildCmd, &config.File{YYC: true}, testProject(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Backend != platform.VM {
		t.Errorf("Backend = %q, want VM", opts.Backend)
	}
}

func TestBuildOptions_Packaging(t *testing.T) {
	proj := testProject(t)

	parseBuildFlags(t, "-Z")
	opts, err := buildOptions(buildCmd, &config.File{}, proj, []string{proj.File, "game.zip"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Kind != platform.Archive || !filepath.IsAbs(opts.OutputPath) || filepath.Base(opts.OutputPath) != "game.zip" {
		t.Errorf("Kind = %q, OutputPath = %q", opts.Kind, opts.OutputPath)
	}

	parseBuildFlags(t, "-I")
	if _, err := buildOptions(buildCmd, &config.File{}, proj, []string{proj.File}); err == nil {
		t.Error("installer without output path succeeded, want error")
	}

	parseBuildFlags(t, "-Z", "-I")
	if _, err := buildOptions(buildCmd, &config.File{}, proj, []string{proj.File, "x"}); err == nil {
		t.Error("zip and installer succeeded, want error")
	}

	parseBuildFlags(t, "--with", "icons")
	if _, err := buildOptions(buildCmd, &config.File{}, proj, nil); err == nil {
		t.Error("unknown extra succeeded, want error")
	}
}
