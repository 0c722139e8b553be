package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/goplus/rubber/internal/build"
	"github.com/goplus/rubber/internal/config"
	"github.com/goplus/rubber/internal/ctxlog"
	"github.com/goplus/rubber/internal/descriptor"
	"github.com/goplus/rubber/internal/platform"
	"github.com/goplus/rubber/internal/project"
)

var (
	buildZip          bool
	buildInstaller    bool
	buildYYC          bool
	buildConfig       string
	buildPlatform     string
	buildGMSDir       string
	buildDataDir      string
	buildRuntimeDir   string
	buildRuntime      string
	buildDeviceConfig string
	buildDeviceName   string
	buildEA           bool
	buildDebugPort    int
	buildVerbose      bool
	buildKeepCache    bool
	buildWith         []string
	buildTimeout      time.Duration
)

var buildCmd = &cobra.Command{
	Use:   "build [project] [output]",
	Short: "Compile a GameMaker project",
	Long: `Build compiles the project at the given path, a .yyp file or a directory
holding one, and runs it. With --zip or --installer the game is packaged to
output instead.

Defaults are read from a rubber.toml next to the project file. Flags win.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.BoolVarP(&buildZip, "zip", "Z", false, "Create a zip archive")
	f.BoolVarP(&buildInstaller, "installer", "I", false, "Create an installer package")
	f.BoolVarP(&buildYYC, "yyc", "y", false, "Compile with YYC")
	f.StringVarP(&buildConfig, "config", "c", "default", "Project configuration to build")
	f.StringVarP(&buildPlatform, "export-platform", "p", "windows", "Export platform")
	f.StringVar(&buildGMSDir, "gms-dir", "", "Alternative GameMaker installation directory")
	f.StringVar(&buildDataDir, "data-dir", "", "Alternative GameMaker data directory")
	f.StringVar(&buildRuntimeDir, "runtime-dir", "", "Runtime directory, bypassing the runtime index")
	f.StringVar(&buildRuntime, "runtime", "", "Runtime to use (default: the active runtime, or \"latest\")")
	f.StringVar(&buildDeviceConfig, "device-config-dir", "", "Target device config file")
	f.StringVar(&buildDeviceName, "target-device-name", "", "Target device name (default: the first device)")
	f.BoolVar(&buildEA, "ea", false, "Use the Early Access version")
	f.IntVar(&buildDebugPort, "debug-port", 0, "Enable the debugger on this port")
	f.BoolVarP(&buildVerbose, "verbose", "v", false, "Verbose compiler output")
	f.BoolVar(&buildKeepCache, "keep-cache", false, "Keep the build directory after the build")
	f.StringSliceVar(&buildWith, "with", nil, "Extra descriptors to write (preferences, steam_options, main_options, platform_options, all)")
	f.DurationVar(&buildTimeout, "timeout", 0, "Stop the build after this long (0: no limit)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := ctxlog.FromContext(ctx)

	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	proj, err := project.Find(path)
	if err != nil {
		return err
	}
	file, err := config.Load(proj.Dir)
	if err != nil {
		return err
	}
	opts, err := buildOptions(cmd, file, proj, args)
	if err != nil {
		return err
	}
	log.Debug("build options", "project", proj.File, "platform", opts.Platform, "kind", opts.Kind)

	if buildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, buildTimeout)
		defer cancel()
	}

	out := newConsole(os.Stdout)
	out.info("Starting Rubber")
	s, err := build.NewBuilder(nil).Prepare(ctx, opts)
	if err != nil {
		return err
	}
	out.info("Running compiler")
	if !out.finish(s.Run(ctx).Dispatch(out.handlers())) {
		return errReported
	}
	return nil
}

// pick returns the flag value when the flag was set on the command line,
// else the file value when set, else the flag default.
func pick[T comparable](cmd *cobra.Command, name string, flag, file T) T {
	if cmd.Flags().Changed(name) {
		return flag
	}
	var zero T
	if file != zero {
		return file
	}
	return flag
}

// buildOptions layers the command line over the project's rubber.toml.
func buildOptions(cmd *cobra.Command, file *config.File, proj project.Identity, args []string) (build.Options, error) {
	if buildZip && buildInstaller {
		return build.Options{}, errors.New("cannot make a zip and an installer at once, use two builds")
	}
	kind := platform.Test
	var output string
	switch {
	case buildZip:
		kind = platform.Archive
	case buildInstaller:
		kind = platform.Installer
	}
	if len(args) > 1 {
		output = args[1]
	}
	if kind != platform.Test {
		if output == "" {
			return build.Options{}, fmt.Errorf("an output path is required to build %s", kind)
		}
		abs, err := filepath.Abs(output)
		if err != nil {
			return build.Options{}, fmt.Errorf("failed to resolve output path: %w", err)
		}
		output = abs
	}

	backend := platform.VM
	if pick(cmd, "yyc", buildYYC, file.YYC) {
		backend = platform.YYC
	}
	with := file.With
	if cmd.Flags().Changed("with") {
		with = buildWith
	}
	extras, err := descriptor.ParseExtras(with)
	if err != nil {
		return build.Options{}, err
	}

	return build.Options{
		Project:      proj,
		Platform:     pick(cmd, "export-platform", buildPlatform, file.Platform),
		Kind:         kind,
		Backend:      backend,
		Config:       pick(cmd, "config", buildConfig, file.Config),
		DebugPort:    pick(cmd, "debug-port", buildDebugPort, file.DebugPort),
		Verbose:      pick(cmd, "verbose", buildVerbose, file.Verbose),
		OutputPath:   output,
		Runtime:      pick(cmd, "runtime", buildRuntime, file.Runtime),
		RuntimeDir:   pick(cmd, "runtime-dir", buildRuntimeDir, file.RuntimeDir),
		InstallDir:   pick(cmd, "gms-dir", buildGMSDir, file.GMSDir),
		DataDir:      pick(cmd, "data-dir", buildDataDir, file.DataDir),
		EA:           pick(cmd, "ea", buildEA, file.EA),
		DeviceConfig: pick(cmd, "device-config-dir", buildDeviceConfig, file.DeviceConfig),
		DeviceName:   pick(cmd, "target-device-name", buildDeviceName, file.TargetDevice),
		KeepCache:    pick(cmd, "keep-cache", buildKeepCache, file.KeepCache),
		Extras:       extras,
	}, nil
}
