package descriptor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/goplus/rubber/internal/ctxlog"
	"github.com/goplus/rubber/internal/inherit"
)

// Extras selects the optional descriptors the IDE writes but the compiler
// does without.
type Extras struct {
	Preferences     bool
	SteamOptions    bool
	MainOptions     bool
	PlatformOptions bool
}

// Extra names accepted by ParseExtras.
const (
	ExtraPreferences     = "preferences"
	ExtraSteamOptions    = "steam_options"
	ExtraMainOptions     = "main_options"
	ExtraPlatformOptions = "platform_options"
	ExtraAll             = "all"
)

// ParseExtras parses a list of extra names.
func ParseExtras(names []string) (Extras, error) {
	var x Extras
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case ExtraPreferences:
			x.Preferences = true
		case ExtraSteamOptions:
			x.SteamOptions = true
		case ExtraMainOptions:
			x.MainOptions = true
		case ExtraPlatformOptions:
			x.PlatformOptions = true
		case ExtraAll:
			x = Extras{true, true, true, true}
		default:
			return Extras{}, fmt.Errorf("unknown descriptor %q", name)
		}
	}
	return x, nil
}

// Local settings consulted by the extras.
const (
	visualStudioKey = "machine.Platform Settings.Windows.visual_studio_path"
	steamSDKKey     = "machine.Platform Settings.Steam.steamsdk_path"
)

var errNoPrefs = errors.New("user preferences are required")

func writeExtras(ctx context.Context, in Input, paths Paths) error {
	x := in.Extras
	if x == (Extras{}) {
		return nil
	}
	log := ctxlog.FromContext(ctx)
	setting := func(key string) (string, error) {
		if in.Prefs == nil {
			return "", fmt.Errorf("%w: %s", errNoPrefs, key)
		}
		return in.Prefs.LocalSetting(key, "")
	}

	if x.Preferences {
		vs, err := setting(visualStudioKey)
		if err != nil {
			return err
		}
		prefs := struct {
			DefaultPackagingChoice int    `json:"default_packaging_choice"`
			VisualStudioPath       string `json:"visual_studio_path"`
		}{2, vs}
		if err := writeJSON(paths.Preferences, prefs); err != nil {
			return err
		}
		log.Debug("wrote descriptor", "path", paths.Preferences)
	}
	if x.SteamOptions {
		sdk, err := setting(steamSDKKey)
		if err != nil {
			return err
		}
		steam := struct {
			SteamSDKPath string `json:"steamsdk_path"`
		}{sdk}
		if err := writeJSON(paths.SteamOptions, steam); err != nil {
			return err
		}
		log.Debug("wrote descriptor", "path", paths.SteamOptions)
	}
	if !x.MainOptions && !x.PlatformOptions {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(paths.Dir, CacheDir), 0o755); err != nil {
		return err
	}
	if x.MainOptions {
		base := filepath.Join(in.Runtime, "BaseProject", "options", "main", "options_main.yy")
		if err := inherit.MergeFile(in.Project.OptionsFile(), base, paths.MainOptions); err != nil {
			return fmt.Errorf("merge main options: %w", err)
		}
		log.Debug("wrote descriptor", "path", paths.MainOptions)
	}
	if x.PlatformOptions && in.Target.Name == "windows" {
		if err := writePlatformOptions(in, paths.PlatformOptions); err != nil {
			return err
		}
		log.Debug("wrote descriptor", "path", paths.PlatformOptions)
	}
	return nil
}

// writePlatformOptions copies the project's windows options, or writes the
// IDE defaults when the project has none.
func writePlatformOptions(in Input, dst string) error {
	src := filepath.Join(in.Project.Dir, "options", "windows", "options_windows.yy")
	data, err := os.ReadFile(src)
	if err == nil {
		return os.WriteFile(dst, data, 0o644)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return writeJSON(dst, defaultWindowsOptions(uuid.NewString()))
}

type windowsVersion struct {
	Build    int `json:"build"`
	Major    int `json:"major"`
	Minor    int `json:"minor"`
	Revision int `json:"revision"`
}

type windowsOptions struct {
	ID                       string         `json:"id"`
	ModelName                string         `json:"modelName"`
	MVC                      string         `json:"mvc"`
	Name                     string         `json:"name"`
	AllowFullscreenSwitching bool           `json:"option_windows_allow_fullscreen_switching"`
	Borderless               bool           `json:"option_windows_borderless"`
	CompanyInfo              string         `json:"option_windows_company_info"`
	CopyExeToDest            bool           `json:"option_windows_copy_exe_to_dest"`
	CopyrightInfo            string         `json:"option_windows_copyright_info"`
	DescriptionInfo          string         `json:"option_windows_description_info"`
	DisplayCursor            bool           `json:"option_windows_display_cursor"`
	DisplayName              string         `json:"option_windows_display_name"`
	EnableSteam              bool           `json:"option_windows_enable_steam"`
	ExecutableName           string         `json:"option_windows_executable_name"`
	Icon                     string         `json:"option_windows_icon"`
	InstallerFinished        string         `json:"option_windows_installer_finished"`
	InstallerHeader          string         `json:"option_windows_installer_header"`
	InterpolatePixels        bool           `json:"option_windows_interpolate_pixels"`
	License                  string         `json:"option_windows_license"`
	NSISFile                 string         `json:"option_windows_nsis_file"`
	ProductInfo              string         `json:"option_windows_product_info"`
	ResizeWindow             bool           `json:"option_windows_resize_window"`
	SaveLocation             int            `json:"option_windows_save_location"`
	Scale                    int            `json:"option_windows_scale"`
	SleepMargin              int            `json:"option_windows_sleep_margin"`
	SplashScreen             string         `json:"option_windows_splash_screen"`
	StartFullscreen          bool           `json:"option_windows_start_fullscreen"`
	TexturePage              string         `json:"option_windows_texture_page"`
	UseSplash                bool           `json:"option_windows_use_splash"`
	Version                  windowsVersion `json:"option_windows_version"`
	VSync                    bool           `json:"option_windows_vsync"`
}

func defaultWindowsOptions(id string) windowsOptions {
	opt := func(elem ...string) string {
		return join(append([]string{"${base_options_dir}", "windows"}, elem...)...)
	}
	return windowsOptions{
		ID:                id,
		ModelName:         "GMWindowsOptions",
		MVC:               "1.0",
		Name:              "Windows",
		CompanyInfo:       "YoYo Games Ltd",
		CopyrightInfo:     "(c) 2018 CompanyName",
		DescriptionInfo:   "A GameMaker Studio 2 Game",
		DisplayCursor:     true,
		DisplayName:       "Made in GameMaker Studio 2",
		ExecutableName:    "${project_name}",
		Icon:              opt("icons", "icon.ico"),
		InstallerFinished: opt("installer", "finished.bmp"),
		InstallerHeader:   opt("installer", "header.bmp"),
		License:           opt("installer", "license.txt"),
		NSISFile:          opt("installer", "nsis_script.nsi"),
		ProductInfo:       "Made in GameMaker Studio 2",
		SleepMargin:       10,
		SplashScreen:      opt("splash", "splash.png"),
		TexturePage:       "2048x2048",
		Version:           windowsVersion{Major: 1},
	}
}
