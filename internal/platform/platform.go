// Package platform describes the export targets the compiler supports.
package platform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported reports a platform, output kind or backend combination
// that cannot be built.
var ErrUnsupported = errors.New("unsupported configuration")

// OutputKind selects what a build produces.
type OutputKind string

const (
	// Test compiles and runs the game in place.
	Test OutputKind = "test"
	// Archive packages the game as an archive.
	Archive OutputKind = "archive"
	// Installer packages the game as an installer.
	Installer OutputKind = "installer"
)

// ParseOutputKind accepts "test", "archive" (or "zip") and "installer".
func ParseOutputKind(s string) (OutputKind, error) {
	switch strings.ToLower(s) {
	case "", "test":
		return Test, nil
	case "archive", "zip":
		return Archive, nil
	case "installer":
		return Installer, nil
	}
	return "", fmt.Errorf("%w: output kind %q", ErrUnsupported, s)
}

// Backend selects the compiler backend.
type Backend string

const (
	// VM runs the game on the bytecode virtual machine.
	VM Backend = "VM"
	// YYC compiles the game ahead of time.
	YYC Backend = "YYC"
)

// Target holds what the compiler needs to know about one platform.
type Target struct {
	Name string
	// Component is the compiler's name for the platform.
	Component string
	// Module is the licence component required to build for the platform.
	Module string
	// Remote reports whether building needs a remote device (a Mac or a
	// Linux box) described by a device config file.
	Remote bool
	// PackageOnly targets can only produce archives.
	PackageOnly bool

	packageKey string
}

var targets = map[string]Target{
	"windows": {Name: "windows", Component: "Windows", Module: "Windows.build_module", packageKey: "PackageZip"},
	"mac":     {Name: "mac", Component: "Mac", Module: "Mac.build_module", Remote: true},
	"linux":   {Name: "linux", Component: "Linux", Module: "Linux.build_module", Remote: true},
	"ios":     {Name: "ios", Component: "iOS", Module: "ios.build_module", Remote: true, PackageOnly: true},
	"android": {Name: "android", Component: "Android", Module: "android.build_module"},
	"switch":  {Name: "switch", Component: "Switch", Module: "switch.build_module"},
}

// Known lists platforms that are recognized but cannot be built.
var known = []string{"ps4", "xboxone", "html5", "uwp"}

// Lookup returns the target of the named platform.
func Lookup(name string) (Target, error) {
	name = strings.ToLower(name)
	if t, ok := targets[name]; ok {
		return t, nil
	}
	for _, k := range known {
		if k == name {
			return Target{}, fmt.Errorf("%w: cannot compile to platform %q", ErrUnsupported, name)
		}
	}
	return Target{}, fmt.Errorf("%w: unknown platform %q", ErrUnsupported, name)
}

// ExportType returns the compiler's export mode for kind, or ErrUnsupported
// if the target cannot produce it.
func (t Target) ExportType(kind OutputKind) (string, error) {
	if t.PackageOnly && kind != Archive {
		return "", fmt.Errorf("%w: %s can only build archives", ErrUnsupported, t.Name)
	}
	switch kind {
	case Test:
		return "Run", nil
	case Archive:
		if t.packageKey != "" {
			return t.packageKey, nil
		}
		return "Package", nil
	case Installer:
		if t.Name != "windows" {
			return "", fmt.Errorf("%w: only windows can build installers", ErrUnsupported)
		}
		return "PackageNsis", nil
	}
	return "", fmt.Errorf("%w: output kind %q", ErrUnsupported, kind)
}
