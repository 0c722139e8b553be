package build

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goplus/rubber/internal/project"
)

const testGUID = "f6f5a2d0-5d3e-4b1a-9c11-2e6e1d6d6a11"

// mockInstall is a fake IDE installation: environment, runtime index,
// signed-in user and one project.
type mockInstall struct {
	vars    map[string]string
	runtime string
	project project.Identity
}

func (m *mockInstall) lookup(key string) (string, bool) {
	v, ok := m.vars[key]
	return v, ok
}

func (m *mockInstall) builder() *Builder {
	return NewBuilder(m.lookup)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newMockInstall(t *testing.T, components string) *mockInstall {
	t.Helper()
	root := t.TempDir()
	m := &mockInstall{
		vars: map[string]string{
			"TEMP":         filepath.Join(root, "temp"),
			"APPDATA":      filepath.Join(root, "appdata"),
			"USERNAME":     "jane",
			"ProgramData":  filepath.Join(root, "programdata"),
			"ProgramFiles": filepath.Join(root, "programfiles"),
		},
		runtime: filepath.Join(root, "runtimes", "runtime-2.3.7.606"),
	}

	index, err := json.Marshal(map[string]string{
		"active":            "runtime-2.3.7.606",
		"runtime-2.3.7.606": m.runtime + "&Windows,Mac",
	})
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "programdata", "GameMakerStudio2", "runtime.json"), string(index))

	prog := filepath.Join(root, "appdata", "GameMakerStudio2")
	writeFile(t, filepath.Join(prog, "um.json"), `{"username":"jane@example.com","userID":42}`)
	writeFile(t, filepath.Join(prog, "jane_42", "licence.plist"),
		"<dict>\n<key>components</key>\n<string>"+components+"</string>\n</dict>\n")

	projDir := filepath.Join(root, "projects", "Game")
	yyp := filepath.Join(projDir, "Game.yyp")
	writeFile(t, yyp, `{"id":"p","modelName":"GMProject","mvc":"1.0","IsDnDProject":false,"resources":[]}`)
	if m.project, err = project.New(yyp); err != nil {
		t.Fatal(err)
	}
	writeFile(t, m.project.OptionsFile(), "←opt|{\n  \"option_gameguid\": \""+testGUID+"\"\n}")
	return m
}

func (m *mockInstall) projectDir() string {
	return filepath.Join(m.vars["TEMP"], "gamemaker-rubber", testGUID)
}

// sessionDirs returns the session dirs present for the mock project.
func (m *mockInstall) sessionDirs(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(m.projectDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	var dirs []string
	for _, e := range entries {
		dirs = append(dirs, e.Name())
	}
	return dirs
}
