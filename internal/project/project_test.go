package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validYYP = `{
  "id": "0c5d6b3e",
  "modelName": "GMProject",
  "mvc": "1.0",
  "IsDnDProject": false,
  "resources": []
}`

func writeProject(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	p, err := New(filepath.Join(dir, "My Game.yyp"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "My Game" {
		t.Errorf("Name = %q, want %q", p.Name, "My Game")
	}
	if p.Dir != dir {
		t.Errorf("Dir = %q, want %q", p.Dir, dir)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "notes.txt", "hello")
	writeProject(t, dir, "broken.yyp", `{"modelName": "GMProject"}`)
	want := writeProject(t, dir, "game.yyp", validYYP)
	if err := os.Mkdir(filepath.Join(dir, "sprites"), 0o755); err != nil {
		t.Fatal(err)
	}

	p, err := Find(dir)
	if err != nil {
		t.Fatalf("Find(dir) error: %v", err)
	}
	if p.File != want {
		t.Errorf("Find(dir) = %q, want %q", p.File, want)
	}

	p, err = Find(want)
	if err != nil {
		t.Fatalf("Find(file) error: %v", err)
	}
	if p.Name != "game" {
		t.Errorf("Name = %q, want game", p.Name)
	}
}

func TestFind_Invalid(t *testing.T) {
	dir := t.TempDir()
	bad := writeProject(t, dir, "old.yyp", `{"id": "x", "mvc": "1.0", "resources": [], "IsDnDProject": false, "modelName": "GMOldProject"}`)
	if _, err := Find(bad); !errors.Is(err, ErrInvalid) {
		t.Errorf("Find(bad) error = %v, want ErrInvalid", err)
	}
	if _, err := Find(dir); !errors.Is(err, ErrInvalid) {
		t.Errorf("Find(dir) error = %v, want ErrInvalid", err)
	}
	if _, err := Find(filepath.Join(dir, "absent.yyp")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Find(absent) error = %v, want ErrNotExist", err)
	}
}

func TestGUID(t *testing.T) {
	dir := t.TempDir()
	p, err := New(writeProject(t, dir, "game.yyp", validYYP))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.GUID(); !errors.Is(err, ErrNoGUID) {
		t.Fatalf("GUID() without options error = %v, want ErrNoGUID", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.OptionsFile()), 0o755); err != nil {
		t.Fatal(err)
	}
	content := "←1b4a2cd5-a1f0-4e38-a9b0-a6e0f2a2c8d3|{\n    \"option_gameguid\": \"f6f5a2d0-5d3e-4b1a-9c11-2e6e1d6d6a11\",\n    \"option_game_speed\": 60\n}"
	if err := os.WriteFile(p.OptionsFile(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := p.GUID()
	if err != nil {
		t.Fatalf("GUID() error: %v", err)
	}
	if want := "f6f5a2d0-5d3e-4b1a-9c11-2e6e1d6d6a11"; got != want {
		t.Errorf("GUID() = %q, want %q", got, want)
	}
}
