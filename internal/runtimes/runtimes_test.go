package runtimes

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeIndex(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := IndexPath(dir)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolve_Precedence(t *testing.T) {
	path := writeIndex(t, `{"active":"r1","r1":"C:\\rt1&x","r2":"C:\\rt2"}`)

	tests := []struct {
		id      string
		want    string
		wantErr error
	}{
		{"", `C:\rt1`, nil},
		{"r2", `C:\rt2`, nil},
		{"r1", `C:\rt1`, nil},
		{"missing", "", ErrRuntimeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := Resolve(path, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve(%q) error = %v, want %v", tt.id, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.id, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	t.Run("missing index", func(t *testing.T) {
		_, err := Resolve(filepath.Join(t.TempDir(), IndexFile), "")
		if !errors.Is(err, ErrMissingIndex) {
			t.Fatalf("error = %v, want ErrMissingIndex", err)
		}
	})
	t.Run("corrupt index", func(t *testing.T) {
		_, err := Resolve(writeIndex(t, `{"active": `), "")
		if !errors.Is(err, ErrCorruptIndex) {
			t.Fatalf("error = %v, want ErrCorruptIndex", err)
		}
	})
	t.Run("null index", func(t *testing.T) {
		_, err := Resolve(writeIndex(t, `null`), "")
		if !errors.Is(err, ErrCorruptIndex) {
			t.Fatalf("error = %v, want ErrCorruptIndex", err)
		}
	})
	t.Run("non-string entry", func(t *testing.T) {
		_, err := Resolve(writeIndex(t, `{"active":"r1","r1":42}`), "")
		if !errors.Is(err, ErrCorruptIndex) {
			t.Fatalf("error = %v, want ErrCorruptIndex", err)
		}
	})
	t.Run("active not a string", func(t *testing.T) {
		_, err := Resolve(writeIndex(t, `{"active":3,"r1":"C:\\rt1"}`), "")
		if !errors.Is(err, ErrNoActiveRuntime) {
			t.Fatalf("error = %v, want ErrNoActiveRuntime", err)
		}
	})
	t.Run("no active entry", func(t *testing.T) {
		_, err := Resolve(writeIndex(t, `{"r1":"C:\\rt1"}`), "")
		if !errors.Is(err, ErrNoActiveRuntime) {
			t.Fatalf("error = %v, want ErrNoActiveRuntime", err)
		}
	})
	t.Run("active points nowhere", func(t *testing.T) {
		_, err := Resolve(writeIndex(t, `{"active":"r9","r1":"C:\\rt1"}`), "")
		if !errors.Is(err, ErrRuntimeNotFound) {
			t.Fatalf("error = %v, want ErrRuntimeNotFound", err)
		}
	})
}

func TestResolve_NoAnnotation(t *testing.T) {
	got, err := Resolve(writeIndex(t, `{"active":"r1","r1":"/opt/runtime"}`), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/opt/runtime" {
		t.Errorf("Resolve() = %q, want /opt/runtime", got)
	}
}

func TestList(t *testing.T) {
	idx, err := Parse([]byte(`{
		"active": "runtime-2.3.7.606",
		"runtime-2.3.7.606": "/rt/2.3.7.606&annot",
		"runtime-2023.4.0.113": "/rt/2023.4.0.113",
		"runtime-2.3.7.1000": "/rt/2.3.7.1000",
		"custom": "/rt/custom"
	}`))
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, r := range idx.List() {
		ids = append(ids, r.ID)
		if r.Active != (r.ID == "runtime-2.3.7.606") {
			t.Errorf("%s Active = %v", r.ID, r.Active)
		}
		if strings.Contains(r.Path, "&") {
			t.Errorf("%s Path = %q still carries an annotation", r.ID, r.Path)
		}
	}
	want := "runtime-2023.4.0.113,runtime-2.3.7.1000,runtime-2.3.7.606,custom"
	if got := strings.Join(ids, ","); got != want {
		t.Errorf("List() = %s, want %s", got, want)
	}

	latest, err := idx.Resolve(Latest)
	if err != nil {
		t.Fatal(err)
	}
	if latest != "/rt/2023.4.0.113" {
		t.Errorf("Resolve(Latest) = %q, want /rt/2023.4.0.113", latest)
	}
}
