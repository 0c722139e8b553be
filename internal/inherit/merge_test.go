package inherit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const baseTemplate = `{
  "id": "root",
  "name": "Main",
  "children": [
    {
      "id": "A",
      "x": 0
    },
    {
      "id": "B",
      "x": 0,
      "nested": {
        "id": "C",
        "y": "<keep>&"
      }
    }
  ],
  "version": 1.50
}`

func mustMerge(t *testing.T, override, base string) string {
	t.Helper()
	out, err := MergeJSON(override, []byte(base))
	if err != nil {
		t.Fatalf("MergeJSON() error: %v", err)
	}
	return string(out)
}

func field(t *testing.T, doc, path string) any {
	t.Helper()
	tree, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	var cur any = tree
	for _, part := range strings.Split(path, ".") {
		switch c := cur.(type) {
		case *Object:
			v, ok := c.Get(part)
			if !ok {
				return nil
			}
			cur = v
		case []any:
			idx := int(part[0] - '0')
			cur = c[idx]
		default:
			t.Fatalf("cannot descend into %T at %q", cur, part)
		}
	}
	return cur
}

func TestMerge_EmptyOverride(t *testing.T) {
	for _, override := range []string{"", `{"plain": "json", "no": "directives"}`} {
		if got := mustMerge(t, override, baseTemplate); got != baseTemplate {
			t.Errorf("MergeJSON(%q) changed the template:\n%s", override, got)
		}
	}
}

func TestMerge_TargetsMatchingIDs(t *testing.T) {
	got := mustMerge(t, `{"x": ←B|{"x": 1}}`, baseTemplate)

	if v := field(t, got, "children.0.x"); v == nil || v.(interface{ String() string }).String() != "0" {
		t.Errorf("A.x = %v, want 0", v)
	}
	if v := field(t, got, "children.1.x"); v == nil || v.(interface{ String() string }).String() != "1" {
		t.Errorf("B.x = %v, want 1", v)
	}

	if got := mustMerge(t, `←Z|{"x": 1}`, baseTemplate); got != baseTemplate {
		t.Errorf("unmatched directive changed the template:\n%s", got)
	}
}

func TestMerge_NestedBraces(t *testing.T) {
	got := mustMerge(t, `←A|{"obj": {"y": 2, "deep": {"z": "}"}}, "after": true}`, baseTemplate)

	if v := field(t, got, "children.0.obj.deep.z"); v != "}" {
		t.Errorf("A.obj.deep.z = %v, want }", v)
	}
	if v := field(t, got, "children.0.after"); v != true {
		t.Errorf("A.after = %v, want true", v)
	}
}

func TestMerge_NestedNodeInObject(t *testing.T) {
	got := mustMerge(t, `←C|{"y": "changed"}`, baseTemplate)
	if v := field(t, got, "children.1.nested.y"); v != "changed" {
		t.Errorf("C.y = %v, want changed", v)
	}
}

func TestMerge_DuplicateIDsApplyInOrder(t *testing.T) {
	got := mustMerge(t, `←A|{"x": 1, "p": "first"} ←A|{"x": 2}`, baseTemplate)
	if v := field(t, got, "children.0.x"); v.(interface{ String() string }).String() != "2" {
		t.Errorf("A.x = %v, want 2", v)
	}
	if v := field(t, got, "children.0.p"); v != "first" {
		t.Errorf("A.p = %v, want first", v)
	}
}

func TestMerge_KeyOrder(t *testing.T) {
	got := mustMerge(t, `←root|{"extra": 1, "name": "Renamed"}`, baseTemplate)
	tree, err := Decode([]byte(got))
	if err != nil {
		t.Fatal(err)
	}
	keys := strings.Join(tree.(*Object).Keys(), ",")
	if want := "id,name,children,version,extra"; keys != want {
		t.Errorf("keys = %s, want %s", keys, want)
	}
}

func TestMerge_FormatErrors(t *testing.T) {
	tests := []struct {
		name     string
		override string
	}{
		{"malformed json", `←A|{"x": }`},
		{"unbalanced", `←A|{"x": {"y": 1}`},
		{"missing end sentinel", `←A {"x": 1}`},
		{"missing object", `←A|"x"`},
		{"second span bad", `←A|{"x": 1} ←B|{x}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MergeJSON(tt.override, []byte(baseTemplate))
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("MergeJSON() error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestMerge_InvalidBase(t *testing.T) {
	_, err := MergeJSON("", []byte(`{"id": `))
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("MergeJSON() error = %v, want ErrFormat", err)
	}
}

func TestDirectives(t *testing.T) {
	src := "junk ←old←A|{\"a\": 1}\n more ←B|\n  {\"b\": {\"c\": 2}}"
	var ids []string
	for d, err := range Directives(src) {
		if err != nil {
			t.Fatalf("Directives() error: %v", err)
		}
		ids = append(ids, d.ID)
	}
	if got := strings.Join(ids, ","); got != "A,B" {
		t.Errorf("ids = %s, want A,B", got)
	}
}

func TestDirectives_StopsEarly(t *testing.T) {
	n := 0
	for range Directives(`←A|{} ←B|{} ←C|{}`) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iterated %d directives, want 2", n)
	}
}

func TestMergeFile(t *testing.T) {
	dir := t.TempDir()
	overridePath := filepath.Join(dir, "options_main.inherited.yy")
	basePath := filepath.Join(dir, "options_main.yy")
	outPath := filepath.Join(dir, "MainOptions.json")

	if err := os.WriteFile(overridePath, []byte(`←B|{"x": 7}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(basePath, []byte(baseTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MergeFile(overridePath, basePath, outPath); err != nil {
		t.Fatalf("MergeFile() error: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"x": 7`) {
		t.Errorf("merged output missing override:\n%s", data)
	}

	os.Remove(outPath)
	if err := os.WriteFile(overridePath, []byte(`←B|{"x": }`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MergeFile(overridePath, basePath, outPath); !errors.Is(err, ErrFormat) {
		t.Fatalf("MergeFile() error = %v, want ErrFormat", err)
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Errorf("MergeFile() wrote output despite a format error")
	}
}
