package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrDanglingReference reports a ${key} reference to a key the table does
// not define.
var ErrDanglingReference = errors.New("dangling macro reference")

// Table is a string to string mapping that serializes in insertion order.
type Table struct {
	keys []string
	vals map[string]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{vals: make(map[string]string)}
}

// Set assigns key. A new key is appended; an existing one keeps its place.
func (t *Table) Set(key, val string) {
	if _, ok := t.vals[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.vals[key] = val
}

// Get returns the value of key.
func (t *Table) Get(key string) (string, bool) {
	v, ok := t.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (t *Table) Keys() []string {
	return t.keys
}

// Len returns the number of keys.
func (t *Table) Len() int {
	return len(t.keys)
}

// MarshalJSON encodes t as a compact JSON object in insertion order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	out := []byte{'{'}
	for i, k := range t.keys {
		if i > 0 {
			out = append(out, ',')
		}
		for j, s := range [2]string{k, t.vals[k]} {
			buf.Reset()
			if err := enc.Encode(s); err != nil {
				return nil, err
			}
			out = append(out, bytes.TrimRight(buf.Bytes(), "\n")...)
			if j == 0 {
				out = append(out, ':')
			}
		}
	}
	return append(out, '}'), nil
}

var refRE = regexp.MustCompile(`\$\{([^}]*)\}`)

// References returns the keys referenced as ${key} from the value of key,
// in order of appearance.
func (t *Table) References(key string) []string {
	var refs []string
	for _, m := range refRE.FindAllStringSubmatch(t.vals[key], -1) {
		refs = append(refs, m[1])
	}
	return refs
}

// CheckClosure reports the first reference to an undefined key.
func (t *Table) CheckClosure() error {
	for _, k := range t.keys {
		for _, ref := range t.References(k) {
			if _, ok := t.vals[ref]; !ok {
				return fmt.Errorf("%w: %s references ${%s}", ErrDanglingReference, k, ref)
			}
		}
	}
	return nil
}
