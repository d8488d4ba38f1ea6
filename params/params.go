// params/params.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package params reads the plain key-value parameter files used for
// vehicle and DAA configuration. Lines are "KEY = value [unit]";
// unrecognized keys are retained so that a loaded file can be written
// back without loss, and lookups of unknown keys simply miss.
package params

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iancoleman/orderedmap"
)

// Table is an order-preserving parameter map. Values are stored as
// strings; numeric accessors parse on demand with boundary unit
// conversion left to the caller.
type Table struct {
	m *orderedmap.OrderedMap
}

func NewTable() *Table {
	return &Table{m: orderedmap.New()}
}

// Load parses a key-value stream. '#' starts a comment; blank lines
// are skipped. A trailing unit token after the value is ignored.
func Load(r io.Reader) (*Table, error) {
	t := NewTable()
	scan := bufio.NewScanner(r)
	line := 0
	for scan.Scan() {
		line++
		s := scan.Text()
		if i := strings.IndexByte(s, '#'); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key, val, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '=' in %q", line, s)
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", line)
		}
		// Drop a trailing unit annotation: "10 [m]" or "10 m".
		if f := strings.Fields(val); len(f) > 1 {
			val = f[0]
		}
		t.m.Set(key, val)
	}
	return t, scan.Err()
}

// Set stores a value under the key, replacing any previous value.
func (t *Table) Set(key string, value string) {
	t.m.Set(key, value)
}

func (t *Table) SetFloat(key string, v float64) {
	t.m.Set(key, strconv.FormatFloat(v, 'g', -1, 64))
}

// Lookup returns the numeric value of a key.
func (t *Table) Lookup(key string) (float64, bool) {
	raw, ok := t.m.Get(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw.(string), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LookupOr returns the numeric value of a key, or def when absent or
// unparsable; the second result reports whether the key was present.
func (t *Table) LookupOr(key string, def float64) (float64, bool) {
	if v, ok := t.Lookup(key); ok {
		return v, true
	}
	return def, false
}

// Value returns the numeric value of a key, or zero when absent.
func (t *Table) Value(key string) float64 {
	v, _ := t.Lookup(key)
	return v
}

func (t *Table) Int(key string) int {
	return int(t.Value(key))
}

func (t *Table) String(key string) string {
	raw, ok := t.m.Get(key)
	if !ok {
		return ""
	}
	return raw.(string)
}

func (t *Table) Has(key string) bool {
	_, ok := t.m.Get(key)
	return ok
}

// Keys returns the keys in file order.
func (t *Table) Keys() []string {
	return t.m.Keys()
}

// Write emits the table in file order.
func (t *Table) Write(w io.Writer) error {
	for _, k := range t.m.Keys() {
		v, _ := t.m.Get(k)
		if _, err := fmt.Fprintf(w, "%s = %s\n", k, v); err != nil {
			return err
		}
	}
	return nil
}
