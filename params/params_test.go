// params/params_test.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package params

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	input := `
# vehicle parameters
XTRK_DEV  = 5
XTRK_GAIN = 0.3
RES_SPEED = 2.5 m/s
TAKEOFF_ALT = 10 # metres
UNKNOWN_KEY = whatever
`
	tbl, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cases := []struct {
		key  string
		want float64
	}{
		{"XTRK_DEV", 5},
		{"XTRK_GAIN", 0.3},
		{"RES_SPEED", 2.5},
		{"TAKEOFF_ALT", 10},
	}
	for _, c := range cases {
		if got, ok := tbl.Lookup(c.key); !ok || got != c.want {
			t.Errorf("%s = %g (%v), expected %g", c.key, got, ok, c.want)
		}
	}

	// Unrecognized keys are retained, not errors.
	if !tbl.Has("UNKNOWN_KEY") {
		t.Errorf("unknown keys should be kept")
	}
	if _, ok := tbl.Lookup("UNKNOWN_KEY"); ok {
		t.Errorf("non-numeric value should miss numeric lookup")
	}
	if _, ok := tbl.Lookup("MISSING"); ok {
		t.Errorf("missing key should miss")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(strings.NewReader("NO_EQUALS_SIGN\n")); err == nil {
		t.Errorf("missing '=' should be an error")
	}
	if _, err := Load(strings.NewReader("= 5\n")); err == nil {
		t.Errorf("empty key should be an error")
	}
}

func TestLookupOr(t *testing.T) {
	tbl := NewTable()
	tbl.SetFloat("A", 2)
	if v, present := tbl.LookupOr("A", 7); v != 2 || !present {
		t.Errorf("LookupOr on a present key: %g %v", v, present)
	}
	if v, present := tbl.LookupOr("B", 7); v != 7 || present {
		t.Errorf("LookupOr on a missing key: %g %v", v, present)
	}
}

func TestWritePreservesOrder(t *testing.T) {
	input := "B = 2\nA = 1\nC = 3\n"
	tbl, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var buf bytes.Buffer
	if err := tbl.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != input {
		t.Errorf("round trip changed the file:\n%q\nvs\n%q", buf.String(), input)
	}
}
