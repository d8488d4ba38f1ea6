// util/error_test.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"strings"
	"testing"
)

func TestErrorLoggerHierarchy(t *testing.T) {
	var e ErrorLogger
	if e.HaveErrors() {
		t.Errorf("fresh logger should be clean")
	}

	e.Push("bands parameters")
	e.Push("alertor")
	e.ErrorString("level %d has no detector", 2)
	e.Pop()
	e.ErrorString("lookahead_time must be positive")
	e.Pop()

	if e.Count() != 2 {
		t.Fatalf("expected 2 errors, got %d", e.Count())
	}
	s := e.String()
	if !strings.Contains(s, "bands parameters / alertor: level 2 has no detector") {
		t.Errorf("nested context missing:\n%s", s)
	}
	if !strings.Contains(s, "bands parameters: lookahead_time") {
		t.Errorf("outer context missing:\n%s", s)
	}
}
