// util/error.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"fmt"
	"strings"

	"github.com/peregrine-uas/peregrine/log"
)

// ErrorLogger accumulates validation errors while tracking context
// about what is being validated, making it possible to report all
// problems in a configuration instead of stopping at the first one.
type ErrorLogger struct {
	// Tracked via Push()/Pop() calls to remember what we're looking at
	// if an error is found.
	hierarchy []string
	// Actual error messages to report.
	errors []string
}

func (e *ErrorLogger) Push(s string) {
	e.hierarchy = append(e.hierarchy, s)
}

func (e *ErrorLogger) Pop() {
	e.hierarchy = e.hierarchy[:len(e.hierarchy)-1]
}

func (e *ErrorLogger) ErrorString(s string, args ...interface{}) {
	e.errors = append(e.errors, strings.Join(e.hierarchy, " / ")+": "+fmt.Sprintf(s, args...))
}

func (e *ErrorLogger) Error(err error) {
	e.errors = append(e.errors, strings.Join(e.hierarchy, " / ")+": "+err.Error())
}

func (e *ErrorLogger) HaveErrors() bool {
	return len(e.errors) > 0
}

func (e *ErrorLogger) Count() int {
	return len(e.errors)
}

func (e *ErrorLogger) PrintErrors(lg *log.Logger) {
	for _, err := range e.errors {
		lg.Errorf("%+v", err)
	}
}

func (e *ErrorLogger) String() string {
	return strings.Join(e.errors, "\n")
}
