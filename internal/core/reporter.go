package core

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Reporter is the failure sink supplied by the host test framework.
type Reporter interface {
	Report(message string, location SourceLocation)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(message string, location SourceLocation)

// Report calls f.
func (f ReporterFunc) Report(message string, location SourceLocation) {
	f(message, location)
}

// SourceLocation identifies the call site of an assertion or confirmation. It is
// used only for diagnostics.
type SourceLocation struct {
	File   string
	Line   int
	Column int
	ID     string
}

// String renders the location as file:line, with the column when known.
func (l SourceLocation) String() string {
	if l.File == "" {
		return "<unknown>"
	}

	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", filepath.Base(l.File), l.Line, l.Column)
	}

	return fmt.Sprintf("%s:%d", filepath.Base(l.File), l.Line)
}

// Here returns the location of the caller skip frames above Here's caller.
func Here(skip int) SourceLocation {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return SourceLocation{}
	}

	return SourceLocation{File: file, Line: line}
}

// TestingT is the minimal interface callspy needs from testing.T. Failures are
// reported with Errorf so several assertions in one test are all reported.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
}

// ForTest adapts a testing.T (or anything shaped like it) to Reporter.
func ForTest(t TestingT) Reporter {
	return &testReporter{t: t}
}

type testReporter struct {
	t TestingT
}

func (r *testReporter) Report(message string, location SourceLocation) {
	r.t.Helper()
	r.t.Errorf("%s: %s", location, message)
}

// Cleanup forwards to the underlying test when it supports cleanups.
func (r *testReporter) Cleanup(cleanupFunc func()) {
	if registrar, ok := r.t.(cleanupRegistrar); ok {
		registrar.Cleanup(cleanupFunc)
	}
}

// cleanupRegistrar is the interface needed for registering cleanup functions.
// This is satisfied by *testing.T and *testing.B.
type cleanupRegistrar interface {
	Cleanup(cleanupFunc func())
}
