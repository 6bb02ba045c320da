package typescript

import (
	"fmt"
)

// Severity classifies how a diagnostic affects a build.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	}
	return "info"
}

// Diagnostic is a single message produced by a compiler service, either
// while normalizing options or while transpiling a file. Diagnostics are
// ephemeral: they live for one operation and are never persisted.
type Diagnostic struct {
	Severity Severity

	// Code is the compiler's numeric code for the message (e.g. 1005 for
	// "';' expected"), or zero when the service has no numeric codes.
	Code int

	Message string

	// File, Line and Column locate the diagnostic when the service can
	// attribute it to a source position. Line and Column are 1-based;
	// a zero Line means no location is available.
	File   string
	Line   int
	Column int
}

// Format renders a diagnostic as a single line in the compiler's
// conventional format:
//
//	src/a.ts(3,7): error TS1005: ';' expected.
//
// The location prefix is omitted when the diagnostic has none, and the
// code is omitted when the service did not supply one.
func Format(d Diagnostic) string {
	var code string
	if d.Code != 0 {
		code = fmt.Sprintf(" TS%d", d.Code)
	}
	if d.Line > 0 && d.File != "" {
		return fmt.Sprintf("%s(%d,%d): %s%s: %s", d.File, d.Line, d.Column, d.Severity, code, d.Message)
	}
	return fmt.Sprintf("%s%s: %s", d.Severity, code, d.Message)
}

// HasErrors reports whether any diagnostic in the list is error-severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
