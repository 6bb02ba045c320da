package plugin

import (
	"github.com/tsbridge/tsbridge/internal/logging"
	"github.com/tsbridge/tsbridge/pkg/typescript"
)

// Reporter receives diagnostics as the plugin encounters them, before any
// failure is raised. Implementations must be safe for concurrent use; the
// transform hook runs on whatever goroutines the host bundler uses.
type Reporter interface {
	Report(d typescript.Diagnostic)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(typescript.Diagnostic)

func (f ReporterFunc) Report(d typescript.Diagnostic) {
	f(d)
}

// logReporter writes formatted diagnostic lines to the logger, warnings
// and errors at their matching levels.
type logReporter struct {
	log *logging.Logger
	svc typescript.Service
}

func (r *logReporter) Report(d typescript.Diagnostic) {
	line := r.svc.FormatDiagnostic(d)
	switch d.Severity {
	case typescript.SeverityError:
		r.log.Errorf("%s", line)
	case typescript.SeverityWarning:
		r.log.Warnf("%s", line)
	default:
		r.log.Infof("%s", line)
	}
}
