package plugin

import (
	"github.com/tsbridge/tsbridge/pkg/typescript"
)

// ConfigError reports a problem with the plugin configuration: a missing
// project config, a module kind the bundler cannot consume, or compiler
// options that failed normalization. Diagnostics carries the per-option
// problems when normalization failed.
type ConfigError struct {
	Message     string
	Diagnostics []typescript.Diagnostic
}

func (e *ConfigError) Error() string {
	return e.Message
}

// TranspileError reports error-severity diagnostics in a transformed file.
// The diagnostics have already been reported one by one; the error itself
// carries a fixed summary so build output stays stable.
type TranspileError struct {
	File        string
	Diagnostics []typescript.Diagnostic
}

func (e *TranspileError) Error() string {
	return "tsbridge: errors occurred while transpiling"
}
