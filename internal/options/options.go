// Package options implements the compiler-option merge: project-config
// options, plugin defaults and caller overrides are reconciled into one
// finalized, validated set before any file is touched.
package options

import (
	"fmt"
	"maps"
	"strings"
)

// ModuleKinds is the whitelist of output module kinds the bundler can
// consume. Anything else (AMD, UMD, System, ...) would emit module wrappers
// the bundler cannot splice into its graph.
var ModuleKinds = []string{"ES2015", "ES6", "ESNext", "CommonJS"}

// wholeProgramOnly lists options that require the compiler to see the whole
// program. They are meaningless (or rejected outright) in isolated per-file
// transpilation and are stripped before merging.
var wholeProgramOnly = []string{
	"declaration",
	"declarationMap",
	"declarationDir",
	"composite",
	"incremental",
	"tsBuildInfoFile",
	"noEmit",
	"emitDeclarationOnly",
	"out",
	"outFile",
}

// Defaults returns the plugin's built-in compiler options: ES-module
// output, helpers imported from tslib rather than emitted inline, isolated
// per-file mode, and source maps for the bundler to chain.
func Defaults() map[string]any {
	return map[string]any{
		"module":           "esnext",
		"moduleResolution": "node",
		"sourceMap":        true,
		"isolatedModules":  true,
		"importHelpers":    true,
		"noEmitHelpers":    true,
	}
}

// Sanitize adjusts a raw option mapping for isolated per-file
// transpilation: whole-program-only options are dropped and isolated-module
// mode is forced. The input is not modified. Sanitize is idempotent, so it
// can be applied to project options and caller overrides independently
// before they are merged.
func Sanitize(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw)+1)
	maps.Copy(out, raw)
	for _, k := range wholeProgramOnly {
		delete(out, k)
	}
	out["isolatedModules"] = true
	return out
}

// Merge combines sanitized project options, plugin defaults and sanitized
// caller overrides into one raw mapping. Precedence on key collision:
// project < defaults < overrides.
func Merge(project, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(project)+len(overrides)+8)
	maps.Copy(merged, Sanitize(project))
	maps.Copy(merged, Defaults())
	maps.Copy(merged, Sanitize(overrides))
	return merged
}

// CheckModuleKind validates the merged module kind against the whitelist,
// case-insensitively.
func CheckModuleKind(merged map[string]any) error {
	module, _ := merged["module"].(string)
	for _, kind := range ModuleKinds {
		if strings.EqualFold(module, kind) {
			return nil
		}
	}
	return fmt.Errorf("tsbridge: module kind must be one of 'ES2015', 'ES6', 'ESNext' or 'CommonJS', found: '%v'", merged["module"])
}
