// Package tslib serves the TypeScript runtime-helpers module under a
// private virtual identifier, so that transpiled output importing "tslib"
// bundles a single copy of the helpers without touching node_modules.
package tslib

import (
	_ "embed"
)

// ModuleName is the reserved import specifier for the helpers module.
const ModuleName = "tslib"

// VirtualID is the identifier the helpers module is served under. The
// leading NUL byte keeps it out of the namespace of real files and signals
// to other plugins that the module is owned by this one.
const VirtualID = "\x00tslib"

//go:embed "tslib.es6.js"
var source string

// Source returns the bundled helper-library source text.
func Source() string {
	return source
}

// Module is a fixed virtual-module record: one well-known identifier mapped
// to helper source text chosen at construction time.
type Module struct {
	source string
}

// New returns a helpers module serving the bundled tslib source, or the
// override verbatim when it is non-empty.
func New(override string) *Module {
	if override != "" {
		return &Module{source: override}
	}
	return &Module{source: source}
}

// Resolve maps the reserved import specifier to the virtual identifier.
func (m *Module) Resolve(importee string) (string, bool) {
	if importee == ModuleName {
		return VirtualID, true
	}
	return "", false
}

// Load returns the helper source text for the virtual identifier and
// defers to other loaders for anything else.
func (m *Module) Load(id string) (string, bool) {
	if id == VirtualID {
		return m.source, true
	}
	return "", false
}
