package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tsbridge/tsbridge/internal/tslib"
	"github.com/tsbridge/tsbridge/pkg/typescript"
)

// Result is the outcome of a successful transform: the emitted JavaScript
// and the parsed source map, nil when the options did not produce one.
type Result struct {
	Code string
	Map  *SourceMap
}

// SourceMap is a parsed version-3 source map.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// ResolveID resolves an import specifier on the compiler's behalf. The
// boolean reports whether the plugin claims the import; a false return
// hands resolution back to the bundler. Resolution problems never fail the
// build.
func (p *Plugin) ResolveID(importee, importer string) (string, bool, error) {
	if err := p.mustBeFinal(); err != nil {
		return "", false, err
	}

	if importee == tslib.ModuleName {
		return tslib.VirtualID, true, nil
	}
	if importer == "" {
		// Entry points are the bundler's business.
		return "", false, nil
	}
	importer = strings.ReplaceAll(importer, "\\", "/")

	resolved, err := p.svc.ResolveModule(importee, importer, p.compiled)
	if err != nil {
		p.log.Debugf("resolve %s from %s: %v", importee, importer, err)
		return "", false, nil
	}
	if resolved == "" {
		return "", false, nil
	}
	if strings.HasSuffix(resolved, ".d.ts") {
		// Declaration files carry no runtime code; let the bundler find
		// the real module.
		return "", false, nil
	}
	return resolved, true, nil
}

// Load serves the virtual helper module. Every other id is passed back to
// the bundler.
func (p *Plugin) Load(id string) (string, bool, error) {
	if err := p.mustBeFinal(); err != nil {
		return "", false, err
	}
	if source, ok := p.helpers.Load(id); ok {
		return source, true, nil
	}
	return "", false, nil
}

// Transform transpiles one file. Files outside the filter return (nil, nil)
// untouched. Diagnostics are reported before any failure is raised; a file
// with error diagnostics fails with a TranspileError after all of them have
// been reported.
func (p *Plugin) Transform(ctx context.Context, code, id string) (*Result, error) {
	if err := p.mustBeFinal(); err != nil {
		return nil, err
	}
	if !p.filter.Match(id) {
		return nil, nil
	}

	res, err := p.svc.Transpile(ctx, typescript.TranspileRequest{
		FileName:          id,
		Source:            code,
		Options:           p.compiled,
		ReportDiagnostics: true,
	})
	if err != nil {
		return nil, fmt.Errorf("tsbridge: transpile %s: %w", id, err)
	}

	// Code 1204 complains about module output with downlevel targets, a
	// combination the bundler handles fine.
	diags := dropCode(res.Diagnostics, 1204)
	for _, d := range diags {
		p.reporter.Report(d)
	}
	if typescript.HasErrors(diags) {
		return nil, &TranspileError{File: id, Diagnostics: diags}
	}

	out := &Result{Code: res.Code}
	if len(res.Map) > 0 {
		var m SourceMap
		if err := json.Unmarshal(res.Map, &m); err != nil {
			return nil, fmt.Errorf("tsbridge: parse source map for %s: %w", id, err)
		}
		out.Map = &m
	}
	return out, nil
}

func dropCode(diags []typescript.Diagnostic, code int) []typescript.Diagnostic {
	var out []typescript.Diagnostic
	for _, d := range diags {
		if d.Code != code {
			out = append(out, d)
		}
	}
	return out
}
