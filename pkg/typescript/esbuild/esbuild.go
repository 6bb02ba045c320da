// Package esbuild provides a typescript.Service backed by the esbuild
// transform API. It is the default compiler service: no external toolchain,
// fast startup, and per-file output close enough to tsc for bundling.
package esbuild

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/tsbridge/tsbridge/internal/options"
	"github.com/tsbridge/tsbridge/internal/resolve"
	"github.com/tsbridge/tsbridge/internal/tsconfig"
	"github.com/tsbridge/tsbridge/pkg/typescript"
)

// Service implements typescript.Service on top of esbuild. Construct with
// New; the zero value has no resolver.
type Service struct {
	baseDir  string
	resolver *resolve.Resolver
}

func New() *Service {
	return &Service{resolver: resolve.New()}
}

// WithBaseDir anchors relative baseUrl and paths options during module
// resolution. Defaults to the process working directory.
func (s *Service) WithBaseDir(dir string) *Service {
	s.baseDir = dir
	return s
}

// WithResolutionHost overrides the filesystem probes used for module
// resolution.
func (s *Service) WithResolutionHost(host resolve.Host) *Service {
	s.resolver = resolve.New().WithHost(host)
	return s
}

func (s *Service) Transpile(ctx context.Context, req typescript.TranspileRequest) (*typescript.TranspileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := api.Transform(req.Source, transformOptions(req))

	res := &typescript.TranspileResult{Code: string(result.Code)}
	if len(result.Map) > 0 {
		res.Map = result.Map
	}
	for _, msg := range result.Errors {
		res.Diagnostics = append(res.Diagnostics, toDiagnostic(msg, typescript.SeverityError))
	}
	if req.ReportDiagnostics {
		for _, msg := range result.Warnings {
			res.Diagnostics = append(res.Diagnostics, toDiagnostic(msg, typescript.SeverityWarning))
		}
	}
	return res, nil
}

func (s *Service) ConvertOptions(raw map[string]any) (typescript.CompilerOptions, []typescript.Diagnostic, error) {
	return options.Decode(raw)
}

func (s *Service) ParseConfig(path string) (*typescript.ProjectConfig, error) {
	file, err := tsconfig.LoadChain(path)
	if err != nil {
		return nil, err
	}
	return &typescript.ProjectConfig{
		Path:            file.Path,
		CompilerOptions: file.CompilerOptions,
		Files:           file.Files,
		Include:         file.Include,
		Exclude:         file.Exclude,
	}, nil
}

func (s *Service) ResolveModule(importee, importer string, opts typescript.CompilerOptions) (string, error) {
	return s.resolver.Resolve(importee, importer, resolve.Options{
		BaseDir: s.baseDir,
		BaseURL: opts.BaseURL,
		Paths:   opts.Paths,
	}), nil
}

func (s *Service) FormatDiagnostic(d typescript.Diagnostic) string {
	return typescript.Format(d)
}

func transformOptions(req typescript.TranspileRequest) api.TransformOptions {
	opts := req.Options

	to := api.TransformOptions{
		Sourcefile:  req.FileName,
		Loader:      loaderFor(req.FileName),
		Target:      targetFor(opts.Target),
		Format:      formatFor(opts.Module),
		TsconfigRaw: tsconfigRaw(opts),
	}

	switch {
	case opts.SourceMap:
		to.Sourcemap = api.SourceMapExternal
	case opts.InlineSourceMap:
		to.Sourcemap = api.SourceMapInline
	}
	if opts.InlineSources {
		to.SourcesContent = api.SourcesContentInclude
	}

	switch strings.ToLower(opts.JSX) {
	case "preserve", "react-native":
		to.JSX = api.JSXPreserve
	case "react-jsx":
		to.JSX = api.JSXAutomatic
	case "react-jsxdev":
		to.JSX = api.JSXAutomatic
		to.JSXDev = true
	}
	to.JSXFactory = opts.JSXFactory
	to.JSXFragment = opts.JSXFragmentFactory
	to.JSXImportSource = opts.JSXImportSource

	return to
}

// tsconfigRaw forwards the options esbuild only reads from tsconfig text
// rather than from first-class transform fields. Presence matters for these,
// so they are taken from the raw mapping, not the typed set.
func tsconfigRaw(opts typescript.CompilerOptions) string {
	keep := map[string]any{}
	for _, k := range []string{"experimentalDecorators", "useDefineForClassFields", "verbatimModuleSyntax", "alwaysStrict"} {
		if v, ok := opts.Raw[k]; ok {
			keep[k] = v
		}
	}
	if len(keep) == 0 {
		return ""
	}
	bs, err := json.Marshal(map[string]any{"compilerOptions": keep})
	if err != nil {
		return ""
	}
	return string(bs)
}

func loaderFor(file string) api.Loader {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	case ".js", ".mjs", ".cjs":
		return api.LoaderJS
	case ".json":
		return api.LoaderJSON
	default:
		return api.LoaderTS
	}
}

func targetFor(target string) api.Target {
	switch strings.ToLower(target) {
	case "":
		return api.DefaultTarget
	case "es3", "es5":
		// ES3 cannot be lowered to; ES5 is the floor.
		return api.ES5
	case "es6", "es2015":
		return api.ES2015
	case "es2016":
		return api.ES2016
	case "es2017":
		return api.ES2017
	case "es2018":
		return api.ES2018
	case "es2019":
		return api.ES2019
	case "es2020":
		return api.ES2020
	case "es2021":
		return api.ES2021
	case "es2022":
		return api.ES2022
	case "es2023":
		return api.ES2023
	default:
		return api.ESNext
	}
}

func formatFor(module string) api.Format {
	switch strings.ToLower(module) {
	case "":
		return api.FormatDefault
	case "commonjs":
		return api.FormatCommonJS
	default:
		return api.FormatESModule
	}
}

func toDiagnostic(msg api.Message, sev typescript.Severity) typescript.Diagnostic {
	d := typescript.Diagnostic{Severity: sev, Message: msg.Text}
	if msg.Location != nil {
		d.File = msg.Location.File
		d.Line = msg.Location.Line
		d.Column = msg.Location.Column + 1
	}
	return d
}
