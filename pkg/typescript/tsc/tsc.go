// Package tsc provides a typescript.Service that runs the reference
// TypeScript compiler inside an embedded JavaScript runtime. It trades a
// lot of speed for output fidelity with tsc; the esbuild service is the
// default for a reason.
//
// The embedded compiler returns a single string per file, so diagnostics
// are limited to fatal compiler failures and source maps are recovered by
// splitting off the inline map comment.
package tsc

import (
	"context"
	"encoding/base64"
	"maps"
	"regexp"
	"strconv"
	"strings"

	compiler "github.com/clarkmcc/go-typescript"

	"github.com/tsbridge/tsbridge/internal/options"
	"github.com/tsbridge/tsbridge/internal/resolve"
	"github.com/tsbridge/tsbridge/internal/tsconfig"
	"github.com/tsbridge/tsbridge/pkg/typescript"
)

// Service implements typescript.Service by evaluating the bundled tsc
// inside a goja runtime. Construct with New.
type Service struct {
	baseDir  string
	resolver *resolve.Resolver
	version  string
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

// WithCompilerVersion pins the embedded compiler release tag. Defaults to
// the runtime's bundled version.
func (s *Service) WithCompilerVersion(version string) *Service {
	s.version = version
	return s
}

func (s *Service) Transpile(ctx context.Context, req typescript.TranspileRequest) (*typescript.TranspileResult, error) {
	copts := make(map[string]any, len(req.Options.Raw)+1)
	maps.Copy(copts, req.Options.Raw)

	// The runtime hands back one string per file, so a separate map file is
	// impossible. Ask for an inline map and split it off afterwards.
	if wantMap, _ := copts["sourceMap"].(bool); wantMap {
		delete(copts, "sourceMap")
		copts["inlineSourceMap"] = true
	}

	var code string
	var err error
	if s.version != "" {
		code, err = compiler.TranspileCtx(ctx, strings.NewReader(req.Source),
			compiler.WithCompileOptions(copts), compiler.WithVersion(s.version))
	} else {
		code, err = compiler.TranspileCtx(ctx, strings.NewReader(req.Source),
			compiler.WithCompileOptions(copts))
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &typescript.TranspileResult{
			Diagnostics: []typescript.Diagnostic{errDiagnostic(err, req.FileName)},
		}, nil
	}

	code, m := splitInlineMap(code)
	return &typescript.TranspileResult{Code: code, Map: m}, nil
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

var tsCodeRe = regexp.MustCompile(`TS(\d+)`)

// errDiagnostic converts a compiler failure into a diagnostic, recovering
// the TS error code from the message when the compiler included one.
func errDiagnostic(err error, file string) typescript.Diagnostic {
	d := typescript.Diagnostic{
		Severity: typescript.SeverityError,
		Message:  err.Error(),
		File:     file,
	}
	if m := tsCodeRe.FindStringSubmatch(err.Error()); m != nil {
		d.Code, _ = strconv.Atoi(m[1])
	}
	return d
}

// splitInlineMap strips a trailing inline source-map comment and returns
// the decoded map separately.
func splitInlineMap(code string) (string, []byte) {
	i := strings.LastIndex(code, "//# sourceMappingURL=data:application/json")
	if i < 0 {
		return code, nil
	}
	rest := code[i:]
	j := strings.Index(rest, "base64,")
	if j < 0 {
		return code, nil
	}
	m, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rest[j+len("base64,"):]))
	if err != nil {
		return code, nil
	}
	return strings.TrimRight(code[:i], "\n") + "\n", m
}
