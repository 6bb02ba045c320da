// Package esbuildplugin adapts the tsbridge plugin to esbuild's plugin
// API, so an esbuild build can run the full pipeline: compiler-backed
// resolution, the virtual tslib module, and per-file transforms.
package esbuildplugin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/tsbridge/tsbridge/pkg/plugin"
	"github.com/tsbridge/tsbridge/pkg/typescript"
)

// HelperNamespace is the esbuild namespace serving the virtual helper
// module.
const HelperNamespace = "tsbridge-tslib"

// New wraps the plugin for esbuild. Diagnostics for failed files are
// surfaced as esbuild messages, so they render in esbuild's own output; a
// silent Reporter on the plugin avoids printing them twice.
func New(p *plugin.Plugin) api.Plugin {
	return api.Plugin{
		Name: p.Name(),
		Setup: func(build api.PluginBuild) {
			setup(p, build)
		},
	}
}

func setup(p *plugin.Plugin, build api.PluginBuild) {
	build.OnStart(func() (api.OnStartResult, error) {
		return api.OnStartResult{}, p.BuildStart(context.Background())
	})

	build.OnResolve(api.OnResolveOptions{Filter: `.*`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
		id, ok, err := p.ResolveID(args.Path, args.Importer)
		if err != nil {
			return api.OnResolveResult{}, err
		}
		if !ok {
			return api.OnResolveResult{}, nil
		}
		if strings.HasPrefix(id, "\x00") {
			return api.OnResolveResult{Path: id, Namespace: HelperNamespace}, nil
		}
		return api.OnResolveResult{Path: id}, nil
	})

	build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: HelperNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
		source, ok, err := p.Load(args.Path)
		if err != nil {
			return api.OnLoadResult{}, err
		}
		if !ok {
			return api.OnLoadResult{}, nil
		}
		return api.OnLoadResult{Contents: &source, Loader: api.LoaderJS}, nil
	})

	build.OnLoad(api.OnLoadOptions{Filter: `\.(ts|tsx)$`}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
		code, err := os.ReadFile(args.Path)
		if err != nil {
			return api.OnLoadResult{}, err
		}

		res, err := p.Transform(context.Background(), string(code), args.Path)
		if err != nil {
			var terr *plugin.TranspileError
			if errors.As(err, &terr) {
				errs, warns := toMessages(terr.Diagnostics)
				return api.OnLoadResult{Errors: errs, Warnings: warns}, nil
			}
			return api.OnLoadResult{}, err
		}
		if res == nil {
			// Outside the plugin's filter; esbuild loads it natively.
			return api.OnLoadResult{}, nil
		}

		contents := res.Code
		if res.Map != nil {
			comment, err := inlineMapComment(res.Map)
			if err != nil {
				return api.OnLoadResult{}, fmt.Errorf("encode source map for %s: %w", args.Path, err)
			}
			contents += comment
		}
		return api.OnLoadResult{
			Contents:   &contents,
			Loader:     api.LoaderJS,
			ResolveDir: filepath.Dir(args.Path),
		}, nil
	})
}

func toMessages(diags []typescript.Diagnostic) (errs, warns []api.Message) {
	for _, d := range diags {
		msg := api.Message{Text: d.Message}
		if d.Code != 0 {
			msg.Text = fmt.Sprintf("TS%d: %s", d.Code, d.Message)
		}
		if d.File != "" && d.Line > 0 {
			msg.Location = &api.Location{File: d.File, Line: d.Line, Column: d.Column - 1}
		}
		if d.Severity == typescript.SeverityError {
			errs = append(errs, msg)
		} else {
			warns = append(warns, msg)
		}
	}
	return errs, warns
}

func inlineMapComment(m *plugin.SourceMap) (string, error) {
	bs, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return "\n//# sourceMappingURL=data:application/json;base64," + base64.StdEncoding.EncodeToString(bs), nil
}
