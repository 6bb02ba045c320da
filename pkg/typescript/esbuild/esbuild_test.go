package esbuild_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsbridge/tsbridge/internal/test/tempfs"
	"github.com/tsbridge/tsbridge/pkg/typescript"
	"github.com/tsbridge/tsbridge/pkg/typescript/esbuild"
)

func TestTranspileStripsTypes(t *testing.T) {
	svc := esbuild.New()

	res, err := svc.Transpile(t.Context(), typescript.TranspileRequest{
		FileName: "src/main.ts",
		Source:   "const x: number = 1\nexport default x\n",
		Options: typescript.CompilerOptions{
			Module:    "esnext",
			Target:    "es2019",
			SourceMap: true,
		},
		ReportDiagnostics: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if typescript.HasErrors(res.Diagnostics) {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
	if !strings.Contains(res.Code, "const x = 1") || strings.Contains(res.Code, ": number") {
		t.Fatalf("unexpected output:\n%s", res.Code)
	}

	var m struct {
		Version int      `json:"version"`
		Sources []string `json:"sources"`
	}
	if err := json.Unmarshal(res.Map, &m); err != nil {
		t.Fatalf("map is not JSON: %v", err)
	}
	if m.Version != 3 || len(m.Sources) != 1 || m.Sources[0] != "src/main.ts" {
		t.Fatalf("unexpected source map: %+v", m)
	}
}

func TestTranspileSyntaxError(t *testing.T) {
	svc := esbuild.New()

	res, err := svc.Transpile(t.Context(), typescript.TranspileRequest{
		FileName:          "src/broken.ts",
		Source:            "const = 1\n",
		ReportDiagnostics: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !typescript.HasErrors(res.Diagnostics) {
		t.Fatal("expected error diagnostics")
	}

	d := res.Diagnostics[0]
	if d.File != "src/broken.ts" || d.Line != 1 {
		t.Fatalf("unexpected diagnostic location: %+v", d)
	}
	if line := svc.FormatDiagnostic(d); !strings.HasPrefix(line, "src/broken.ts(1,") {
		t.Fatalf("unexpected diagnostic line: %s", line)
	}
}

func TestTranspileModuleKinds(t *testing.T) {
	tests := []struct {
		note   string
		module string
		exp    string
	}{
		{note: "commonjs emits exports", module: "commonjs", exp: "module.exports"},
		{note: "esnext keeps export statements", module: "esnext", exp: "export"},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			res, err := esbuild.New().Transpile(t.Context(), typescript.TranspileRequest{
				FileName: "src/mod.ts",
				Source:   "export const a: string = 'a'\n",
				Options:  typescript.CompilerOptions{Module: tc.module},
			})
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(res.Code, tc.exp) {
				t.Fatalf("expected output containing %q:\n%s", tc.exp, res.Code)
			}
		})
	}
}

func TestTranspileTSX(t *testing.T) {
	res, err := esbuild.New().Transpile(t.Context(), typescript.TranspileRequest{
		FileName: "src/app.tsx",
		Source:   "export const el = <div/>;\n",
		Options:  typescript.CompilerOptions{Module: "esnext"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Code, "React.createElement") {
		t.Fatalf("expected the classic JSX factory:\n%s", res.Code)
	}
}

func TestTranspileLegacyDecorators(t *testing.T) {
	source := "function dec(c: any) { return c }\n@dec\nexport class A {}\n"

	res, err := esbuild.New().Transpile(t.Context(), typescript.TranspileRequest{
		FileName: "src/a.ts",
		Source:   source,
		Options: typescript.CompilerOptions{
			Module: "esnext",
			Raw:    map[string]any{"experimentalDecorators": true},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Code, "__decorateClass") {
		t.Fatalf("expected legacy decorator lowering:\n%s", res.Code)
	}
}

func TestTranspileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := esbuild.New().Transpile(ctx, typescript.TranspileRequest{FileName: "a.ts"}); err == nil {
		t.Fatal("expected a context error")
	}
}

func TestResolveModule(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{
		"src/a.ts": "import './b'\n",
		"src/b.ts": "",
	}, func(t *testing.T, root string) {
		svc := esbuild.New().WithBaseDir(root)

		got, err := svc.ResolveModule("./b", filepath.Join(root, "src", "a.ts"), typescript.CompilerOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if got != filepath.Join(root, "src", "b.ts") {
			t.Fatalf("unexpected resolution: %q", got)
		}

		missing, err := svc.ResolveModule("unknown-package", filepath.Join(root, "src", "a.ts"), typescript.CompilerOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if missing != "" {
			t.Fatalf("expected a miss, got %q", missing)
		}
	})
}

func TestConvertOptions(t *testing.T) {
	svc := esbuild.New()

	opts, diags, err := svc.ConvertOptions(map[string]any{"module": "esnext", "sourceMap": true})
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if opts.Module != "esnext" || !opts.SourceMap {
		t.Fatalf("unexpected options: %+v", opts)
	}

	_, diags, err = svc.ConvertOptions(map[string]any{"modul": "esnext"})
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 1 || diags[0].Code != 5023 {
		t.Fatalf("expected an unknown-option diagnostic, got %v", diags)
	}
}
