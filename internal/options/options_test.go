package options_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tsbridge/tsbridge/internal/options"
	"github.com/tsbridge/tsbridge/pkg/typescript"
)

func TestMergePrecedence(t *testing.T) {
	tests := []struct {
		note      string
		project   map[string]any
		overrides map[string]any
		exp       map[string]any
		absent    []string
	}{
		{
			note:    "defaults win over project config",
			project: map[string]any{"module": "amd", "target": "es5"},
			exp:     map[string]any{"module": "esnext", "target": "es5"},
		},
		{
			note:      "overrides win over defaults",
			overrides: map[string]any{"module": "commonjs"},
			exp:       map[string]any{"module": "commonjs"},
		},
		{
			note:      "overrides win over project config",
			project:   map[string]any{"target": "es5"},
			overrides: map[string]any{"target": "es2017"},
			exp:       map[string]any{"target": "es2017"},
		},
		{
			note:      "whole-program options are stripped from both sides",
			project:   map[string]any{"declaration": true, "composite": true},
			overrides: map[string]any{"outFile": "bundle.js", "noEmit": true},
			exp:       map[string]any{"isolatedModules": true},
			absent:    []string{"declaration", "composite", "outFile", "noEmit"},
		},
		{
			note: "defaults fill empty inputs",
			exp: map[string]any{
				"module":           "esnext",
				"moduleResolution": "node",
				"sourceMap":        true,
				"isolatedModules":  true,
				"importHelpers":    true,
				"noEmitHelpers":    true,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			merged := options.Merge(tc.project, tc.overrides)
			for k, v := range tc.exp {
				if merged[k] != v {
					t.Errorf("expected %s=%v, got %v", k, v, merged[k])
				}
			}
			for _, k := range tc.absent {
				if _, ok := merged[k]; ok {
					t.Errorf("expected %s to be absent, got %v", k, merged[k])
				}
			}
		})
	}
}

func TestMergeLeavesInputsAlone(t *testing.T) {
	project := map[string]any{"target": "es5"}
	overrides := map[string]any{"jsx": "react"}

	options.Merge(project, overrides)

	if len(project) != 1 || len(overrides) != 1 {
		t.Fatalf("inputs modified: project=%v overrides=%v", project, overrides)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	in := map[string]any{"module": "esnext", "declaration": true, "composite": true}

	once := options.Sanitize(in)
	twice := options.Sanitize(once)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("unexpected diff (-once +twice):\n%s", diff)
	}
	if _, ok := once["declaration"]; ok {
		t.Fatal("expected declaration to be dropped")
	}
	if v, _ := once["isolatedModules"].(bool); !v {
		t.Fatal("expected isolatedModules to be forced on")
	}
	if _, ok := in["isolatedModules"]; ok {
		t.Fatal("expected the input map to be left alone")
	}
}

func TestCheckModuleKind(t *testing.T) {
	tests := []struct {
		note   string
		module any
		experr string
	}{
		{note: "esnext lowercase", module: "esnext"},
		{note: "es6 mixed case", module: "Es6"},
		{note: "es2015", module: "es2015"},
		{note: "commonjs", module: "CommonJS"},
		{note: "umd rejected", module: "umd", experr: "'umd'"},
		{note: "es5 rejected naming the value", module: "ES5", experr: "ES5"},
		{note: "non-string rejected", module: 6, experr: "found"},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			err := options.CheckModuleKind(map[string]any{"module": tc.module})
			if tc.experr == "" {
				if err != nil {
					t.Fatal(err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.experr) {
				t.Fatalf("expected error containing %q, got: %v", tc.experr, err)
			}
		})
	}
}

func TestDecodeTyped(t *testing.T) {
	raw := map[string]any{
		"module":    "esnext",
		"target":    "es2019",
		"sourceMap": true,
		"paths":     map[string]any{"@app/*": []any{"src/*"}},
	}

	opts, diags, err := options.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if opts.Module != "esnext" || opts.Target != "es2019" || !opts.SourceMap {
		t.Fatalf("unexpected decode: %+v", opts)
	}
	if diff := cmp.Diff(map[string][]string{"@app/*": {"src/*"}}, opts.Paths); diff != "" {
		t.Fatalf("unexpected paths (-want +got):\n%s", diff)
	}
	if opts.Raw["target"] != "es2019" {
		t.Fatal("expected the raw mapping to be carried on the typed set")
	}
}

func TestDecodeUnknownOption(t *testing.T) {
	_, diags, err := options.Decode(map[string]any{"modul": "esnext"})
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %v", diags)
	}
	d := diags[0]
	if d.Severity != typescript.SeverityError || d.Code != 5023 || !strings.Contains(d.Message, "modul") {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
}

func TestDecodeInvalidValue(t *testing.T) {
	_, diags, err := options.Decode(map[string]any{"module": 6})
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) == 0 {
		t.Fatal("expected diagnostics")
	}
	d := diags[0]
	if d.Severity != typescript.SeverityError || d.Code != 5024 || !strings.Contains(d.Message, "module") {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
}

func TestDecodeEmpty(t *testing.T) {
	opts, diags, err := options.Decode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if opts.Module != "" {
		t.Fatalf("unexpected decode: %+v", opts)
	}
}
