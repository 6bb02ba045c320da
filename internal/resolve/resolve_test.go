package resolve_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsbridge/tsbridge/internal/resolve"
)

// fakeHost serves a synthetic file tree keyed by slash-separated absolute
// paths.
type fakeHost map[string]string

func (h fakeHost) FileExists(path string) bool {
	_, ok := h[filepath.ToSlash(path)]
	return ok
}

func (h fakeHost) DirExists(path string) bool {
	prefix := filepath.ToSlash(path) + "/"
	for p := range h {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func (h fakeHost) ReadFile(path string) ([]byte, error) {
	if content, ok := h[filepath.ToSlash(path)]; ok {
		return []byte(content), nil
	}
	return nil, os.ErrNotExist
}

func TestResolve(t *testing.T) {
	host := fakeHost{
		"/app/src/main.ts":                          "",
		"/app/src/util.ts":                          "",
		"/app/src/util.js":                          "",
		"/app/src/widgets/index.tsx":                "",
		"/app/src/models/user.ts":                   "",
		"/app/src/deep/nested/leaf.ts":              "",
		"/app/node_modules/lib/package.json":        `{"types": "dist/index.d.ts", "main": "dist/index.js"}`,
		"/app/node_modules/lib/dist/index.d.ts":     "",
		"/app/node_modules/lib/dist/index.js":       "",
		"/app/node_modules/plain/index.ts":          "",
		"/app/node_modules/esm/package.json":        `{"module": "esm/index.js", "main": "lib/index.js"}`,
		"/app/node_modules/esm/esm/index.js":        "",
		"/app/node_modules/broken/package.json":     `{"main": "gone.js"}`,
		"/app/node_modules/broken/index.js":         "",
		"/app/src/deep/node_modules/local/index.ts": "",
	}

	opts := resolve.Options{
		BaseDir: "/app",
		BaseURL: "src",
		Paths:   map[string][]string{"@app/*": {"*"}, "widgets": {"widgets/index.tsx"}},
	}

	tests := []struct {
		note     string
		importee string
		importer string
		exp      string
	}{
		{
			note:     "relative import probes typed extensions first",
			importee: "./util",
			importer: "/app/src/main.ts",
			exp:      "/app/src/util.ts",
		},
		{
			note:     "exact relative path wins untouched",
			importee: "./util.js",
			importer: "/app/src/main.ts",
			exp:      "/app/src/util.js",
		},
		{
			note:     "directory import falls back to index",
			importee: "./widgets",
			importer: "/app/src/main.ts",
			exp:      "/app/src/widgets/index.tsx",
		},
		{
			note:     "package types entry wins over main",
			importee: "lib",
			importer: "/app/src/main.ts",
			exp:      "/app/node_modules/lib/dist/index.d.ts",
		},
		{
			note:     "package module entry used when no types",
			importee: "esm",
			importer: "/app/src/main.ts",
			exp:      "/app/node_modules/esm/esm/index.js",
		},
		{
			note:     "dangling main falls back to index",
			importee: "broken",
			importer: "/app/src/main.ts",
			exp:      "/app/node_modules/broken/index.js",
		},
		{
			note:     "bare import without package.json uses index",
			importee: "plain",
			importer: "/app/src/main.ts",
			exp:      "/app/node_modules/plain/index.ts",
		},
		{
			note:     "node_modules lookup walks up from the importer",
			importee: "local",
			importer: "/app/src/deep/nested/leaf.ts",
			exp:      "/app/src/deep/node_modules/local/index.ts",
		},
		{
			note:     "paths mapping expands the star",
			importee: "@app/models/user",
			importer: "/app/src/main.ts",
			exp:      "/app/src/models/user.ts",
		},
		{
			note:     "exact paths pattern",
			importee: "widgets",
			importer: "/app/src/main.ts",
			exp:      "/app/src/widgets/index.tsx",
		},
		{
			note:     "baseUrl catches unmapped bare imports",
			importee: "models/user",
			importer: "/app/src/main.ts",
			exp:      "/app/src/models/user.ts",
		},
		{
			note:     "builtins and unknown packages miss",
			importee: "fs",
			importer: "/app/src/main.ts",
			exp:      "",
		},
	}

	r := resolve.New().WithHost(host)
	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			got := r.Resolve(tc.importee, tc.importer, opts)
			if filepath.ToSlash(got) != tc.exp {
				t.Fatalf("expected %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestResolveWithoutOptions(t *testing.T) {
	host := fakeHost{
		"/app/src/a.ts": "",
		"/app/src/b.ts": "",
	}

	r := resolve.New().WithHost(host)

	if got := r.Resolve("./b", "/app/src/a.ts", resolve.Options{}); filepath.ToSlash(got) != "/app/src/b.ts" {
		t.Fatalf("unexpected resolution: %q", got)
	}
	if got := r.Resolve("missing", "/app/src/a.ts", resolve.Options{}); got != "" {
		t.Fatalf("expected a miss, got %q", got)
	}
}
