package esbuildplugin_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/tsbridge/tsbridge/internal/test/tempfs"
	"github.com/tsbridge/tsbridge/pkg/esbuildplugin"
	"github.com/tsbridge/tsbridge/pkg/plugin"
	"github.com/tsbridge/tsbridge/pkg/typescript"
)

// capturedBuild records the hook registrations a Setup call makes, so the
// callbacks can be driven directly.
type capturedBuild struct {
	start    func() (api.OnStartResult, error)
	resolve  func(api.OnResolveArgs) (api.OnResolveResult, error)
	loaders  map[string]func(api.OnLoadArgs) (api.OnLoadResult, error)
	pluginBd api.PluginBuild
}

func capture() *capturedBuild {
	c := &capturedBuild{loaders: map[string]func(api.OnLoadArgs) (api.OnLoadResult, error){}}
	c.pluginBd = api.PluginBuild{
		OnStart: func(cb func() (api.OnStartResult, error)) { c.start = cb },
		OnResolve: func(_ api.OnResolveOptions, cb func(api.OnResolveArgs) (api.OnResolveResult, error)) {
			c.resolve = cb
		},
		OnLoad: func(opts api.OnLoadOptions, cb func(api.OnLoadArgs) (api.OnLoadResult, error)) {
			c.loaders[opts.Namespace] = cb
		},
	}
	return c
}

func TestSetupRoutesHelperModule(t *testing.T) {
	p := plugin.New(plugin.Options{
		Tsconfig: plugin.NoTsconfig(),
		Reporter: plugin.ReporterFunc(func(typescript.Diagnostic) {}),
	})

	c := capture()
	esbuildplugin.New(p).Setup(c.pluginBd)

	if _, err := c.start(); err != nil {
		t.Fatal(err)
	}

	res, err := c.resolve(api.OnResolveArgs{Path: "tslib", Importer: "/proj/src/main.ts"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Namespace != esbuildplugin.HelperNamespace || res.Path == "" {
		t.Fatalf("expected the helper namespace, got %+v", res)
	}

	load := c.loaders[esbuildplugin.HelperNamespace]
	if load == nil {
		t.Fatal("expected a loader for the helper namespace")
	}
	out, err := load(api.OnLoadArgs{Path: res.Path, Namespace: res.Namespace})
	if err != nil {
		t.Fatal(err)
	}
	if out.Contents == nil || !strings.Contains(*out.Contents, "__extends") {
		t.Fatal("expected the helper source")
	}
}

func TestSetupTransformsFiles(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{
		"src/main.ts": "const x: number = 1\nexport default x\n",
	}, func(t *testing.T, root string) {
		p := plugin.New(plugin.Options{
			Tsconfig: plugin.NoTsconfig(),
			WorkDir:  root,
			Reporter: plugin.ReporterFunc(func(typescript.Diagnostic) {}),
		})

		c := capture()
		esbuildplugin.New(p).Setup(c.pluginBd)
		if _, err := c.start(); err != nil {
			t.Fatal(err)
		}

		load := c.loaders[""]
		if load == nil {
			t.Fatal("expected a loader for the file namespace")
		}

		path := filepath.Join(root, "src", "main.ts")
		out, err := load(api.OnLoadArgs{Path: path})
		if err != nil {
			t.Fatal(err)
		}
		if out.Contents == nil || strings.Contains(*out.Contents, ": number") {
			t.Fatalf("expected transpiled contents, got %+v", out.Contents)
		}
		if !strings.Contains(*out.Contents, "sourceMappingURL=data:application/json;base64,") {
			t.Fatal("expected an inline source map for esbuild to pick up")
		}
		if out.ResolveDir != filepath.Dir(path) {
			t.Fatalf("unexpected resolve dir: %q", out.ResolveDir)
		}
	})
}

func TestSetupSurfacesDiagnostics(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{
		"src/broken.ts": "const = 1\n",
	}, func(t *testing.T, root string) {
		p := plugin.New(plugin.Options{
			Tsconfig: plugin.NoTsconfig(),
			WorkDir:  root,
			Reporter: plugin.ReporterFunc(func(typescript.Diagnostic) {}),
		})

		c := capture()
		esbuildplugin.New(p).Setup(c.pluginBd)
		if _, err := c.start(); err != nil {
			t.Fatal(err)
		}

		out, err := c.loaders[""](api.OnLoadArgs{Path: filepath.Join(root, "src", "broken.ts")})
		if err != nil {
			t.Fatal(err)
		}
		if len(out.Errors) == 0 {
			t.Fatal("expected error messages")
		}
		if loc := out.Errors[0].Location; loc == nil || loc.Line != 1 {
			t.Fatalf("expected a located message, got %+v", out.Errors[0])
		}
	})
}

func TestBundleEndToEnd(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{
		"src/main.ts": "import { greet } from './util'\nconsole.log(greet('build'))\n",
		"src/util.ts": "export function greet(name: string): string { return 'hello ' + name }\n",
	}, func(t *testing.T, root string) {
		p := plugin.New(plugin.Options{
			Tsconfig: plugin.NoTsconfig(),
			WorkDir:  root,
			Reporter: plugin.ReporterFunc(func(typescript.Diagnostic) {}),
		})

		result := api.Build(api.BuildOptions{
			EntryPoints: []string{filepath.Join(root, "src", "main.ts")},
			Bundle:      true,
			Write:       false,
			Format:      api.FormatESModule,
			Plugins:     []api.Plugin{esbuildplugin.New(p)},
		})
		if len(result.Errors) > 0 {
			t.Fatalf("build failed: %+v", result.Errors)
		}
		if len(result.OutputFiles) != 1 {
			t.Fatalf("expected one output file, got %d", len(result.OutputFiles))
		}

		bundle := string(result.OutputFiles[0].Contents)
		if !strings.Contains(bundle, "hello ") || strings.Contains(bundle, ": string") {
			t.Fatalf("unexpected bundle:\n%s", bundle)
		}
	})
}
