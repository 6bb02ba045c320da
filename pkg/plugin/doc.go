// Package plugin bridges a TypeScript compiler into a bundler's build
// pipeline.
//
// The plugin merges compiler options from the project config, built-in
// defaults and caller overrides, validates the result, and then answers
// the bundler's per-file hooks: resolving imports through the compiler,
// serving the tslib helper module from a virtual id, and transpiling each
// matched file in isolation.
//
// # Basic Usage
//
// Construct the plugin, let the bundler start the build, then feed it
// files:
//
//	import "github.com/tsbridge/tsbridge/pkg/plugin"
//
//	p := plugin.New(plugin.Options{
//	    CompilerOptions: map[string]any{"target": "es2019"},
//	})
//	if err := p.BuildStart(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := p.Transform(ctx, source, "src/main.ts")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if res != nil {
//	    // res.Code is the emitted JavaScript, res.Map the parsed map.
//	}
//
// A nil transform result means the file is outside the plugin's filter and
// should pass through untouched.
//
// # Option Merging
//
// Compiler options come from three places and merge with fixed precedence:
// the project tsconfig is weakest, the plugin defaults override it, and
// Options.CompilerOptions has the final say. Options that only make sense
// for whole-program compilation (declarations, composite builds, outFile)
// are stripped, and isolated-module mode is always forced. The merged
// module kind must be one the bundler can consume: ES2015, ES6, ESNext or
// CommonJS, compared case-insensitively.
//
// # Project Config
//
// By default the plugin discovers a tsconfig.json upwards from
// Options.WorkDir and resolves its extends chain. Pin an explicit file
// with TsconfigPath, or disable loading with NoTsconfig:
//
//	p := plugin.New(plugin.Options{
//	    Tsconfig: plugin.TsconfigPath("configs/tsconfig.build.json"),
//	})
//
// # Compiler Services
//
// The compiler sits behind the typescript.Service interface. The default
// is the esbuild service; swap in the embedded tsc with:
//
//	import "github.com/tsbridge/tsbridge/pkg/typescript/tsc"
//
//	p := plugin.New(plugin.Options{Typescript: tsc.New()})
//
// # Diagnostics
//
// Every diagnostic is handed to Options.Reporter before any failure is
// raised, so the user always sees the full list. A file with
// error-severity diagnostics then fails with a TranspileError carrying a
// fixed summary message.
//
// # Thread Safety
//
// BuildStart finalizes the plugin exactly once. After a successful
// BuildStart the plugin is immutable, and ResolveID, Load and Transform
// may be called concurrently from any goroutine.
package plugin
