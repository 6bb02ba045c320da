package builder

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	tsb_fs "github.com/tsbridge/tsbridge/internal/fs"
	"github.com/tsbridge/tsbridge/internal/logging"
	"github.com/tsbridge/tsbridge/internal/metrics"
	"github.com/tsbridge/tsbridge/internal/progress"
	"github.com/tsbridge/tsbridge/internal/util"
	"github.com/tsbridge/tsbridge/pkg/plugin"
)

// Builder compiles every TypeScript file below a source root and mirrors the
// tree into an output directory, one .js (plus .js.map) per input. The actual
// per-file work is delegated to the plugin, so option resolution, filtering
// and diagnostics behave exactly as they do under a bundler.
type Builder struct {
	entry    string
	root     string
	out      string
	plugin   *plugin.Plugin
	included []string
	excluded []string
	parallel int
	dryRun   bool
	log      *logging.Logger
	bar      *progress.Bar
}

// Result summarizes a finished build.
type Result struct {
	Transpiled int // source files transpiled
	Written    int // output files written, maps included
}

func New() *Builder {
	return &Builder{}
}

// WithEntry names the compilation unit for logs and metrics.
func (b *Builder) WithEntry(name string) *Builder {
	b.entry = name
	return b
}

func (b *Builder) WithRoot(root string) *Builder {
	b.root = root
	return b
}

func (b *Builder) WithOutput(dir string) *Builder {
	b.out = dir
	return b
}

func (b *Builder) WithPlugin(p *plugin.Plugin) *Builder {
	b.plugin = p
	return b
}

func (b *Builder) WithIncluded(patterns []string) *Builder {
	b.included = patterns
	return b
}

func (b *Builder) WithExcluded(patterns []string) *Builder {
	b.excluded = patterns
	return b
}

// WithParallelism bounds the number of files transpiled concurrently.
// Zero means one worker per CPU.
func (b *Builder) WithParallelism(n int) *Builder {
	b.parallel = n
	return b
}

// WithDryRun compiles everything but writes nothing.
func (b *Builder) WithDryRun(dry bool) *Builder {
	b.dryRun = dry
	return b
}

func (b *Builder) WithLogger(log *logging.Logger) *Builder {
	b.log = log
	return b
}

func (b *Builder) WithProgressBar(bar *progress.Bar) *Builder {
	b.bar = bar
	return b
}

func (b *Builder) Build(ctx context.Context) (*Result, error) {
	root := cmp.Or(b.root, ".")

	var src fs.FS = os.DirFS(root)
	if b.log.DebugEnabled() {
		src = util.NewTraceFS(src, b.log)
	}

	include := b.included
	if len(include) == 0 {
		include = plugin.DefaultInclude
	}
	exclude := b.excluded
	if len(exclude) == 0 {
		exclude = plugin.DefaultExclude
	}

	filtered, err := tsb_fs.NewFilterFS(src, include, exclude)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	found, err := tsb_fs.FSContainsFiles(filtered)
	if err != nil {
		return nil, fmt.Errorf("build: scan %s: %w", root, err)
	}
	if !found {
		b.log.Warnf("no input files under %s", root)
		return &Result{}, nil
	}

	var paths []string
	if err := fs.WalkDir(filtered, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("build: scan %s: %w", root, err)
	}
	sort.Strings(paths)

	p := b.plugin
	if p == nil {
		p = plugin.New(plugin.Options{
			Include: include,
			Exclude: exclude,
			Logger:  b.log,
			WorkDir: root,
		})
	}
	if err := p.BuildStart(ctx); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	b.bar.AddMax(len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cmp.Or(b.parallel, runtime.NumCPU()))

	var transpiled, written atomic.Int64
	for _, path := range paths {
		g.Go(func() error {
			defer b.bar.Add(1)

			bs, err := fs.ReadFile(filtered, path)
			if err != nil {
				return fmt.Errorf("build: read %s: %w", path, err)
			}

			res, err := p.Transform(ctx, string(bs), path)
			if err != nil {
				return err
			}
			if res == nil { // not ours, e.g. admitted by the walk but not the plugin
				return nil
			}
			transpiled.Add(1)

			if b.dryRun {
				return nil
			}
			n, err := b.write(path, res)
			written.Add(int64(n))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.bar.Finish()
	metrics.FilesTranspiled(b.entry, int(transpiled.Load()))

	result := &Result{Transpiled: int(transpiled.Load()), Written: int(written.Load())}
	b.log.Debugf("entry %s: %d files transpiled, %d written", b.entry, result.Transpiled, result.Written)
	return result, nil
}

// write stores the compiled output for the source file at the root-relative
// path, mirroring its directory below the output root.
func (b *Builder) write(path string, res *plugin.Result) (int, error) {
	out := cmp.Or(b.out, "dist")
	dst := filepath.Join(out, filepath.FromSlash(jsName(path)))

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("build: %w", err)
	}

	code := res.Code
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}

	written := 0
	if res.Map != nil {
		code += "//# sourceMappingURL=" + filepath.Base(dst) + ".map\n"

		bs, err := json.Marshal(res.Map)
		if err != nil {
			return 0, fmt.Errorf("build: encode source map for %s: %w", path, err)
		}
		if err := os.WriteFile(dst+".map", bs, 0644); err != nil {
			return 0, fmt.Errorf("build: %w", err)
		}
		written++
	}

	if err := os.WriteFile(dst, []byte(code), 0644); err != nil {
		return written, fmt.Errorf("build: %w", err)
	}
	return written + 1, nil
}

// jsName maps a source path to its output path: the TypeScript extension is
// replaced, anything else keeps its own.
func jsName(path string) string {
	switch ext := filepath.Ext(path); ext {
	case ".ts", ".tsx", ".mts", ".cts":
		return strings.TrimSuffix(path, ext) + ".js"
	}
	return path
}
