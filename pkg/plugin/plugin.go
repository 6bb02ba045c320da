package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/tsbridge/tsbridge/internal/fs"
	"github.com/tsbridge/tsbridge/internal/logging"
	"github.com/tsbridge/tsbridge/internal/options"
	"github.com/tsbridge/tsbridge/internal/tsconfig"
	"github.com/tsbridge/tsbridge/internal/tslib"
	"github.com/tsbridge/tsbridge/pkg/typescript"
	"github.com/tsbridge/tsbridge/pkg/typescript/esbuild"
)

// Name is the identifier the plugin registers with host bundlers.
const Name = "tsbridge"

// Plugin bridges a TypeScript compiler service into a bundler's build
// pipeline. Construct with New, let the bundler call BuildStart once, then
// the per-file hooks any number of times from any goroutine.
//
// All configuration work happens in BuildStart: option merging, module-kind
// validation, project-config loading and filter compilation. After a
// successful BuildStart the plugin is immutable.
type Plugin struct {
	opts Options

	once      sync.Once
	err       error
	finalized atomic.Bool

	svc      typescript.Service
	compiled typescript.CompilerOptions
	filter   *fs.Filter
	helpers  *tslib.Module
	reporter Reporter
	log      *logging.Logger
}

// New constructs the plugin. Construction never fails; configuration
// problems surface from BuildStart.
func New(opts Options) *Plugin {
	return &Plugin{opts: opts}
}

func (p *Plugin) Name() string {
	return Name
}

// BuildStart finalizes the plugin configuration. It runs exactly once;
// repeated calls return the first outcome.
func (p *Plugin) BuildStart(ctx context.Context) error {
	p.once.Do(func() {
		p.err = p.finalize()
		if p.err == nil {
			p.finalized.Store(true)
		}
	})
	return p.err
}

func (p *Plugin) finalize() error {
	workdir := p.opts.WorkDir
	if workdir == "" {
		workdir = "."
	}

	p.log = p.opts.Logger
	if p.log == nil {
		p.log = logging.NewLogger(logging.Config{Level: logging.LogLevelInfo})
	}

	configPath, err := p.locateConfig(workdir)
	if err != nil {
		return err
	}

	p.svc = p.opts.Typescript
	if p.svc == nil {
		base := workdir
		if configPath != "" {
			base = filepath.Dir(configPath)
		}
		p.svc = esbuild.New().WithBaseDir(base)
	}

	p.reporter = p.opts.Reporter
	if p.reporter == nil {
		p.reporter = &logReporter{log: p.log, svc: p.svc}
	}

	var project map[string]any
	if configPath != "" {
		pc, err := p.svc.ParseConfig(configPath)
		if err != nil {
			return &ConfigError{Message: fmt.Sprintf("tsbridge: load tsconfig %s: %v", configPath, err)}
		}
		project = pc.CompilerOptions
		p.log.Debugf("loaded project config %s", pc.Path)
	}

	merged := options.Merge(project, p.opts.CompilerOptions)
	if err := options.CheckModuleKind(merged); err != nil {
		return &ConfigError{Message: err.Error()}
	}

	compiled, diags, err := p.svc.ConvertOptions(merged)
	if err != nil {
		return fmt.Errorf("tsbridge: convert compiler options: %w", err)
	}
	for _, d := range diags {
		p.reporter.Report(d)
	}
	if typescript.HasErrors(diags) {
		return &ConfigError{
			Message:     "tsbridge: couldn't process compiler options",
			Diagnostics: diags,
		}
	}
	p.compiled = compiled

	include, exclude := p.opts.Include, p.opts.Exclude
	if len(include) == 0 {
		include = DefaultInclude
	}
	if len(exclude) == 0 {
		exclude = DefaultExclude
	}
	filter, err := fs.NewFilter(include, exclude)
	if err != nil {
		return &ConfigError{Message: fmt.Sprintf("tsbridge: %v", err)}
	}
	p.filter = filter

	p.helpers = tslib.New(p.opts.Tslib)
	return nil
}

// locateConfig returns the project config path per the Tsconfig option, or
// the empty string when there is none to load.
func (p *Plugin) locateConfig(workdir string) (string, error) {
	switch {
	case p.opts.Tsconfig.off:
		return "", nil
	case p.opts.Tsconfig.path != "":
		if _, err := os.Stat(p.opts.Tsconfig.path); err != nil {
			return "", &ConfigError{Message: fmt.Sprintf("tsbridge: could not find tsconfig at %q", p.opts.Tsconfig.path)}
		}
		return p.opts.Tsconfig.path, nil
	}
	found, err := tsconfig.Find(workdir)
	if err != nil {
		return "", fmt.Errorf("tsbridge: discover tsconfig: %w", err)
	}
	return found, nil
}

func (p *Plugin) mustBeFinal() error {
	if !p.finalized.Load() {
		return errors.New("tsbridge: plugin not finalized (build start missing or failed)")
	}
	return nil
}

// FinalizedOptions returns the merged, validated compiler options. It
// fails before a successful BuildStart.
func (p *Plugin) FinalizedOptions() (typescript.CompilerOptions, error) {
	if err := p.mustBeFinal(); err != nil {
		return typescript.CompilerOptions{}, err
	}
	return p.compiled, nil
}

// Service returns the compiler service in use. It fails before a
// successful BuildStart.
func (p *Plugin) Service() (typescript.Service, error) {
	if err := p.mustBeFinal(); err != nil {
		return nil, err
	}
	return p.svc, nil
}
