package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/tsbridge/tsbridge/internal/builder"
	"github.com/tsbridge/tsbridge/internal/config"
	tsb_fs "github.com/tsbridge/tsbridge/internal/fs"
	"github.com/tsbridge/tsbridge/internal/logging"
	"github.com/tsbridge/tsbridge/internal/metrics"
	"github.com/tsbridge/tsbridge/internal/progress"
	"github.com/tsbridge/tsbridge/pkg/plugin"
	tscsvc "github.com/tsbridge/tsbridge/pkg/typescript/tsc"
)

// DefaultRebuildInterval paces watch-mode rebuilds for entries that do not
// configure one.
const DefaultRebuildInterval = 30 * time.Second

var errorInterval = 30 * time.Second

// BuildWorker is responsible for compiling a single manifest entry. Each run
// rescans the entry's source tree, skips the build when nothing changed, and
// otherwise drives the batch builder with a plugin configured from the entry.
// Reconfiguring the entry from the outside retires the worker so the service
// can replace it.
type BuildWorker struct {
	cfg        *config.Root
	entry      *config.Entry
	changed    chan struct{}
	done       chan struct{}
	singleShot bool
	dryRun     bool
	log        *logging.Logger
	bar        *progress.Bar
	status     Status
	interval   time.Duration
	lastSig    uint64
	built      bool
}

func NewBuildWorker(cfg *config.Root, e *config.Entry, logger *logging.Logger, bar *progress.Bar) *BuildWorker {
	return &BuildWorker{
		cfg:     cfg,
		entry:   e,
		log:     logger,
		bar:     bar,
		changed: make(chan struct{}), done: make(chan struct{}),
		interval: DefaultRebuildInterval,
	}
}

func (worker *BuildWorker) WithSingleShot(singleShot bool) *BuildWorker {
	worker.singleShot = singleShot
	return worker
}

func (worker *BuildWorker) WithDryRun(dryRun bool) *BuildWorker {
	worker.dryRun = dryRun
	return worker
}

func (worker *BuildWorker) WithInterval(d config.Duration) *BuildWorker {
	worker.interval = cmp.Or(time.Duration(d), DefaultRebuildInterval)
	return worker
}

func (worker *BuildWorker) Done() bool {
	select {
	case <-worker.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the worker has retired or the context is cancelled.
func (worker *BuildWorker) Wait(ctx context.Context) error {
	select {
	case <-worker.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status reports the outcome of the last build iteration. It is stable once
// Done() reports true.
func (worker *BuildWorker) Status() Status {
	return worker.status
}

func (worker *BuildWorker) UpdateConfig(e *config.Entry) {
	if e == nil || !worker.entry.Equal(e) {
		worker.changeConfiguration()
	}
}

// Execute runs one build iteration: rescan the sources, rebuild if anything
// changed, and hand the next deadline back to the pool.
func (w *BuildWorker) Execute(ctx context.Context) time.Time {
	startTime := time.Now() // Used for timing metric

	defer w.bar.Add(1)

	// If a configuration change was requested, request the worker to be removed from the pool and signal this worker being done.

	if w.configurationChanged() {
		return w.die()
	}

	root := cmp.Or(w.entry.Root, ".")
	include := []string(w.entry.IncludedFiles)
	if len(include) == 0 {
		include = plugin.DefaultInclude
	}
	exclude := []string(w.entry.ExcludedFiles)
	if len(exclude) == 0 {
		exclude = plugin.DefaultExclude
	}

	scan, err := tsb_fs.NewFilterFS(os.DirFS(root), include, exclude)
	if err != nil {
		w.log.Warnf("failed to scan entry %q: %v", w.entry.Name, err)
		return w.report(BuildStateConfigFailed, startTime, err)
	}

	sig, err := treeSignature(scan)
	if err != nil {
		w.log.Warnf("failed to scan entry %q: %v", w.entry.Name, err)
		if errors.Is(err, fs.ErrNotExist) {
			return w.report(BuildStateConfigFailed, startTime, fmt.Errorf("entry root %s: %w", root, err))
		}
		return w.report(BuildStateInternalError, startTime, err)
	}

	if w.built && sig == w.lastSig {
		w.log.Debugf("entry %q unchanged, skipping rebuild", w.entry.Name)
		return time.Now().Add(w.interval)
	}

	p, err := EntryPlugin(w.cfg, w.entry, w.log, nil)
	if err != nil {
		w.log.Warnf("failed to configure entry %q: %v", w.entry.Name, err)
		return w.report(BuildStateConfigFailed, startTime, err)
	}

	result, err := builder.New().
		WithEntry(w.entry.Name).
		WithRoot(root).
		WithOutput(cmp.Or(w.entry.Out, filepath.Join("dist", w.entry.Name))).
		WithIncluded(include).
		WithExcluded(exclude).
		WithPlugin(p).
		WithDryRun(w.dryRun).
		WithLogger(w.log).
		Build(ctx)
	if err != nil {
		w.log.Warnf("failed to build entry %q: %v", w.entry.Name, err)
		return w.report(buildStateForError(err), startTime, err)
	}

	w.lastSig, w.built = sig, true
	w.log.Debugf("Entry %q built: %d files transpiled, %d written.", w.entry.Name, result.Transpiled, result.Written)
	return w.report(BuildStateSuccess, startTime, nil)
}

// EntryPlugin assembles the transpile plugin for a manifest entry: file
// patterns, layered compiler options, project-config handling, helper
// override and the compiler service. A nil reporter keeps the default
// log-based one.
func EntryPlugin(cfg *config.Root, e *config.Entry, log *logging.Logger, reporter plugin.Reporter) (*plugin.Plugin, error) {
	root := cmp.Or(e.Root, ".")

	opts := plugin.Options{
		Include:         e.IncludedFiles,
		Exclude:         e.ExcludedFiles,
		CompilerOptions: cfg.CompilerOptionsFor(e),
		Reporter:        reporter,
		Logger:          log,
		WorkDir:         root,
	}

	switch {
	case e.NoTsconfig:
		opts.Tsconfig = plugin.NoTsconfig()
	case e.Tsconfig != "":
		opts.Tsconfig = plugin.TsconfigPath(e.Tsconfig)
	}

	if e.Tslib != "" {
		bs, err := os.ReadFile(e.Tslib)
		if err != nil {
			return nil, fmt.Errorf("read tslib %s: %w", e.Tslib, err)
		}
		opts.Tslib = string(bs)
	}

	if cfg.ServiceFor(e) == config.ServiceTSC {
		opts.Typescript = tscsvc.New().WithBaseDir(root)
	}

	return plugin.New(opts), nil
}

func buildStateForError(err error) BuildState {
	var cerr *plugin.ConfigError
	var terr *plugin.TranspileError
	switch {
	case errors.As(err, &cerr):
		return BuildStateConfigFailed
	case errors.As(err, &terr):
		return BuildStateBuildFailed
	}
	return BuildStateInternalError
}

func (w *BuildWorker) report(state BuildState, startTime time.Time, err error) time.Time {
	interval := w.interval
	w.status.State = state
	if err != nil {
		interval = errorInterval // faster retry on error
		w.status.Message = err.Error()
	} else {
		w.status.Message = ""
	}

	if state == BuildStateSuccess {
		metrics.BuildSucceeded(w.entry.Name, startTime)
	} else {
		metrics.BuildFailed(w.entry.Name, state.String())
	}

	if w.singleShot {
		return w.die()
	}

	return time.Now().Add(interval)
}

func (w *BuildWorker) changeConfiguration() {
	select {
	case <-w.changed:
	default:
		close(w.changed)
	}
}

func (w *BuildWorker) configurationChanged() bool {
	select {
	case <-w.changed:
		return true
	default:
		return false
	}
}

func (w *BuildWorker) die() time.Time {
	close(w.done)

	var zero time.Time
	return zero
}
