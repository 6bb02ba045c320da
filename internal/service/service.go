// Package service schedules builds for the entries of a manifest. Each entry
// gets a build worker that is executed on a shared pool, either once
// (single-shot mode) or repeatedly on its rebuild interval (watch mode).
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tsbridge/tsbridge/internal/config"
	"github.com/tsbridge/tsbridge/internal/logging"
	"github.com/tsbridge/tsbridge/internal/pool"
	"github.com/tsbridge/tsbridge/internal/progress"
)

// BuildState describes the outcome of the most recent build of an entry.
type BuildState int

const (
	BuildStatePending BuildState = iota
	BuildStateSuccess
	BuildStateConfigFailed
	BuildStateBuildFailed
	BuildStateInternalError
)

func (s BuildState) String() string {
	switch s {
	case BuildStateSuccess:
		return "success"
	case BuildStateConfigFailed:
		return "config_failed"
	case BuildStateBuildFailed:
		return "build_failed"
	case BuildStateInternalError:
		return "internal_error"
	}
	return "pending"
}

// Status is the last build outcome of a single entry. Message carries the
// error text for failed states.
type Status struct {
	State   BuildState
	Message string
}

// Service builds all manifest entries on a bounded worker pool.
type Service struct {
	cfg        *config.Root
	workers    int
	singleShot bool
	dryRun     bool
	log        *logging.Logger
	bar        *progress.Bar

	mu     sync.Mutex
	byName map[string]*BuildWorker
	pool   *pool.Pool
}

func New() *Service {
	return &Service{
		log:    logging.NewLogger(logging.Config{}),
		byName: map[string]*BuildWorker{},
	}
}

func (s *Service) WithConfig(cfg *config.Root) *Service {
	s.cfg = cfg
	return s
}

// WithWorkers bounds the number of entries building concurrently. Zero means
// one worker per CPU.
func (s *Service) WithWorkers(n int) *Service {
	s.workers = n
	return s
}

// WithSingleShot makes Run build every entry exactly once and return, instead
// of rebuilding on an interval.
func (s *Service) WithSingleShot(singleShot bool) *Service {
	s.singleShot = singleShot
	return s
}

// WithDryRun transpiles without writing any outputs.
func (s *Service) WithDryRun(dryRun bool) *Service {
	s.dryRun = dryRun
	return s
}

func (s *Service) WithLogger(log *logging.Logger) *Service {
	s.log = log
	return s
}

func (s *Service) WithProgressBar(bar *progress.Bar) *Service {
	s.bar = bar
	return s
}

// Run builds the configured entries. In single-shot mode it returns once
// every entry has been built, with an error naming the entries that failed.
// In watch mode it blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg == nil || len(s.cfg.Entries) == 0 {
		return errors.New("no entries configured")
	}

	names := slices.Sorted(maps.Keys(s.cfg.Entries))

	s.pool = pool.New(min(cmp.Or(s.workers, runtime.NumCPU()), len(names)))
	s.bar.AddMax(len(names))

	s.mu.Lock()
	for _, name := range names {
		s.spawn(name, s.cfg.Entries[name])
	}
	s.mu.Unlock()

	if !s.singleShot {
		s.log.Infof("Watching %d entries.", len(names))
		<-ctx.Done()
		s.shutdown()
		return nil
	}

	var failed []string
	for _, name := range names {
		w := s.worker(name)
		if err := w.Wait(ctx); err != nil {
			return err
		}
		if st := w.Status(); st.State != BuildStateSuccess {
			failed = append(failed, name)
		}
	}
	s.bar.Finish()

	if len(failed) > 0 {
		return fmt.Errorf("build failed for %d of %d entries: %s", len(failed), len(names), strings.Join(failed, ", "))
	}
	return nil
}

// shutdown retires every worker and waits until in-flight builds have
// finished. Workers waiting out their interval are woken through the pool so
// retirement does not take a full interval.
func (s *Service) shutdown() {
	s.mu.Lock()
	workers := make(map[string]*BuildWorker, len(s.byName))
	maps.Copy(workers, s.byName)
	s.mu.Unlock()

	for _, w := range workers {
		w.changeConfiguration()
	}

	for name, w := range workers {
		for !w.Done() {
			_ = s.pool.Trigger("entry/" + name)
			select {
			case <-w.done:
			case <-time.After(50 * time.Millisecond):
			}
		}
	}
}

// Reconfigure applies an updated manifest to a running service: workers of
// changed entries are retired and respawned, workers of removed entries are
// retired, and added entries get fresh workers.
func (s *Service) Reconfigure(cfg *config.Root) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg

	for name, w := range s.byName {
		e := cfg.Entries[name]
		if e == nil {
			w.UpdateConfig(nil)
			delete(s.byName, name)
			continue
		}
		if !w.entry.Equal(e) {
			w.UpdateConfig(e)
			s.spawn(name, e)
		}
	}

	for _, name := range slices.Sorted(maps.Keys(cfg.Entries)) {
		if _, ok := s.byName[name]; !ok {
			s.spawn(name, cfg.Entries[name])
		}
	}
}

// Trigger schedules an immediate rebuild of the named entry.
func (s *Service) Trigger(entry string) error {
	return s.pool.Trigger("entry/" + entry)
}

// Status reports the last build outcome of the named entry.
func (s *Service) Status(entry string) (Status, bool) {
	w := s.worker(entry)
	if w == nil {
		return Status{}, false
	}
	return w.Status(), true
}

func (s *Service) spawn(name string, e *config.Entry) {
	w := NewBuildWorker(s.cfg, e, s.log.WithField("entry", name), s.bar).
		WithSingleShot(s.singleShot).
		WithDryRun(s.dryRun).
		WithInterval(e.Interval)
	s.byName[name] = w
	s.pool.Add("entry/"+name, w.Execute)
}

func (s *Service) worker(name string) *BuildWorker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byName[name]
}
