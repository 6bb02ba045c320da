package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsbridge/tsbridge/internal/config"
	"github.com/tsbridge/tsbridge/internal/test/tempfs"
)

func TestWorkerSkipsUnchangedTree(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{
		"app/main.ts": "export const version: number = 1\n",
	}, func(t *testing.T, root string) {
		out := filepath.Join(root, "dist")
		e := &config.Entry{Name: "app", Root: filepath.Join(root, "app"), Out: out}
		w := NewBuildWorker(&config.Root{}, e, nil, nil)

		if next := w.Execute(t.Context()); next.IsZero() {
			t.Fatal("expected a next deadline")
		}
		dst := filepath.Join(out, "main.js")
		if _, err := os.Stat(dst); err != nil {
			t.Fatal(err)
		}

		// An unchanged tree is not rebuilt: removing the output and running
		// again must not bring it back.
		if err := os.Remove(dst); err != nil {
			t.Fatal(err)
		}
		if next := w.Execute(t.Context()); next.IsZero() {
			t.Fatal("expected a next deadline")
		}
		if _, err := os.Stat(dst); !os.IsNotExist(err) {
			t.Fatalf("expected the unchanged tree to be skipped, got %v", err)
		}

		touch(t, filepath.Join(root, "app", "main.ts"))
		if next := w.Execute(t.Context()); next.IsZero() {
			t.Fatal("expected a next deadline")
		}
		if _, err := os.Stat(dst); err != nil {
			t.Fatalf("expected a rebuild after the source changed: %v", err)
		}
	})
}

func TestWorkerRetiresOnConfigChange(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{
		"app/main.ts": "export const version: number = 1\n",
	}, func(t *testing.T, root string) {
		newWorker := func() (*BuildWorker, *config.Entry) {
			e := &config.Entry{Name: "app", Root: filepath.Join(root, "app"), Out: filepath.Join(root, "dist")}
			return NewBuildWorker(&config.Root{}, e, nil, nil), e
		}

		t.Run("changed entry", func(t *testing.T) {
			w, e := newWorker()
			changed := *e
			changed.Out = filepath.Join(root, "elsewhere")
			w.UpdateConfig(&changed)

			if next := w.Execute(t.Context()); !next.IsZero() {
				t.Fatal("expected the worker to retire")
			}
			if !w.Done() {
				t.Fatal("expected the worker to be done")
			}
			if _, err := os.Stat(filepath.Join(root, "dist")); !os.IsNotExist(err) {
				t.Fatal("expected no build to run")
			}
		})

		t.Run("removed entry", func(t *testing.T) {
			w, _ := newWorker()
			w.UpdateConfig(nil)

			if next := w.Execute(t.Context()); !next.IsZero() {
				t.Fatal("expected the worker to retire")
			}
			if !w.Done() {
				t.Fatal("expected the worker to be done")
			}
		})

		t.Run("unchanged entry", func(t *testing.T) {
			w, e := newWorker()
			same := *e
			w.UpdateConfig(&same)

			if next := w.Execute(t.Context()); next.IsZero() {
				t.Fatal("expected the worker to keep running")
			}
			if w.Done() {
				t.Fatal("expected the worker to stay alive")
			}
		})
	})
}

func TestWorkerReportsConfigError(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{
		"app/main.ts": "export const version: number = 1\n",
	}, func(t *testing.T, root string) {
		e := &config.Entry{
			Name:     "app",
			Root:     filepath.Join(root, "app"),
			Out:      filepath.Join(root, "dist"),
			Tsconfig: filepath.Join(root, "tsconfig.missing.json"),
		}
		w := NewBuildWorker(&config.Root{}, e, nil, nil).WithSingleShot(true)

		if next := w.Execute(t.Context()); !next.IsZero() {
			t.Fatal("expected a single-shot worker to retire")
		}
		st := w.Status()
		if st.State != BuildStateConfigFailed {
			t.Fatalf("expected config_failed, got %v (%s)", st.State, st.Message)
		}
		if !strings.Contains(st.Message, "tsconfig") {
			t.Fatalf("expected the message to name the tsconfig, got %q", st.Message)
		}
	})
}

func TestWorkerReportsMissingRoot(t *testing.T) {
	tempfs.WithTempFS(t, nil, func(t *testing.T, root string) {
		e := &config.Entry{Name: "app", Root: filepath.Join(root, "gone"), Out: filepath.Join(root, "dist")}
		w := NewBuildWorker(&config.Root{}, e, nil, nil).WithSingleShot(true)

		w.Execute(t.Context())
		st := w.Status()
		if st.State != BuildStateConfigFailed {
			t.Fatalf("expected config_failed, got %v (%s)", st.State, st.Message)
		}
	})
}

func TestWorkerUsesConfiguredCompiler(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded compiler test in short mode")
	}

	tempfs.WithTempFS(t, map[string]string{
		"app/main.ts": "export const version: number = 1\n",
	}, func(t *testing.T, root string) {
		out := filepath.Join(root, "dist")
		e := &config.Entry{Name: "app", Root: filepath.Join(root, "app"), Out: out, NoTsconfig: true}
		cfg := &config.Root{Service: config.ServiceTSC}
		w := NewBuildWorker(cfg, e, nil, nil).WithSingleShot(true)

		w.Execute(t.Context())
		if st := w.Status(); st.State != BuildStateSuccess {
			t.Fatalf("expected success, got %v (%s)", st.State, st.Message)
		}
		bs, err := os.ReadFile(filepath.Join(out, "main.js"))
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(bs), ": number") {
			t.Fatal("expected types to be stripped")
		}
	})
}
