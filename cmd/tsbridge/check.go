package main

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/tsbridge/tsbridge/internal/builder"
	"github.com/tsbridge/tsbridge/internal/service"
	"github.com/tsbridge/tsbridge/pkg/plugin"
	"github.com/tsbridge/tsbridge/pkg/typescript"
)

var checkService string

var checkCmd = &cobra.Command{
	Use:   "check [entry...]",
	Short: "Transpile without writing outputs and report diagnostics",
	Long: `Check runs the manifest entries through the compiler without writing any
output, printing every diagnostic. It exits non-zero when an entry has
errors.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkService, "service", "", "compiler service (esbuild|tsc), overriding the manifest")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg, err = selectEntries(cfg, args); err != nil {
		return err
	}
	if err := applyServiceOverride(cfg, checkService); err != nil {
		return err
	}

	log := newLogger()
	out := cmd.OutOrStdout()

	var mu sync.Mutex
	var errCount, warnCount int
	reporter := plugin.ReporterFunc(func(d typescript.Diagnostic) {
		mu.Lock()
		defer mu.Unlock()
		switch d.Severity {
		case typescript.SeverityError:
			errCount++
		case typescript.SeverityWarning:
			warnCount++
		}
		fmt.Fprintln(out, typescript.Format(d))
	})

	var failed []string
	for _, e := range cfg.SortedEntries() {
		p, err := service.EntryPlugin(cfg, e, log, reporter)
		if err != nil {
			return err
		}

		_, err = builder.New().
			WithEntry(e.Name).
			WithRoot(cmp.Or(e.Root, ".")).
			WithIncluded(e.IncludedFiles).
			WithExcluded(e.ExcludedFiles).
			WithPlugin(p).
			WithDryRun(true).
			WithLogger(log).
			Build(cmd.Context())
		if err != nil {
			var terr *plugin.TranspileError
			if !errors.As(err, &terr) {
				return err
			}
			failed = append(failed, e.Name)
		}
	}

	fmt.Fprintf(out, "%d errors, %d warnings\n", errCount, warnCount)
	if len(failed) > 0 {
		return fmt.Errorf("check failed for %d of %d entries: %s", len(failed), len(cfg.Entries), strings.Join(failed, ", "))
	}
	return nil
}
