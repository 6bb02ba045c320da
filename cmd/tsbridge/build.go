package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/tsbridge/tsbridge/internal/config"
	"github.com/tsbridge/tsbridge/internal/logging"
	"github.com/tsbridge/tsbridge/internal/progress"
	"github.com/tsbridge/tsbridge/internal/service"
)

var (
	buildOut      string
	buildWatch    bool
	buildWorkers  int
	buildStats    bool
	buildProgress bool
	buildDryRun   bool
	buildService  string
)

var buildCmd = &cobra.Command{
	Use:   "build [entry...]",
	Short: "Transpile the manifest entries",
	Long: `Build transpiles every TypeScript tree in the manifest (or just the named
entries) and mirrors the outputs into each entry's output root. With --watch
the entries are rebuilt whenever their sources change, until interrupted;
SIGHUP reloads the manifest.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "output root (single entry only)")
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "rebuild entries when their sources change")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "number of concurrent entry builds (0 = one per CPU)")
	buildCmd.Flags().BoolVar(&buildStats, "stats", false, "print build metrics after the run")
	buildCmd.Flags().BoolVar(&buildProgress, "progress", false, "show a progress bar")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "transpile without writing outputs")
	buildCmd.Flags().StringVar(&buildService, "service", "", "compiler service (esbuild|tsc), overriding the manifest")
}

func runBuild(cmd *cobra.Command, args []string) error {
	reload := func() (*config.Root, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		if cfg, err = selectEntries(cfg, args); err != nil {
			return nil, err
		}
		if err := applyServiceOverride(cfg, buildService); err != nil {
			return nil, err
		}
		if buildOut != "" {
			if len(cfg.Entries) != 1 {
				return nil, fmt.Errorf("--out requires building a single entry")
			}
			for _, e := range cfg.Entries {
				e.Out = buildOut
			}
		}
		return cfg, nil
	}

	cfg, err := reload()
	if err != nil {
		return err
	}

	log := newLogger()

	var bar *progress.Bar
	if buildProgress {
		bar = progress.New(os.Stderr, "building")
	}

	svc := service.New().
		WithConfig(cfg).
		WithWorkers(buildWorkers).
		WithSingleShot(!buildWatch).
		WithDryRun(buildDryRun).
		WithLogger(log).
		WithProgressBar(bar)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if buildWatch {
		reloadOnSIGHUP(ctx, svc, reload, log)
	}

	if err := svc.Run(ctx); err != nil {
		return err
	}

	if buildStats {
		return printStats(cmd.OutOrStdout())
	}
	return nil
}

// reloadOnSIGHUP re-reads the manifest and reconfigures the running service
// when the process receives SIGHUP. A manifest that fails to load keeps the
// previous configuration.
func reloadOnSIGHUP(ctx context.Context, svc *service.Service, reload func() (*config.Root, error), log *logging.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				cfg, err := reload()
				if err != nil {
					log.Warnf("manifest reload failed: %v", err)
					continue
				}
				log.Infof("Manifest reloaded.")
				svc.Reconfigure(cfg)
			}
		}
	}()
}

// printStats renders the build metrics gathered during the run.
func printStats(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}

	table := tablewriter.NewTable(w)
	table.Header("METRIC", "LABELS", "VALUE")

	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "tsb_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			if err := table.Append(mf.GetName(), labelString(m), valueString(m)); err != nil {
				return err
			}
		}
	}
	return table.Render()
}

func labelString(m *dto.Metric) string {
	pairs := make([]string, 0, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		pairs = append(pairs, lp.GetName()+"="+lp.GetValue())
	}
	return strings.Join(pairs, ",")
}

func valueString(m *dto.Metric) string {
	switch {
	case m.GetCounter() != nil:
		return formatFloat(m.GetCounter().GetValue())
	case m.GetGauge() != nil:
		return formatFloat(m.GetGauge().GetValue())
	case m.GetHistogram() != nil:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%s", h.GetSampleCount(), formatFloat(h.GetSampleSum()))
	}
	return ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
