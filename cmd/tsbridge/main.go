// Package main implements the tsbridge CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/tsbridge/tsbridge/internal/config"
	"github.com/tsbridge/tsbridge/internal/logging"
	"github.com/tsbridge/tsbridge/internal/version"
)

// defaultManifest is picked up from the working directory when no --config
// flags are given.
const defaultManifest = "tsbridge.yaml"

var rootCmd = &cobra.Command{
	Use:   "tsbridge",
	Short: "TypeScript build bridge",
	Long: `tsbridge transpiles TypeScript trees with bundler-grade module and
tsconfig handling. Builds are described by a YAML manifest with one entry
per source tree; without a manifest the working directory is built.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configFiles []string
	logLevel    = logging.LogLevelInfo
	logFormat   string
)

var logLevelIds = map[logging.Level][]string{
	logging.LogLevelDebug: {"debug"},
	logging.LogLevelInfo:  {"info"},
	logging.LogLevelWarn:  {"warn", "warning"},
	logging.LogLevelError: {"error"},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil, "manifest file or directory, may be repeated; later files win on merge")
	rootCmd.PersistentFlags().VarP(enumflag.New(&logLevel, "level", logLevelIds, enumflag.EnumCaseInsensitive), "log-level", "l", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.LogFormatText, "log format (text|json)")
}

func main() {
	rootCmd.Version = version.String()
	rootCmd.AddCommand(buildCmd, checkCmd, configCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: logLevel, Format: logFormat})
}

// loadConfig merges the manifest files into a Root. Without --config flags
// it falls back to tsbridge.yaml when present, or to a synthesized entry
// building the working directory into dist/.
func loadConfig() (*config.Root, error) {
	files := configFiles
	if len(files) == 0 {
		if _, err := os.Stat(defaultManifest); err == nil {
			files = []string{defaultManifest}
		}
	}

	if len(files) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root := &config.Root{Entries: map[string]*config.Entry{
			filepath.Base(wd): {Root: ".", Out: "dist"},
		}}
		if err := root.Unmarshal(); err != nil {
			return nil, err
		}
		return root, nil
	}

	bs, err := config.Merge(files, false)
	if err != nil {
		return nil, err
	}
	return config.Parse(bs)
}

// selectEntries narrows the manifest to the named entries. No names selects
// everything.
func selectEntries(cfg *config.Root, names []string) (*config.Root, error) {
	if len(names) == 0 {
		return cfg, nil
	}

	picked := make(map[string]*config.Entry, len(names))
	for _, name := range names {
		e, ok := cfg.Entries[name]
		if !ok {
			return nil, fmt.Errorf("no entry %q in the manifest", name)
		}
		picked[name] = e
	}

	narrowed := *cfg
	narrowed.Entries = picked
	return &narrowed, nil
}

// applyServiceOverride forces the compiler service for every entry. The
// empty string keeps the manifest's choice.
func applyServiceOverride(cfg *config.Root, svc string) error {
	if svc == "" {
		return nil
	}
	if svc != config.ServiceESBuild && svc != config.ServiceTSC {
		return fmt.Errorf("unknown service %q (must be %s or %s)", svc, config.ServiceESBuild, config.ServiceTSC)
	}
	cfg.Service = svc
	for _, e := range cfg.Entries {
		e.Service = ""
	}
	return nil
}
