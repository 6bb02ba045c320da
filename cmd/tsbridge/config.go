package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tsbridge/tsbridge/internal/service"
)

var configJSON bool

var configCmd = &cobra.Command{
	Use:   "config [entry...]",
	Short: "Print the finalized manifest",
	Long: `Config validates the manifest, resolves the per-entry defaults and prints
the result. It exits non-zero when the manifest does not validate.`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configJSON, "json", false, "print as JSON")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg, err = selectEntries(cfg, args); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if configJSON {
		bs, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(bs))
		return nil
	}

	table := tablewriter.NewTable(out)
	table.Header("ENTRY", "ROOT", "OUT", "SERVICE", "TSCONFIG", "REBUILD")

	for _, e := range cfg.SortedEntries() {
		tsconfig := "discover"
		switch {
		case e.NoTsconfig:
			tsconfig = "off"
		case e.Tsconfig != "":
			tsconfig = e.Tsconfig
		}

		interval := cmp.Or(time.Duration(e.Interval), service.DefaultRebuildInterval)

		if err := table.Append(
			e.Name,
			cmp.Or(e.Root, "."),
			cmp.Or(e.Out, filepath.Join("dist", e.Name)),
			cfg.ServiceFor(e),
			tsconfig,
			interval.String(),
		); err != nil {
			return err
		}
	}
	return table.Render()
}
