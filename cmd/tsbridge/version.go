package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tsbridge/tsbridge/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tsbridge version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tsbridge %s %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	},
}
