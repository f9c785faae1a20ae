package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/greenqa/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}
