// Command greenqa answers sustainability questions from a plain-text document:
// it chunks the text, fits a TF-IDF index and returns the best passage in simpler words.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/greenqa/internal/config"
	"github.com/kailas-cloud/greenqa/internal/version"
)

// envName selects config/<env>.yaml.
var envName string

var rootCmd = &cobra.Command{
	Use:   "greenqa",
	Short: "Answer sustainability questions from a text document",
	Long: `greenqa indexes a sustainability document and answers questions about it.

It serves an HTTP API (serve), builds and caches an index (process) and
answers one-off questions from the command line (ask).`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "config environment (loads config/<env>.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
