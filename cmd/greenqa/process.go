package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/greenqa/internal/domain/document"
	"github.com/kailas-cloud/greenqa/internal/sample"
	qauc "github.com/kailas-cloud/greenqa/internal/usecase/qa"
)

var processSample bool

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Index a document and cache the index",
	Long: `Chunk and index a document, then save the index snapshot so that
serve and ask start without re-processing.

Examples:
  # Index a file
  greenqa process facts.txt

  # Index from stdin
  cat facts.txt | greenqa process -

  # Index the built-in sample document
  greenqa process --sample`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processSample, "sample", false, "index the built-in sample document")
}

func runProcess(cmd *cobra.Command, args []string) error {
	if processSample == (len(args) == 1) {
		return fmt.Errorf("pass exactly one of a file argument or --sample")
	}

	a, err := newApp(cmd.Context(), envName, "cli")
	if err != nil {
		return err
	}
	defer a.close()

	var status qauc.Status
	switch {
	case processSample:
		status, err = processBytes(cmd, a, sample.Source, sample.Document())
	case args[0] == "-":
		raw, readErr := io.ReadAll(io.LimitReader(cmd.InOrStdin(), document.MaxContentSize+1))
		if readErr != nil {
			return fmt.Errorf("read stdin: %w", readErr)
		}
		status, err = processBytes(cmd, a, "stdin", raw)
	default:
		status, err = a.qa.ProcessFile(cmd.Context(), args[0])
	}
	if err != nil {
		return err
	}

	printStatus(cmd.OutOrStdout(), status)
	return nil
}

func processBytes(cmd *cobra.Command, a *app, source string, raw []byte) (qauc.Status, error) {
	doc, err := document.New(source, raw)
	if err != nil {
		return qauc.Status{}, err
	}
	return a.qa.Process(cmd.Context(), doc)
}

func printStatus(w io.Writer, st qauc.Status) {
	if st.State != qauc.StateBuilt {
		_, _ = fmt.Fprintln(w, "No index loaded.")
		return
	}
	_, _ = fmt.Fprintf(w, "Indexed %s\n", st.Source)
	_, _ = fmt.Fprintf(w, "  chunks:     %d\n", st.Chunks)
	_, _ = fmt.Fprintf(w, "  vocabulary: %d\n", st.Vocabulary)
	_, _ = fmt.Fprintf(w, "  build:      %s\n", st.BuildID)
}
