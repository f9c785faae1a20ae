package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/greenqa/internal/domain/search/mode"
	"github.com/kailas-cloud/greenqa/internal/domain/search/request"
	qauc "github.com/kailas-cloud/greenqa/internal/usecase/qa"
)

// noAnswerMessage is shown when no passage clears the threshold.
const noAnswerMessage = "Couldn't find relevant information. Try asking differently."

var askOpts struct {
	file         string
	mode         string
	threshold    float64
	alternatives int
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the command line",
	Long: `Answer a single question and print the simplified answer, the match
quality and the source passage.

The index comes from --file when given, otherwise from the configured
document, the cached snapshot or the built-in sample.

Examples:
  greenqa ask "What is climate change?"
  greenqa ask --file facts.txt --alternatives 2 "How do solar panels work?"
  greenqa ask --mode overlap "Why should we save water?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askOpts.file, "file", "", "index this document before answering")
	askCmd.Flags().StringVar(&askOpts.mode, "mode", "", "retrieval mode: tfidf or overlap (default from config)")
	askCmd.Flags().Float64Var(&askOpts.threshold, "threshold", -1, "minimum score for a match (default from config)")
	askCmd.Flags().IntVar(&askOpts.alternatives, "alternatives", -1, "runner-up passages to show (default from config)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, envName, "cli")
	if err != nil {
		return err
	}
	defer a.close()

	if askOpts.file != "" {
		if _, err := a.qa.ProcessFile(ctx, askOpts.file); err != nil {
			return err
		}
	} else if err := a.loadInitial(ctx); err != nil {
		return err
	}

	m := mode.Mode(a.cfg.Retrieval.DefaultMode)
	if askOpts.mode != "" {
		m = mode.Mode(askOpts.mode)
	}
	threshold := a.cfg.Retrieval.Threshold
	if cmd.Flags().Changed("threshold") {
		threshold = askOpts.threshold
	}
	alternatives := a.cfg.Retrieval.Alternatives
	if cmd.Flags().Changed("alternatives") {
		alternatives = askOpts.alternatives
	}

	req, err := request.New(strings.Join(args, " "), m, threshold, alternatives)
	if err != nil {
		return err
	}
	answer, err := a.qa.Ask(ctx, &req)
	if err != nil {
		return err
	}

	printAnswer(cmd.OutOrStdout(), &answer)
	return nil
}

func printAnswer(w io.Writer, a *qauc.Answer) {
	if !a.Found {
		_, _ = fmt.Fprintln(w, noAnswerMessage)
		return
	}
	_, _ = fmt.Fprintln(w, a.Simplified)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, a.Confidence())
	_, _ = fmt.Fprintf(w, "Source passage:\n%s\n", a.Match.Text())
	for i := range a.Alternatives {
		alt := &a.Alternatives[i]
		_, _ = fmt.Fprintf(w, "\nAlternative %d (%.1f%%):\n%s\n", i+1, alt.Score()*100, alt.Text())
	}
}
