package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	domain "github.com/AzielCF/az-insights/research/domain"
	"github.com/AzielCF/az-insights/research/tokenizer"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [text...]",
	Short: "Count the tokens of a text with the configured tokenizer",
	Long: `Count tokens the same way the context manager does. The text is taken from the
arguments, or from stdin when no arguments are given.`,
	RunE: countTokens,
}

func init() {
	tokensCmd.Flags().String("model", "", "model whose encoding is used (default from AI_COMPLETION_MODEL)")
	rootCmd.AddCommand(tokensCmd)
}

func countTokens(cmd *cobra.Command, args []string) error {
	model := cfg.AI.CompletionModel
	if m, _ := cmd.Flags().GetString("model"); m != "" {
		model = m
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(raw)
	}

	counter := tokenizer.NewCounter(model)
	tokens := counter.CountTokens(text)

	limit := cfg.Context.MaxTokens - cfg.Context.TokenBuffer
	if limit < domain.MinEffectiveLimit {
		limit = domain.MinEffectiveLimit
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tokens:   %s\n", humanize.Comma(int64(tokens)))
	fmt.Fprintf(out, "encoding: %s\n", counter.Encoding())
	fmt.Fprintf(out, "budget:   %.1f%% of %s\n", 100*float64(tokens)/float64(limit), humanize.Comma(int64(limit)))
	if counter.IsFallback() {
		fmt.Fprintln(os.Stderr, "warning: tiktoken unavailable, count is approximate")
	}
	return nil
}
