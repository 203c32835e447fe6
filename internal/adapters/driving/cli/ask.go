package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

// previewRunes bounds the fragment text shown when the answer is weak.
const previewRunes = 500

var (
	askDocument string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed norms",
	Long: `Retrieves the most relevant fragments from the index and asks the LLM to
answer using only them. The index is brought up to date first.

Use --document to search a single document (see 'normsqa documents').`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDocument, "document", "d", "", "restrict retrieval to this document")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	p, err := requirePipeline(cmd)
	if err != nil {
		return err
	}

	paths := p.Settings.Paths
	handle, report, err := p.Builder.GetOrCreate(cmd.Context(), paths.PDFDir, paths.IndexDir, false)
	if report != nil && report.State != domain.BuildReuse {
		printBuildReport(cmd.ErrOrStderr(), report)
	}
	if err != nil {
		return fmt.Errorf("preparing index: %w", err)
	}
	defer handle.Close()

	result, err := p.QA.Answer(cmd.Context(), handle, args[0], askDocument)
	if err != nil {
		return err
	}

	if askJSON {
		return outputAnswerJSON(cmd, result)
	}
	outputAnswer(cmd, result)
	return nil
}

type answerJSON struct {
	Question            string         `json:"question"`
	Answer              string         `json:"answer"`
	InsufficientContext bool           `json:"insufficient_context"`
	Sources             []sourceOutput `json:"sources"`
}

type sourceOutput struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
	Text   string `json:"text"`
}

func outputAnswerJSON(cmd *cobra.Command, r *domain.QueryResult) error {
	out := answerJSON{
		Question:            r.Question,
		Answer:              r.Answer,
		InsufficientContext: r.InsufficientContext(),
		Sources:             make([]sourceOutput, len(r.Sources)),
	}
	for i, c := range r.Sources {
		out.Sources[i] = sourceOutput{Source: c.Source, Page: c.Page, Text: c.Text}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswer(cmd *cobra.Command, r *domain.QueryResult) {
	cmd.Println(r.Answer)
	cmd.Println()

	if len(r.Sources) == 0 {
		cmd.Println("No relevant fragments were found in the index.")
		return
	}

	if r.InsufficientContext() {
		cmd.Println("Warning: the retrieved fragments may not answer this question.")
		cmd.Println("Fragments found:")
		for i, c := range r.Sources {
			cmd.Printf("  [%d] %s\n", i+1, citation(c))
			cmd.Printf("      %s\n", preview(c.Text, previewRunes))
		}
		return
	}

	cmd.Println("Источники:")
	for _, c := range uniqueCitations(r.Sources) {
		cmd.Printf("  - %s\n", c)
	}
}

func citation(c domain.Chunk) string {
	return fmt.Sprintf("%s, стр. %d", c.Source, c.Page)
}

// uniqueCitations returns source/page citations in retrieval order.
func uniqueCitations(chunks []domain.Chunk) []string {
	seen := make(map[string]bool, len(chunks))
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		s := citation(c)
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// preview returns at most n runes of text.
func preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
