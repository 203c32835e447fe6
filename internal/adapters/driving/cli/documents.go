package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List indexed documents",
	Long: `Lists the names of the documents present in the index. A name can be
passed to 'normsqa ask --document' to restrict retrieval to that document.`,
	Args: cobra.NoArgs,
	RunE: runDocuments,
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	p, err := requirePipeline(cmd)
	if err != nil {
		return err
	}

	handle, err := p.Builder.Open(cmd.Context(), p.Settings.Paths.IndexDir)
	if errors.Is(err, domain.ErrEmptyOrMissing) {
		cmd.Println("Index is empty. Run 'normsqa index' first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer handle.Close()

	docs := p.Catalog.List(cmd.Context(), handle)

	if documentsJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	cmd.Printf("Documents (%d):\n", len(docs))
	for i, d := range docs {
		cmd.Printf("  %d. %s\n", i+1, d)
	}
	return nil
}
