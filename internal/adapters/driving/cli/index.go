package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

var (
	indexForceRebuild bool
	indexStatus       bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or update the document index",
	Long: `Builds the vector index from the PDF directory.

A populated index is reused as is. PDFs that are not yet indexed are added
incrementally. Use --force-rebuild to delete the index and start over.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForceRebuild, "force-rebuild", false, "delete the index and rebuild it from scratch")
	indexCmd.Flags().BoolVar(&indexStatus, "status", false, "print index status without building")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	p, err := requirePipeline(cmd)
	if err != nil {
		return err
	}

	if indexStatus {
		return printIndexStatus(cmd, p)
	}

	paths := p.Settings.Paths
	if indexForceRebuild {
		cmd.Printf("Rebuilding index at %s from %s...\n", paths.IndexDir, paths.PDFDir)
	}

	handle, report, err := p.Builder.GetOrCreate(cmd.Context(), paths.PDFDir, paths.IndexDir, indexForceRebuild)
	if report != nil {
		printBuildReport(cmd.OutOrStdout(), report)
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	defer handle.Close()

	count, err := handle.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("counting entries: %w", err)
	}
	docs := p.Catalog.List(cmd.Context(), handle)
	cmd.Printf("Index ready: %d entries from %d documents.\n", count, len(docs))
	return nil
}

func printIndexStatus(cmd *cobra.Command, p *Pipeline) error {
	handle, err := p.Builder.Open(cmd.Context(), p.Settings.Paths.IndexDir)
	if errors.Is(err, domain.ErrEmptyOrMissing) {
		cmd.Printf("Index at %s is empty. Run 'normsqa index' to build it.\n", p.Settings.Paths.IndexDir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer handle.Close()

	count, err := handle.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("counting entries: %w", err)
	}

	cmd.Println("Index Status")
	cmd.Println("============")
	cmd.Printf("  Location:  %s\n", handle.Path())
	cmd.Printf("  Entries:   %d\n", count)
	cmd.Printf("  Documents: %d\n", len(p.Catalog.List(cmd.Context(), handle)))
	return nil
}

// printBuildReport renders what a build did and what it had to skip.
func printBuildReport(w io.Writer, r *domain.BuildReport) {
	switch r.State {
	case domain.BuildReuse:
		fmt.Fprintf(w, "Index is up to date (%d PDF files).\n", r.FilesSeen)
		printUnchangedSkipped(w, r)
		return
	case domain.BuildIncremental:
		fmt.Fprintf(w, "Added %d new of %d PDF files.\n", r.NewFiles, r.FilesSeen)
	case domain.BuildFresh:
		fmt.Fprintf(w, "Indexed %d PDF files.\n", r.NewFiles)
	}

	fmt.Fprintf(w, "  Pages: %d, chunks: %d\n", r.Pages, r.Chunks)
	fmt.Fprintf(w, "  Batches: %d stored", r.BatchesAdded)
	if r.FailedBatches > 0 {
		fmt.Fprintf(w, ", %d failed", r.FailedBatches)
	}
	fmt.Fprintln(w)

	if len(r.SkippedFiles) > 0 {
		fmt.Fprintf(w, "  Skipped: %s\n", strings.Join(r.SkippedFiles, ", "))
	}
	printUnchangedSkipped(w, r)
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "  Problems (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "    - %v\n", e)
		}
	}
}

func printUnchangedSkipped(w io.Writer, r *domain.BuildReport) {
	if r.UnchangedSkipped > 0 {
		fmt.Fprintf(w, "  %d unchanged files without indexable text left out (use --force-rebuild to retry)\n",
			r.UnchangedSkipped)
	}
}

// progressPrinter reports each embedding batch on stderr.
func progressPrinter(cmd *cobra.Command) domain.ProgressFunc {
	w := cmd.ErrOrStderr()
	return func(p domain.BuildProgress) {
		status := "ok"
		if p.Failed {
			status = "FAILED"
		}
		fmt.Fprintf(w, "  group %d/%d, batch %d (%d in group): %s, %d chunks stored\n",
			p.Group, p.Groups, p.Batch, p.Batches, status, p.ChunksAdded)
	}
}
