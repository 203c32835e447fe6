package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index in step with the PDF directory",
	Long: `Builds the index, then watches the PDF directory and indexes new or
changed PDFs as they appear. Removed files stay indexed until
'normsqa index --force-rebuild'. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	p, err := requirePipeline(cmd)
	if err != nil {
		return err
	}
	if p.NewMonitor == nil {
		return errors.New("watch is not available")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths := p.Settings.Paths
	monitor := p.NewMonitor(paths.PDFDir, paths.IndexDir, func(report *domain.BuildReport, err error) {
		if report != nil {
			printBuildReport(cmd.OutOrStdout(), report)
		}
		if err != nil && ctx.Err() == nil {
			cmd.PrintErrf("Build failed: %v\n", err)
		}
	})

	cmd.Printf("Watching %s (Ctrl+C to stop)...\n", paths.PDFDir)
	err = monitor.Run(ctx)
	if errors.Is(err, context.Canceled) {
		cmd.Println("Stopped.")
		return nil
	}
	return err
}
