// Package cli provides the cobra command tree for normsqa.
//
// Commands run against driving ports held in package variables. Settings
// are wired before any command runs; the index pipeline (embedding, LLM,
// storage) is built on first use so that `settings` works before any
// provider is configured.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/normsqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driving"
	"github.com/custodia-labs/normsqa/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Pipeline is the set of services built from validated settings.
type Pipeline struct {
	Settings *domain.AppSettings
	Builder  driving.IndexBuilder
	Catalog  driving.DocumentCatalog
	QA       driving.QAEngine

	// NewMonitor returns a monitor keeping the index at indexDir in step
	// with pdfDir. onBuild is called after every build.
	NewMonitor func(pdfDir, indexDir string, onBuild func(*domain.BuildReport, error)) driving.CorpusMonitor

	// Close releases provider clients.
	Close func()
}

// PipelineOptions are the per-invocation knobs for building a Pipeline.
type PipelineOptions struct {
	// Ephemeral keeps the index in memory instead of on disk.
	Ephemeral bool

	// Progress receives per-batch build progress. May be nil.
	Progress domain.ProgressFunc
}

// Wiring constructs services once flags are parsed.
type Wiring struct {
	Settings func(configDir string) (driving.SettingsService, error)
	Pipeline func(settings *domain.AppSettings, opts PipelineOptions) (*Pipeline, error)
}

var (
	wiring          *Wiring
	settingsService driving.SettingsService
	pipeline        *Pipeline
)

// Global flags.
var (
	verbose   bool
	quiet     bool
	configDir string
	envFile   string
	pdfDir    string
	indexDir  string
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "normsqa",
	Short: "Question answering over construction norm PDFs",
	Long: `normsqa indexes a directory of construction norm PDFs (СН РК, СП РК)
and answers questions about them with an LLM, citing document and page.

Quick start:
  normsqa settings           # check providers and paths
  normsqa index              # build or update the index
  normsqa ask "вопрос"       # ask a question`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "show debug and info logs")
	pf.BoolVarP(&quiet, "quiet", "q", false, "hide warnings")
	pf.StringVar(&configDir, "config", "", "config directory (default ~/.normsqa)")
	pf.StringVar(&envFile, "env-file", file.DotEnvFile, "dotenv file with API keys")
	pf.StringVar(&pdfDir, "pdf-dir", "", "directory of PDF files (overrides settings)")
	pf.StringVar(&indexDir, "index-dir", "", "index directory (overrides settings)")
	pf.BoolVar(&ephemeral, "ephemeral", false, "keep the index in memory for this run only")
}

// Execute runs the root command with the given wiring.
func Execute(ctx context.Context, w *Wiring, buildVersion string) error {
	wiring = w
	if buildVersion != "" {
		version = buildVersion
	}
	defer closePipeline()
	return rootCmd.ExecuteContext(ctx)
}

// setup loads the environment, configures logging and wires settings.
func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetQuiet(quiet)

	if err := file.LoadDotEnv(envFile); err != nil {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}

	if settingsService != nil || wiring == nil || wiring.Settings == nil {
		return nil
	}
	svc, err := wiring.Settings(configDir)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	settingsService = svc
	return nil
}

// requirePipeline returns the wired pipeline, building it on first use.
func requirePipeline(cmd *cobra.Command) (*Pipeline, error) {
	if pipeline != nil {
		return pipeline, nil
	}
	if settingsService == nil || wiring == nil || wiring.Pipeline == nil {
		return nil, errors.New("index pipeline not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	applyPathFlags(settings)
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w\nRun 'normsqa settings' to review configuration", err)
	}

	opts := PipelineOptions{Ephemeral: ephemeral}
	if isTerminal(cmd) {
		opts.Progress = progressPrinter(cmd)
	}

	p, err := wiring.Pipeline(settings, opts)
	if err != nil {
		return nil, err
	}
	pipeline = p
	return pipeline, nil
}

func applyPathFlags(settings *domain.AppSettings) {
	if pdfDir != "" {
		settings.Paths.PDFDir = pdfDir
	}
	if indexDir != "" {
		settings.Paths.IndexDir = indexDir
	}
}

func closePipeline() {
	if pipeline != nil && pipeline.Close != nil {
		pipeline.Close()
	}
	pipeline = nil
}

// isTerminal reports whether the command writes to an interactive terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.ErrOrStderr().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
