// Command normsqa answers questions about a directory of construction
// norm PDFs.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/normsqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/normsqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/normsqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/normsqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/normsqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/normsqa/internal/connectors/filesystem"
	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
	"github.com/custodia-labs/normsqa/internal/core/ports/driving"
	"github.com/custodia-labs/normsqa/internal/core/services"
	"github.com/custodia-labs/normsqa/internal/normalisers/pdf"
	"github.com/custodia-labs/normsqa/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = ""

// promptDir is resolved alongside the config directory.
var promptDir string

func main() {
	w := &cli.Wiring{
		Settings: newSettings,
		Pipeline: newPipeline,
	}

	if err := cli.Execute(context.Background(), w, version); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newSettings(configDir string) (driving.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, err
	}
	if configDir != "" {
		promptDir = filepath.Join(configDir, "prompts")
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

func newPipeline(settings *domain.AppSettings, opts cli.PipelineOptions) (*cli.Pipeline, error) {
	providers, err := ai.NewServices(settings)
	if err != nil {
		return nil, err
	}

	splitter, err := chunker.New(
		chunker.WithChunkSize(settings.Ingest.ChunkSize),
		chunker.WithOverlap(settings.Ingest.ChunkOverlap),
	)
	if err != nil {
		providers.Close()
		return nil, err
	}

	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		providers.Close()
		return nil, err
	}

	var storage driven.IndexStorage = sqlite.NewStorage()
	if opts.Ephemeral {
		storage = memory.NewStorage()
	}

	corpus := filesystem.New()
	builder := services.NewIndexBuilder(
		storage,
		providers.Embedding,
		corpus,
		pdf.New(),
		splitter,
		services.WithIngestSettings(settings.Ingest),
		services.WithProgress(opts.Progress),
	)

	return &cli.Pipeline{
		Settings: settings,
		Builder:  builder,
		Catalog:  services.NewCatalogService(),
		QA: services.NewQAService(
			providers.LLM,
			services.WithSearchOptions(settings.Retrieval.SearchOptions()),
			services.WithPromptStore(prompts),
		),
		NewMonitor: func(pdfDir, indexDir string, onBuild func(*domain.BuildReport, error)) driving.CorpusMonitor {
			return services.NewWatchService(builder, corpus, pdfDir, indexDir,
				services.WithBuildCallback(onBuild))
		},
		Close: providers.Close,
	}, nil
}
