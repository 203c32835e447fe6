package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driving"
)

// mockIndex is a mock implementation of driving.IndexHandle.
type mockIndex struct {
	path    string
	count   int
	sources []string
	closed  bool
}

func (m *mockIndex) Path() string { return m.path }
func (m *mockIndex) Count(_ context.Context) (int, error) { return m.count, nil }
func (m *mockIndex) ListSources(_ context.Context) []string { return m.sources }
func (m *mockIndex) AddBatch(_ context.Context, _ []domain.Chunk) error { return nil }

func (m *mockIndex) Close() error {
	m.closed = true
	return nil
}

func (m *mockIndex) Search(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.Chunk, error) {
	return nil, nil
}

// mockBuilder is a mock implementation of driving.IndexBuilder.
type mockBuilder struct {
	index   *mockIndex
	report  *domain.BuildReport
	err     error
	openErr error

	forced  []bool
	pdfDirs []string
	opened  int
}

func (m *mockBuilder) Open(_ context.Context, _ string) (driving.IndexHandle, error) {
	m.opened++
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.index, nil
}

func (m *mockBuilder) GetOrCreate(
	_ context.Context,
	pdfDir, _ string,
	forceRebuild bool,
) (driving.IndexHandle, *domain.BuildReport, error) {
	m.forced = append(m.forced, forceRebuild)
	m.pdfDirs = append(m.pdfDirs, pdfDir)
	if m.err != nil {
		return nil, m.report, m.err
	}
	return m.index, m.report, nil
}

// mockCatalog is a mock implementation of driving.DocumentCatalog.
type mockCatalog struct{}

func (mockCatalog) List(ctx context.Context, index driving.IndexHandle) []string {
	return index.ListSources(ctx)
}

// mockQA is a mock implementation of driving.QAEngine.
type mockQA struct {
	result *domain.QueryResult
	err    error

	gotQuestion string
	gotScope    string
}

func (m *mockQA) Answer(_ context.Context, _ driving.IndexHandle, question, scope string) (*domain.QueryResult, error) {
	m.gotQuestion = question
	m.gotScope = scope
	return m.result, m.err
}

// mockMonitor is a mock implementation of driving.CorpusMonitor.
type mockMonitor struct {
	onBuild func(*domain.BuildReport, error)
	report  *domain.BuildReport
	runErr  error
}

func (m *mockMonitor) Run(_ context.Context) error {
	m.onBuild(m.report, nil)
	return m.runErr
}

func (m *mockMonitor) Stop() error { return nil }

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error
}

func newMockSettingsService() *mockSettingsService {
	s := domain.DefaultAppSettings()
	s.Embedding.APIKey = "sk-test-embedding-key"
	s.LLM.APIKey = "sk-test-llm-key"
	return &mockSettingsService{settings: s}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetPaths(pdfDir, indexDir string) error {
	if pdfDir != "" {
		m.settings.Paths.PDFDir = pdfDir
	}
	if indexDir != "" {
		m.settings.Paths.IndexDir = indexDir
	}
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }
func (m *mockSettingsService) ValidateLLMConfig() error { return m.pingErr }

// testPipeline wires mocks into the package variables for one test.
type testPipeline struct {
	builder  *mockBuilder
	qa       *mockQA
	monitor  *mockMonitor
	settings *mockSettingsService
}

func setupTestPipeline(t *testing.T) *testPipeline {
	t.Helper()

	tp := &testPipeline{
		builder: &mockBuilder{
			index:  &mockIndex{path: "vectordb", count: 3, sources: []string{"СН РК 1.pdf", "СП РК 2.pdf"}},
			report: &domain.BuildReport{State: domain.BuildReuse, FilesSeen: 2},
		},
		qa:       &mockQA{result: &domain.QueryResult{}},
		monitor:  &mockMonitor{},
		settings: newMockSettingsService(),
	}

	settings := tp.settings.settings
	pipeline = &Pipeline{
		Settings: &settings,
		Builder:  tp.builder,
		Catalog:  mockCatalog{},
		QA:       tp.qa,
		NewMonitor: func(_, _ string, onBuild func(*domain.BuildReport, error)) driving.CorpusMonitor {
			tp.monitor.onBuild = onBuild
			return tp.monitor
		},
	}
	settingsService = tp.settings

	t.Cleanup(func() {
		pipeline = nil
		settingsService = nil
	})
	return tp
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags()
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags() {
	verbose, quiet, ephemeral = false, false, false
	pdfDir, indexDir = "", ""
	askDocument, askJSON = "", false
	documentsJSON = false
	indexForceRebuild, indexStatus = false, false
}
