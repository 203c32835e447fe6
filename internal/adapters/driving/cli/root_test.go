package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driving"
)

func TestRootCmd_HasGlobalFlags(t *testing.T) {
	for _, name := range []string{"verbose", "quiet", "config", "env-file", "pdf-dir", "index-dir", "ephemeral"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"index", "documents", "ask", "watch", "settings", "mcp", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRequirePipeline_NotConfigured(t *testing.T) {
	_, err := execute(t, "documents")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestRequirePipeline_BuildsFromWiring(t *testing.T) {
	settings := newMockSettingsService()
	var got *domain.AppSettings
	var gotOpts PipelineOptions

	oldWiring := wiring
	wiring = &Wiring{
		Settings: func(string) (driving.SettingsService, error) { return settings, nil },
		Pipeline: func(s *domain.AppSettings, opts PipelineOptions) (*Pipeline, error) {
			got, gotOpts = s, opts
			return &Pipeline{
				Settings: s,
				Builder:  &mockBuilder{openErr: domain.ErrEmptyOrMissing},
				Catalog:  mockCatalog{},
			}, nil
		},
	}
	t.Cleanup(func() {
		wiring = oldWiring
		closePipeline()
		settingsService = nil
	})

	out, err := execute(t, "documents", "--pdf-dir", "/srv/pdfs", "--ephemeral")

	require.NoError(t, err)
	assert.Contains(t, out, "Index is empty")
	require.NotNil(t, got)
	assert.Equal(t, "/srv/pdfs", got.Paths.PDFDir)
	assert.Equal(t, "vectordb", got.Paths.IndexDir)
	assert.True(t, gotOpts.Ephemeral)
	assert.Nil(t, gotOpts.Progress, "progress is only printed on a terminal")
}

func TestRequirePipeline_InvalidSettings(t *testing.T) {
	settings := newMockSettingsService()
	settings.settings.Embedding.APIKey = ""

	oldWiring := wiring
	wiring = &Wiring{
		Settings: func(string) (driving.SettingsService, error) { return settings, nil },
		Pipeline: func(*domain.AppSettings, PipelineOptions) (*Pipeline, error) {
			return nil, errors.New("must not be called")
		},
	}
	t.Cleanup(func() {
		wiring = oldWiring
		settingsService = nil
	})

	_, err := execute(t, "index")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.Contains(t, err.Error(), "normsqa settings")
}

func TestSetup_SettingsWiringError(t *testing.T) {
	oldWiring := wiring
	wiring = &Wiring{
		Settings: func(string) (driving.SettingsService, error) { return nil, errors.New("bad toml") },
	}
	t.Cleanup(func() { wiring = oldWiring })

	_, err := execute(t, "settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad toml")
}
