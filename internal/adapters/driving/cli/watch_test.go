package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

func TestWatchCmd_ReportsBuilds(t *testing.T) {
	tp := setupTestPipeline(t)
	tp.monitor.report = &domain.BuildReport{State: domain.BuildIncremental, FilesSeen: 4, NewFiles: 1}
	tp.monitor.runErr = context.Canceled

	out, err := execute(t, "watch")

	require.NoError(t, err)
	assert.Contains(t, out, "Watching downloaded_pdfs")
	assert.Contains(t, out, "Added 1 new of 4 PDF files.")
	assert.Contains(t, out, "Stopped.")
}

func TestWatchCmd_RunError(t *testing.T) {
	tp := setupTestPipeline(t)
	tp.monitor.runErr = errors.New("watcher limit reached")

	_, err := execute(t, "watch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "watcher limit reached")
}
