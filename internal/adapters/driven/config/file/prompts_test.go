package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".normsqa", "prompts"), store.Dir())
}

func TestNewPromptStore_NoIO(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")

	_, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptQA)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultQAPrompt, prompt)

	for _, f := range []string{"qa.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "{{.Question}}")
}

func TestPromptStore_Load_CustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Контекст: {{.Context}}\nВопрос: {{.Question}}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qa.txt"), []byte("\n  "+custom+"  \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptQA)

	require.NoError(t, err)
	assert.Equal(t, custom, prompt)

	data, err := os.ReadFile(filepath.Join(dir, "qa.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), custom, "existing file must not be overwritten")
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptQA)
	require.NoError(t, os.Remove(filepath.Join(dir, "qa.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptQA)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultQAPrompt, prompt)
}

func TestPromptStore_Load_InitFailureUsesDefault(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptQA)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultQAPrompt, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("summarise")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "summarise")
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptQA)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "qa.txt"), []byte("edited {{.Question}}"), 0600))

	cached, err := store.Load(driven.PromptQA)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()

	fresh, err := store.Load(driven.PromptQA)
	require.NoError(t, err)
	assert.Equal(t, "edited {{.Question}}", fresh)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	results := make([]string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], _ = store.Load(driven.PromptQA)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, domain.DefaultQAPrompt, r)
	}
}
