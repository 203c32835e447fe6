package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
	"github.com/custodia-labs/normsqa/internal/core/ports/driving"
	"github.com/custodia-labs/normsqa/internal/logger"
)

// Ensure QAService implements the interface.
var _ driving.QAEngine = (*QAService)(nil)

// QAService answers questions with one retrieval and one LLM call.
// It never retries the model.
type QAService struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	search  domain.SearchOptions
}

// QAOption configures a QAService.
type QAOption func(*QAService)

// WithSearchOptions overrides k, fetchK, threshold and lambda. Any filter
// in opts is replaced by the scope of each question.
func WithSearchOptions(opts domain.SearchOptions) QAOption {
	return func(s *QAService) { s.search = opts }
}

// WithPromptStore loads the answer template from store instead of the
// built-in one.
func WithPromptStore(store driven.PromptStore) QAOption {
	return func(s *QAService) { s.prompts = store }
}

// NewQAService creates a QA service.
func NewQAService(llm driven.LLMService, opts ...QAOption) *QAService {
	s := &QAService{
		llm:    llm,
		search: domain.DefaultSearchOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// promptData is passed to the answer template.
type promptData struct {
	Context  string
	Question string
}

// Answer retrieves context for question within scope and asks the model.
func (s *QAService) Answer(
	ctx context.Context, index driving.IndexHandle, question, scope string,
) (*domain.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &domain.QueryError{Question: question, Err: fmt.Errorf("empty question: %w", domain.ErrInvalidInput)}
	}
	if index == nil {
		return nil, &domain.QueryError{Question: question, Err: fmt.Errorf("no index: %w", domain.ErrEmptyOrMissing)}
	}
	if s.llm == nil {
		return nil, &domain.QueryError{Question: question, Err: domain.ErrLLMUnavailable}
	}

	opts := s.search
	opts.Filter = domain.ScopeFilter(scope)

	chunks, err := index.Search(ctx, question, opts)
	if err != nil {
		return nil, &domain.QueryError{Question: question, Err: err}
	}
	logger.Debug("retrieved %d chunks for %q (scope %q)", len(chunks), question, scope)

	prompt, err := s.buildPrompt(question, chunks)
	if err != nil {
		return nil, &domain.QueryError{Question: question, Err: err}
	}

	answer, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		return nil, &domain.QueryError{Question: question, Err: err}
	}

	return &domain.QueryResult{
		Question: question,
		Answer:   strings.TrimSpace(answer),
		Sources:  chunks,
	}, nil
}

// buildPrompt renders the answer template.
func (s *QAService) buildPrompt(question string, chunks []domain.Chunk) (string, error) {
	tmpl, err := template.New(driven.PromptQA).Parse(s.loadTemplate())
	if err != nil {
		logger.Warn("invalid %s prompt, using built-in: %v", driven.PromptQA, err)
		tmpl = template.Must(template.New(driven.PromptQA).Parse(domain.DefaultQAPrompt))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Context: FormatContext(chunks), Question: question}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

func (s *QAService) loadTemplate() string {
	if s.prompts == nil {
		return domain.DefaultQAPrompt
	}
	text, err := s.prompts.Load(driven.PromptQA)
	if err != nil || strings.TrimSpace(text) == "" {
		return domain.DefaultQAPrompt
	}
	return text
}

// FormatContext joins chunks in retrieval order, each under a header
// naming its source and page.
func FormatContext(chunks []domain.Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[")
		b.WriteString(c.Source)
		b.WriteString(", стр. ")
		b.WriteString(strconv.Itoa(c.Page))
		b.WriteString("]\n")
		b.WriteString(c.Text)
	}
	return b.String()
}
