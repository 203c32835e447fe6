package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// excerptRunes bounds the source excerpt returned with an answer.
const excerptRunes = 500

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question about construction norms"`
	Document string `json:"document,omitempty" jsonschema:"restrict retrieval to this document name (omit for all documents)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer string `json:"answer"`

	// InsufficientContext is set when the model reported that the
	// retrieved fragments do not answer the question.
	InsufficientContext bool         `json:"insufficient_context"`
	Sources             []SourceInfo `json:"sources"`
}

// SourceInfo is one retrieved fragment.
type SourceInfo struct {
	Source  string `json:"source"`
	Page    int    `json:"page"`
	Excerpt string `json:"excerpt"`
}

// ListDocumentsInput is the (empty) input schema for list_documents.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for list_documents.
type ListDocumentsOutput struct {
	Documents []string `json:"documents"`
	Count     int      `json:"count"`
}

// IndexStatusInput is the (empty) input schema for index_status.
type IndexStatusInput struct{}

// IndexStatusOutput is the output schema for index_status.
type IndexStatusOutput struct {
	Path      string `json:"path"`
	Entries   int    `json:"entries"`
	Documents int    `json:"documents"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed construction norms, citing source documents and pages",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents present in the index",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the index location, entry count and document count",
	}, s.handleIndexStatus)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, ErrEmptyQuestion
	}

	result, err := s.ports.QA.Answer(ctx, s.ports.Index, input.Question, input.Document)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:              result.Answer,
		InsufficientContext: result.InsufficientContext(),
		Sources:             make([]SourceInfo, len(result.Sources)),
	}
	for i, c := range result.Sources {
		output.Sources[i] = SourceInfo{
			Source:  c.Source,
			Page:    c.Page,
			Excerpt: excerpt(c.Text, excerptRunes),
		}
	}

	return nil, output, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs := s.ports.Catalog.List(ctx, s.ports.Index)
	return nil, ListDocumentsOutput{Documents: docs, Count: len(docs)}, nil
}

// handleIndexStatus handles the index_status tool invocation.
func (s *Server) handleIndexStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	status, err := s.status(ctx)
	if err != nil {
		return nil, IndexStatusOutput{}, err
	}
	return nil, status, nil
}

func (s *Server) status(ctx context.Context) (IndexStatusOutput, error) {
	count, err := s.ports.Index.Count(ctx)
	if err != nil {
		return IndexStatusOutput{}, err
	}
	return IndexStatusOutput{
		Path:      s.ports.Index.Path(),
		Entries:   count,
		Documents: len(s.ports.Catalog.List(ctx, s.ports.Index)),
	}, nil
}

// excerpt returns at most n runes of text.
func excerpt(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
