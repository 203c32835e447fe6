// Package mcp provides an MCP (Model Context Protocol) server adapter for normsqa.
// It lets AI assistants ask questions about the indexed construction norms
// and see which documents the index holds.
package mcp

import "errors"

// Errors returned by Ports.Validate.
var (
	ErrMissingQAEngine = errors.New("mcp: QA engine is required")
	ErrMissingCatalog  = errors.New("mcp: document catalog is required")
	ErrMissingIndex    = errors.New("mcp: open index is required")
)

// ErrEmptyQuestion is returned by the ask tool for a blank question.
var ErrEmptyQuestion = errors.New("mcp: question is required")
