package mcp

import (
	"github.com/custodia-labs/normsqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports and the open index the MCP server
// answers from. The index is owned by the caller and must outlive the server.
type Ports struct {
	// QA answers questions.
	QA driving.QAEngine

	// Catalog lists indexed documents.
	Catalog driving.DocumentCatalog

	// Index is the index every call runs against.
	Index driving.IndexHandle
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	switch {
	case p.QA == nil:
		return ErrMissingQAEngine
	case p.Catalog == nil:
		return ErrMissingCatalog
	case p.Index == nil:
		return ErrMissingIndex
	}
	return nil
}
