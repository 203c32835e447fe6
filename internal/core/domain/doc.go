// Package domain defines the core entities of the normsqa pipeline.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - SourceDocument: a PDF in the corpus directory, identified by file name
//   - PageRecord: the plain text of one page, transient
//   - Chunk: the atomic unit stored in the vector index
//   - IndexEntry: a chunk plus its embedding, owned by the index
//   - QueryResult: a generated answer plus the chunks that grounded it
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
