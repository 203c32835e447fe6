// Package sqlite persists the vector index in a single SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Each index location is a directory holding index.db.
// Embeddings are stored as little-endian float32 blobs next to the chunk
// text and its source/page metadata; similarity is computed in Go over the
// rows that pass the metadata filter.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory (NNN_name.up.sql). Applied versions are recorded in
// schema_migrations.
//
// # Concurrency
//
// Readers may run concurrently. A single writing process per location is
// assumed; SQLite in WAL mode keeps readers consistent with committed batches.
package sqlite
