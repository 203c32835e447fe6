package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/custodia-labs/normsqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
)

// DBFileName is the database file inside an index directory.
const DBFileName = "index.db"

var (
	_ driven.IndexStorage = (*Storage)(nil)
	_ driven.VectorStore  = (*Store)(nil)
)

// Storage opens SQLite index stores in directories.
type Storage struct{}

// NewStorage creates a Storage.
func NewStorage() *Storage {
	return &Storage{}
}

// Open opens or creates the index at dir.
func (Storage) Open(ctx context.Context, dir string) (driven.VectorStore, error) {
	return NewStore(ctx, dir)
}

// Exists reports whether dir holds an index database.
func (Storage) Exists(dir string) (bool, error) {
	if dir == "" {
		return false, nil
	}
	info, err := os.Stat(filepath.Join(dir, DBFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking index directory: %w", err)
	}
	return !info.IsDir(), nil
}

// Destroy removes the index directory and everything in it.
func (Storage) Destroy(dir string) error {
	if dir == "" || dir == "/" {
		return fmt.Errorf("refusing to destroy %q: %w", dir, domain.ErrInvalidInput)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing index directory: %w", err)
	}
	return nil
}

// Store is a SQLite-backed driven.VectorStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens the database in dir, creating the directory and running
// migrations as needed.
func NewStore(ctx context.Context, dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("index directory: %w", domain.ErrInvalidInput)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dir, DBFileName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies pending NNN_name.up.sql files in order, each in its own
// transaction together with its schema_migrations row.
func (s *Store) migrate(ctx context.Context, fsys embed.FS) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(ctx, version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(ctx context.Context, version int, script string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Vector Store ====================

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// ListSources returns the distinct source names, sorted.
func (s *Store) ListSources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT source FROM entries ORDER BY source")
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return sources, nil
}

// Insert stores the entries in one transaction.
func (s *Store) Insert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	dims, err := s.Dimensions(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if len(e.Embedding) == 0 {
			return fmt.Errorf("entry %s has no embedding: %w", e.ID, domain.ErrInvalidInput)
		}
		if dims == 0 {
			dims = len(e.Embedding)
		}
		if len(e.Embedding) != dims {
			return fmt.Errorf("entry %s has %d dimensions, index has %d: %w",
				e.ID, len(e.Embedding), dims, domain.ErrInvalidInput)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", classify(err))
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (id, source, page, content, embedding, dimensions, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		metadataJSON, err := json.Marshal(e.Chunk.Metadata())
		if err != nil {
			return fmt.Errorf("marshalling entry metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, e.ID, e.Chunk.Source, e.Chunk.Page, e.Chunk.Text,
			float32SliceToBytes(e.Embedding), len(e.Embedding), string(metadataJSON)); err != nil {
			return fmt.Errorf("saving entry: %w", classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", classify(err))
	}
	return nil
}

// Nearest scans entries passing the filter and ranks them by cosine
// similarity to query.
func (s *Store) Nearest(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.ScoredEntry, error) {
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}

	dims, err := s.Dimensions(ctx)
	if err != nil {
		return nil, err
	}
	if dims > 0 && len(query) != dims {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w", len(query), dims, domain.ErrInvalidInput)
	}

	q := "SELECT id, source, page, content, embedding FROM entries"
	var args []any
	switch opts.Filter.Field {
	case domain.MetaSource:
		q += " WHERE source = ?"
		args = append(args, opts.Filter.Value)
	case domain.MetaPage:
		page, _ := strconv.Atoi(opts.Filter.Value) //nolint:errcheck // validated above
		q += " WHERE page = ?"
		args = append(args, page)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var cands []domain.ScoredEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		cands = append(cands, domain.ScoredEntry{
			IndexEntry: *e,
			Relevance:  domain.CosineSimilarity(query, e.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}

	return domain.RankCandidates(cands, opts), nil
}

// Dimensions returns the vector size already stored, or 0 when empty.
func (s *Store) Dimensions(ctx context.Context) (int, error) {
	var dims int
	err := s.db.QueryRowContext(ctx, "SELECT dimensions FROM entries LIMIT 1").Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading dimensions: %w", err)
	}
	return dims, nil
}

// ==================== Skipped Sources ====================

// Skipped returns the recorded skipped documents sorted by name.
func (s *Store) Skipped(ctx context.Context) ([]domain.SkippedSource, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, size, mod_time, reason FROM skipped_sources ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing skipped sources: %w", err)
	}
	defer rows.Close()

	var out []domain.SkippedSource
	for rows.Next() {
		var (
			d   domain.SkippedSource
			mod int64
		)
		if err := rows.Scan(&d.Name, &d.Size, &mod, &d.Reason); err != nil {
			return nil, fmt.Errorf("scanning skipped source: %w", err)
		}
		if mod != 0 {
			d.ModTime = time.Unix(0, mod)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing skipped sources: %w", err)
	}
	return out, nil
}

// MarkSkipped upserts docs in one transaction.
func (s *Store) MarkSkipped(ctx context.Context, docs []domain.SkippedSource) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", classify(err))
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO skipped_sources (name, size, mod_time, reason)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			size = excluded.size,
			mod_time = excluded.mod_time,
			reason = excluded.reason,
			skipped_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		var mod int64
		if !d.ModTime.IsZero() {
			mod = d.ModTime.UnixNano()
		}
		if _, err := stmt.ExecContext(ctx, d.Name, d.Size, mod, d.Reason); err != nil {
			return fmt.Errorf("saving skipped source: %w", classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", classify(err))
	}
	return nil
}

// ==================== Helper Functions ====================

// classify wraps SQLITE_BUSY and SQLITE_LOCKED failures, including their
// extended codes, with domain.ErrStorageBusy so writers retry them.
func classify(err error) error {
	var serr *sqlitedriver.Error
	if !errors.As(err, &serr) {
		return err
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return fmt.Errorf("%w: %w", domain.ErrStorageBusy, err)
	}
	return err
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanEntry scans one entries row.
func scanEntry(rows *sql.Rows) (*domain.IndexEntry, error) {
	var (
		e    domain.IndexEntry
		blob []byte
	)
	if err := rows.Scan(&e.ID, &e.Chunk.Source, &e.Chunk.Page, &e.Chunk.Text, &blob); err != nil {
		return nil, fmt.Errorf("scanning entry: %w", err)
	}
	e.Embedding = bytesToFloat32Slice(blob)
	return &e, nil
}
