package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/praxis-labs/bubblesync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// bookkeeping store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.bubblesync/data/sync.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".bubblesync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sync.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
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

// SyncStateStore returns a SyncStateStore interface backed by this store.
func (s *Store) SyncStateStore() driven.SyncStateStore {
	return &syncStateStore{store: s}
}

// ChunkRefStore returns a ChunkRefStore interface backed by this store.
func (s *Store) ChunkRefStore() driven.ChunkRefStore {
	return &chunkRefStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Sync State Store ====================

// syncStateStore implements driven.SyncStateStore.
type syncStateStore struct {
	store *Store
}

var _ driven.SyncStateStore = (*syncStateStore)(nil)

// GetLastSync returns the stored sync timestamp for a scope, or nil if the
// scope has never been synced successfully.
func (s *syncStateStore) GetLastSync(ctx context.Context, scopeKey string) (*time.Time, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT last_sync_timestamp FROM sync_states WHERE data_type = ?
	`, scopeKey)

	var millis sql.NullInt64
	if err := row.Scan(&millis); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning last sync: %w", err)
	}
	if !millis.Valid {
		return nil, nil
	}
	ts := time.UnixMilli(millis.Int64).UTC()
	return &ts, nil
}

// Get retrieves the full sync state entry for a scope.
func (s *syncStateStore) Get(ctx context.Context, scopeKey string) (*domain.SyncState, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT data_type, last_sync_timestamp, last_successful_count, error_count, created_at, updated_at
		FROM sync_states WHERE data_type = ?
	`, scopeKey)

	state, err := scanSyncState(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning sync state: %w", err)
	}
	return state, nil
}

// List returns all sync state entries ordered by scope key.
func (s *syncStateStore) List(ctx context.Context) ([]domain.SyncState, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT data_type, last_sync_timestamp, last_successful_count, error_count, created_at, updated_at
		FROM sync_states ORDER BY data_type
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sync states: %w", err)
	}
	defer rows.Close()

	var states []domain.SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sync state: %w", err)
		}
		states = append(states, *state)
	}
	return states, rows.Err()
}

// RecordSuccess upserts the entry after a fully successful cycle.
// The stored timestamp only ever advances: MAX keeps the newer value even
// if a caller supplies an older one.
func (s *syncStateStore) RecordSuccess(ctx context.Context, scopeKey string, syncTime time.Time, count int) error {
	now := time.Now().UTC()
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_states (data_type, last_sync_timestamp, last_successful_count, error_count, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
		ON CONFLICT(data_type) DO UPDATE SET
			last_sync_timestamp = MAX(COALESCE(sync_states.last_sync_timestamp, 0), excluded.last_sync_timestamp),
			last_successful_count = excluded.last_successful_count,
			updated_at = excluded.updated_at
	`, scopeKey, syncTime.UTC().UnixMilli(), count, now, now)
	if err != nil {
		return fmt.Errorf("recording success: %w", err)
	}
	return nil
}

// RecordFailure increments the scope's error count without touching its
// last sync timestamp.
func (s *syncStateStore) RecordFailure(ctx context.Context, scopeKey string) error {
	now := time.Now().UTC()
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_states (data_type, last_sync_timestamp, last_successful_count, error_count, created_at, updated_at)
		VALUES (?, NULL, 0, 1, ?, ?)
		ON CONFLICT(data_type) DO UPDATE SET
			error_count = sync_states.error_count + 1,
			updated_at = excluded.updated_at
	`, scopeKey, now, now)
	if err != nil {
		return fmt.Errorf("recording failure: %w", err)
	}
	return nil
}

// Delete removes a scope's entry. Explicit admin action only.
func (s *syncStateStore) Delete(ctx context.Context, scopeKey string) error {
	_, err := s.store.db.ExecContext(ctx, `DELETE FROM sync_states WHERE data_type = ?`, scopeKey)
	if err != nil {
		return fmt.Errorf("deleting sync state: %w", err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSyncState(row scanner) (*domain.SyncState, error) {
	var state domain.SyncState
	var millis sql.NullInt64
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&state.ScopeKey, &millis, &state.LastCount, &state.ErrorCount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if millis.Valid {
		state.LastSync = time.UnixMilli(millis.Int64).UTC()
	}
	if createdAt.Valid {
		state.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		state.UpdatedAt = updatedAt.Time
	}
	return &state, nil
}

// ==================== Chunk Ref Store ====================

// chunkRefStore implements driven.ChunkRefStore.
type chunkRefStore struct {
	store *Store
}

var _ driven.ChunkRefStore = (*chunkRefStore)(nil)

// ListBySourceType returns the refs of every indexed chunk of an object type.
func (s *chunkRefStore) ListBySourceType(ctx context.Context, sourceType string) ([]domain.ChunkRef, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT chunk_id, source, source_type, content_hash
		FROM chunk_refs WHERE source_type = ?
	`, sourceType)
	if err != nil {
		return nil, fmt.Errorf("listing chunk refs: %w", err)
	}
	defer rows.Close()

	var refs []domain.ChunkRef
	for rows.Next() {
		var ref domain.ChunkRef
		if err := rows.Scan(&ref.ID, &ref.Source, &ref.SourceType, &ref.ContentHash); err != nil {
			return nil, fmt.Errorf("scanning chunk ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// Upsert stores or updates a chunk ref.
func (s *chunkRefStore) Upsert(ctx context.Context, ref domain.ChunkRef) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO chunk_refs (chunk_id, source, source_type, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			source = excluded.source,
			source_type = excluded.source_type,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`, ref.ID, ref.Source, ref.SourceType, ref.ContentHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upserting chunk ref: %w", err)
	}
	return nil
}

// Delete removes chunk refs by ID.
func (s *chunkRefStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf("DELETE FROM chunk_refs WHERE chunk_id IN (%s)", placeholders)
	if _, err := s.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting chunk refs: %w", err)
	}
	return nil
}
