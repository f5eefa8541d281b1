package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// DatabaseFile is the name of the database file inside the data directory.
const DatabaseFile = "docchat.db"

// Store is a unified SQLite-based storage that provides access to
// the vector index and the conversation store through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docchat/data/docchat.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docchat", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

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

// VectorIndex returns a VectorIndex backed by this store.
// Closing it is a no-op; the Store owns the connection.
func (s *Store) VectorIndex() *VectorIndex {
	return &VectorIndex{store: s}
}

// ConversationStore returns a ConversationStore backed by this store.
// Closing it is a no-op; the Store owns the connection.
func (s *Store) ConversationStore() *ConversationStore {
	return &ConversationStore{store: s}
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
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
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Vector Index ====================

// VectorIndex implements driven.VectorIndex.
type VectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*VectorIndex)(nil)

// EnsureCollection returns the named collection, creating it if absent.
func (v *VectorIndex) EnsureCollection(ctx context.Context, name string) (domain.Collection, error) {
	if name == "" {
		return domain.Collection{}, fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}

	_, err := v.store.db.ExecContext(ctx,
		"INSERT INTO collections (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		name, time.Now().UnixNano())
	if err != nil {
		return domain.Collection{}, fmt.Errorf("creating collection: %w", err)
	}

	var createdAt int64
	err = v.store.db.QueryRowContext(ctx,
		"SELECT created_at FROM collections WHERE name = ?", name).Scan(&createdAt)
	if err != nil {
		return domain.Collection{}, fmt.Errorf("querying collection: %w", err)
	}

	return domain.Collection{Name: name, CreatedAt: time.Unix(0, createdAt)}, nil
}

// Add appends chunks to a collection atomically.
func (v *VectorIndex) Add(ctx context.Context, collection string, chunks []domain.DocumentChunk) error {
	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := collectionExists(ctx, tx, collection); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(chunks))
	for i := range chunks {
		id := chunks[i].ID
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s repeated in batch", domain.ErrDuplicateID, id)
		}
		seen[id] = struct{}{}

		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM collection_chunks WHERE collection = ? AND chunk_id = ?",
			collection, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking chunk %s: %w", id, err)
		}
		if exists > 0 {
			return fmt.Errorf("%w: %s already in %s", domain.ErrDuplicateID, id, collection)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO collection_chunks (collection, chunk_id, position, source, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		if _, err := stmt.ExecContext(ctx, collection, c.ID, c.Position, c.Source, c.Text,
			float32SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// Chunks returns every chunk of a collection in insertion order.
func (v *VectorIndex) Chunks(ctx context.Context, collection string) ([]domain.DocumentChunk, error) {
	if err := collectionExists(ctx, v.store.db, collection); err != nil {
		return nil, err
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT chunk_id, position, source, content, embedding
		FROM collection_chunks WHERE collection = ? ORDER BY seq
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.DocumentChunk
	for rows.Next() {
		var c domain.DocumentChunk
		var embedding []byte
		if err := rows.Scan(&c.ID, &c.Position, &c.Source, &c.Text, &embedding); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(embedding)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Count returns the number of chunks in a collection.
func (v *VectorIndex) Count(ctx context.Context, collection string) (int, error) {
	if err := collectionExists(ctx, v.store.db, collection); err != nil {
		return 0, err
	}

	var n int
	err := v.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collection_chunks WHERE collection = ?", collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close is a no-op; see Store.Close.
func (v *VectorIndex) Close() error {
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func collectionExists(ctx context.Context, q queryer, name string) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM collections WHERE name = ?", name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("querying collection: %w", err)
	}
	return nil
}

// ==================== Conversation Store ====================

// ConversationStore implements driven.ConversationStore.
type ConversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*ConversationStore)(nil)

const turnColumns = "id, user_id, session_id, question, answer, created_at"

// Append stores a turn and sets its ID. A zero CreatedAt is set to now.
func (c *ConversationStore) Append(ctx context.Context, turn *domain.ConversationTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	res, err := c.store.db.ExecContext(ctx, `
		INSERT INTO conversation_turns (user_id, session_id, question, answer, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, turn.UserID, turn.SessionID, turn.Question, turn.Answer, turn.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading turn id: %w", err)
	}
	turn.ID = id
	return nil
}

// RecentByUser returns up to limit turns of a user, newest first.
func (c *ConversationStore) RecentByUser(ctx context.Context, userID string, limit int) ([]domain.ConversationTurn, error) {
	if limit <= 0 {
		return nil, nil
	}
	return c.query(ctx, `SELECT `+turnColumns+` FROM conversation_turns
		WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
}

// BySession returns the turns of a session, oldest first.
func (c *ConversationStore) BySession(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	return c.query(ctx, `SELECT `+turnColumns+` FROM conversation_turns
		WHERE session_id = ? ORDER BY created_at, id`, sessionID)
}

// ByUser returns all turns of a user ordered by session, then time.
func (c *ConversationStore) ByUser(ctx context.Context, userID string) ([]domain.ConversationTurn, error) {
	return c.query(ctx, `SELECT `+turnColumns+` FROM conversation_turns
		WHERE user_id = ? ORDER BY session_id, created_at, id`, userID)
}

// SessionStarts returns the first turn of every session ordered by session ID.
func (c *ConversationStore) SessionStarts(ctx context.Context) ([]domain.ConversationTurn, error) {
	return c.query(ctx, `SELECT `+turnColumns+` FROM conversation_turns t
		WHERE t.id = (
			SELECT s.id FROM conversation_turns s
			WHERE s.session_id = t.session_id
			ORDER BY s.created_at, s.id LIMIT 1
		)
		ORDER BY t.session_id`)
}

// Get returns one turn. Returns domain.ErrNotFound if absent.
func (c *ConversationStore) Get(ctx context.Context, id int64) (*domain.ConversationTurn, error) {
	row := c.store.db.QueryRowContext(ctx,
		`SELECT `+turnColumns+` FROM conversation_turns WHERE id = ?`, id)

	turn, err := scanTurn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying turn: %w", err)
	}
	return &turn, nil
}

// Close is a no-op; see Store.Close.
func (c *ConversationStore) Close() error {
	return nil
}

func (c *ConversationStore) query(ctx context.Context, query string, args ...any) ([]domain.ConversationTurn, error) {
	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTurn(row scanner) (domain.ConversationTurn, error) {
	var t domain.ConversationTurn
	var createdAt int64
	if err := row.Scan(&t.ID, &t.UserID, &t.SessionID, &t.Question, &t.Answer, &createdAt); err != nil {
		return domain.ConversationTurn{}, err
	}
	t.CreatedAt = time.Unix(0, createdAt)
	return t, nil
}

// ==================== Helper Functions ====================

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
