// Package postgres provides a PostgreSQL-backed conversation store for
// deployments where several docchat processes share one record store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/postgres/migrations"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

const turnColumns = "id, user_id, session_id, question, answer, created_at"

// ConversationStore implements driven.ConversationStore on a pgx pool.
type ConversationStore struct {
	pool *pgxpool.Pool
}

// NewConversationStore connects to dsn and applies pending migrations.
func NewConversationStore(ctx context.Context, dsn string) (*ConversationStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", domain.ErrInvalidConfiguration)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to postgres: %w", domain.ErrInvalidConfiguration, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &ConversationStore{pool: pool}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// migrate runs all pending migrations, each in its own transaction.
func (s *ConversationStore) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := s.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
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
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= currentVersion {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version)
			return err
		})
		if err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		logger.Debug("postgres: applied migration %s", name)
	}
	return nil
}

// Append stores a turn and sets its ID. A zero CreatedAt is set to now.
func (s *ConversationStore) Append(ctx context.Context, turn *domain.ConversationTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO conversation_turns (user_id, session_id, question, answer, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, turn.UserID, turn.SessionID, turn.Question, turn.Answer, turn.CreatedAt).Scan(&turn.ID)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

// RecentByUser returns up to limit turns of a user, newest first.
func (s *ConversationStore) RecentByUser(ctx context.Context, userID string, limit int) ([]domain.ConversationTurn, error) {
	if limit <= 0 {
		return nil, nil
	}
	return s.query(ctx, `SELECT `+turnColumns+` FROM conversation_turns
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
}

// BySession returns the turns of a session, oldest first.
func (s *ConversationStore) BySession(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	return s.query(ctx, `SELECT `+turnColumns+` FROM conversation_turns
		WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
}

// ByUser returns all turns of a user ordered by session, then time.
func (s *ConversationStore) ByUser(ctx context.Context, userID string) ([]domain.ConversationTurn, error) {
	return s.query(ctx, `SELECT `+turnColumns+` FROM conversation_turns
		WHERE user_id = $1 ORDER BY session_id, created_at, id`, userID)
}

// SessionStarts returns the first turn of every session ordered by session ID.
func (s *ConversationStore) SessionStarts(ctx context.Context) ([]domain.ConversationTurn, error) {
	return s.query(ctx, `SELECT DISTINCT ON (session_id) `+turnColumns+`
		FROM conversation_turns ORDER BY session_id, created_at, id`)
}

// Get returns one turn. Returns domain.ErrNotFound if absent.
func (s *ConversationStore) Get(ctx context.Context, id int64) (*domain.ConversationTurn, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+turnColumns+` FROM conversation_turns WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying turn: %w", err)
	}

	turn, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[domain.ConversationTurn])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning turn: %w", err)
	}
	return &turn, nil
}

// Close releases the underlying connection pool.
func (s *ConversationStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *ConversationStore) query(ctx context.Context, query string, args ...any) ([]domain.ConversationTurn, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}

	turns, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.ConversationTurn])
	if err != nil {
		return nil, fmt.Errorf("scanning turns: %w", err)
	}
	if len(turns) == 0 {
		return nil, nil
	}
	return turns, nil
}
