package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ConversationStore persists question/answer turns.
// Turns are append-only: there is no update or delete.
type ConversationStore interface {
	// Append stores a turn and sets its ID. A zero CreatedAt is set to now.
	Append(ctx context.Context, turn *domain.ConversationTurn) error

	// RecentByUser returns up to limit turns of a user, newest first.
	RecentByUser(ctx context.Context, userID string, limit int) ([]domain.ConversationTurn, error)

	// BySession returns the turns of a session, oldest first.
	BySession(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)

	// ByUser returns all turns of a user ordered by session, then time.
	ByUser(ctx context.Context, userID string) ([]domain.ConversationTurn, error)

	// SessionStarts returns the first turn of every session ordered by session ID.
	SessionStarts(ctx context.Context) ([]domain.ConversationTurn, error)

	// Get returns one turn. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id int64) (*domain.ConversationTurn, error)

	// Close releases resources.
	Close() error
}
