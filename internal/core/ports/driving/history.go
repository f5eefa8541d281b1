package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// HistoryService exposes read-only views over recorded turns.
type HistoryService interface {
	// Session returns the turns of one session in creation order.
	Session(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)

	// UserSessions returns a user's turns grouped by session.
	UserSessions(ctx context.Context, userID string) ([]domain.SessionHistory, error)

	// SessionStarts returns the first turn of every session.
	SessionStarts(ctx context.Context) ([]domain.ConversationTurn, error)

	// Turn returns a single turn by ID.
	Turn(ctx context.Context, id int64) (*domain.ConversationTurn, error)
}
