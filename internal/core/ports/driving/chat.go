package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ChatService answers one user turn.
type ChatService interface {
	// Ask builds the conversational and document context, generates an
	// answer and records the turn. Nothing is recorded on failure.
	Ask(ctx context.Context, req domain.AskRequest) (*domain.ConversationTurn, error)
}

// Retriever returns the stored chunk most similar to a query.
type Retriever interface {
	// Retrieve returns the text of the best matching chunk.
	// Returns domain.ErrEmptyCorpus when nothing is indexed.
	Retrieve(ctx context.Context, query string) (string, error)
}
