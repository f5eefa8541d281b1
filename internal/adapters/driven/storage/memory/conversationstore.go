package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of driven.ConversationStore.
// Turns are lost when the process exits.
type ConversationStore struct {
	mu     sync.RWMutex
	turns  []domain.ConversationTurn
	nextID int64
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{nextID: 1}
}

// Append stores a turn and sets its ID. A zero CreatedAt is set to now.
func (s *ConversationStore) Append(_ context.Context, turn *domain.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	turn.ID = s.nextID
	s.nextID++
	s.turns = append(s.turns, *turn)
	return nil
}

// RecentByUser returns up to limit turns of a user, newest first.
func (s *ConversationStore) RecentByUser(_ context.Context, userID string, limit int) ([]domain.ConversationTurn, error) {
	if limit <= 0 {
		return nil, nil
	}
	turns := s.filter(func(t *domain.ConversationTurn) bool { return t.UserID == userID })
	sort.SliceStable(turns, func(i, j int) bool { return newer(turns[i], turns[j]) })
	if len(turns) > limit {
		turns = turns[:limit]
	}
	return turns, nil
}

// BySession returns the turns of a session, oldest first.
func (s *ConversationStore) BySession(_ context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	turns := s.filter(func(t *domain.ConversationTurn) bool { return t.SessionID == sessionID })
	sort.SliceStable(turns, func(i, j int) bool { return newer(turns[j], turns[i]) })
	return turns, nil
}

// ByUser returns all turns of a user ordered by session, then time.
func (s *ConversationStore) ByUser(_ context.Context, userID string) ([]domain.ConversationTurn, error) {
	turns := s.filter(func(t *domain.ConversationTurn) bool { return t.UserID == userID })
	sortBySession(turns)
	return turns, nil
}

// SessionStarts returns the first turn of every session ordered by session ID.
func (s *ConversationStore) SessionStarts(_ context.Context) ([]domain.ConversationTurn, error) {
	all := s.filter(func(*domain.ConversationTurn) bool { return true })
	sortBySession(all)

	var starts []domain.ConversationTurn
	for i := range all {
		if i == 0 || all[i].SessionID != all[i-1].SessionID {
			starts = append(starts, all[i])
		}
	}
	return starts, nil
}

// Get returns one turn.
func (s *ConversationStore) Get(_ context.Context, id int64) (*domain.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.turns {
		if s.turns[i].ID == id {
			turn := s.turns[i]
			return &turn, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Close is a no-op.
func (s *ConversationStore) Close() error {
	return nil
}

func (s *ConversationStore) filter(keep func(*domain.ConversationTurn) bool) []domain.ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ConversationTurn
	for i := range s.turns {
		if keep(&s.turns[i]) {
			out = append(out, s.turns[i])
		}
	}
	return out
}

// newer orders by creation time, falling back to ID for equal timestamps.
func newer(a, b domain.ConversationTurn) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func sortBySession(turns []domain.ConversationTurn) {
	sort.SliceStable(turns, func(i, j int) bool {
		if turns[i].SessionID != turns[j].SessionID {
			return turns[i].SessionID < turns[j].SessionID
		}
		return newer(turns[j], turns[i])
	})
}
