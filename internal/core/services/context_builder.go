package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// ContextBuilder formats a user's recent turns as conversational context.
type ContextBuilder struct {
	store    driven.ConversationStore
	location *time.Location
}

// NewContextBuilder creates a context builder. Timestamps are rendered in
// loc; nil means UTC.
func NewContextBuilder(store driven.ConversationStore, loc *time.Location) *ContextBuilder {
	if loc == nil {
		loc = time.UTC
	}
	return &ContextBuilder{
		store:    store,
		location: loc,
	}
}

// Build returns the user's limit most recent turns, newest first, as
// "Timestamp/Question/Answer" blocks separated by blank lines.
// A user with no turns yields "". A limit <= 0 uses DefaultHistoryLimit.
func (b *ContextBuilder) Build(ctx context.Context, userID string, limit int) (string, error) {
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}

	turns, err := b.store.RecentByUser(ctx, userID, limit)
	if err != nil {
		return "", fmt.Errorf("load recent turns: %w", err)
	}

	logger.Debug("Conversation context: %d turn(s) for user %s", len(turns), userID)
	return FormatTurns(turns, b.location), nil
}

// FormatTurns renders turns in the order given.
func FormatTurns(turns []domain.ConversationTurn, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	var sb strings.Builder
	for i := range turns {
		fmt.Fprintf(&sb, "Timestamp: %s\nQuestion: %s\nAnswer: %s\n\n",
			FormatTimestamp(turns[i].CreatedAt.In(loc)), turns[i].Question, turns[i].Answer)
	}
	return strings.TrimSpace(sb.String())
}

// FormatTimestamp renders t as "Sep 9, 2024, 2:30 p.m.". Minutes are left
// off when zero, and 12:00 is written as "noon" or "midnight".
func FormatTimestamp(t time.Time) string {
	return t.Format("Jan 2, 2006") + ", " + formatClock(t)
}

func formatClock(t time.Time) string {
	hour, minute := t.Hour(), t.Minute()
	if minute == 0 {
		switch hour {
		case 0:
			return "midnight"
		case 12:
			return "noon"
		}
	}

	suffix := "a.m."
	if hour >= 12 {
		suffix = "p.m."
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}

	if minute == 0 {
		return fmt.Sprintf("%d %s", hour12, suffix)
	}
	return fmt.Sprintf("%d:%02d %s", hour12, minute, suffix)
}
