package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// DefaultUserID identifies MCP callers that do not name a user.
const DefaultUserID = "mcp"

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	UserID    string `json:"user_id,omitempty" jsonschema:"caller identity used to look up conversation history (default mcp)"`
	SessionID string `json:"session_id,omitempty" jsonschema:"session to record the turn under; a new one is created when empty"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
	TurnID    int64  `json:"turn_id"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"text to find the most similar indexed passage for"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Chunk string `json:"chunk"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed documents and the caller's recent conversation",
	}, s.handleAsk)

	if s.ports.Retriever != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "retrieve",
			Description: "Return the indexed passage most similar to a query",
		}, s.handleRetrieve)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	turn, err := s.ports.Chat.Ask(ctx, domain.AskRequest{
		UserID:    userID,
		SessionID: sessionID,
		Message:   input.Question,
	})
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("ask failed: %w", err)
	}

	return nil, AskOutput{
		Answer:    turn.Answer,
		SessionID: turn.SessionID,
		TurnID:    turn.ID,
	}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if input.Query == "" {
		return nil, RetrieveOutput{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	chunk, err := s.ports.Retriever.Retrieve(ctx, input.Query)
	if err != nil {
		return nil, RetrieveOutput{}, fmt.Errorf("retrieve failed: %w", err)
	}
	return nil, RetrieveOutput{Chunk: chunk}, nil
}
