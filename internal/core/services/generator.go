package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Generator asks the language model to answer a question from context.
// Decoding is fixed: temperature 0 and a small token budget.
type Generator struct {
	llm          driven.LLMService
	systemPrompt string
	maxTokens    int
}

// NewGenerator creates a generator. Empty systemPrompt and non-positive
// maxTokens fall back to the defaults.
func NewGenerator(llm driven.LLMService, systemPrompt string, maxTokens int) *Generator {
	if systemPrompt == "" {
		systemPrompt = domain.DefaultSystemPrompt
	}
	if maxTokens <= 0 {
		maxTokens = domain.DefaultMaxTokens
	}
	return &Generator{
		llm:          llm,
		systemPrompt: systemPrompt,
		maxTokens:    maxTokens,
	}
}

// BuildPrompt renders the user message sent to the model.
func BuildPrompt(question, contextText string) string {
	return "Context: " + contextText + "\n\nQuestion: " + question + "\n\nAnswer:"
}

// Generate returns the model's trimmed answer.
func (g *Generator) Generate(ctx context.Context, question, contextText string) (string, error) {
	logger.Section("Generation")

	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: g.systemPrompt},
		{Role: driven.RoleUser, Content: BuildPrompt(question, contextText)},
	}
	logger.Debug("Model: %s, context length: %d", g.llm.ModelName(), len(contextText))

	answer, err := g.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   g.maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	return strings.TrimSpace(answer), nil
}
