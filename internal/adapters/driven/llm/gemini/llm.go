// Package gemini provides an LLM service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/custodia-labs/docchat/internal/adapters/driven/ai/apierr"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const providerName = "gemini"

// Gemini names the two conversation roles "user" and "model".
const (
	roleUser  = "user"
	roleModel = "model"
)

// Default configuration values.
const (
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Google AI Studio API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the model to use (default: gemini-1.5-flash).
	Model string

	// Timeout bounds a single request (default: 120s).
	Timeout time.Duration
}

// LLMService provides chat completions using the Gemini API.
type LLMService struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required: %w", domain.ErrInvalidConfiguration)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}

	return &LLMService{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// Conversation is a message list split the way a Gemini chat session wants it.
type Conversation struct {
	System  *genai.Content
	History []*genai.Content
	Prompt  []genai.Part
}

// SplitMessages moves system messages into the system instruction and the
// final message into the prompt. Everything in between becomes history.
func SplitMessages(messages []driven.ChatMessage) (Conversation, error) {
	var (
		conv   Conversation
		system []string
		turns  []driven.ChatMessage
	)
	for _, msg := range messages {
		if msg.Role == driven.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		turns = append(turns, msg)
	}
	if len(turns) == 0 {
		return conv, fmt.Errorf("gemini: no user message: %w", domain.ErrInvalidInput)
	}

	if len(system) > 0 {
		conv.System = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}
	for _, msg := range turns[:len(turns)-1] {
		role := roleUser
		if msg.Role == driven.RoleAssistant {
			role = roleModel
		}
		conv.History = append(conv.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	conv.Prompt = []genai.Part{genai.Text(turns[len(turns)-1].Content)}
	return conv, nil
}

// Chat sends the messages and returns the text parts of the first candidate.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	conv, err := SplitMessages(messages)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	model := s.client.GenerativeModel(s.model)
	model.SystemInstruction = conv.System
	model.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	session := model.StartChat()
	session.History = conv.History

	started := time.Now()
	resp, err := session.SendMessage(ctx, conv.Prompt...)
	if err != nil {
		return "", apierr.FromGemini(providerName, err)
	}

	answer := ResponseText(resp)
	if answer == "" {
		return "", fmt.Errorf("gemini: no text content returned: %w", domain.ErrTransient)
	}

	logger.Debug("gemini: %s answered in %s", s.model, time.Since(started))
	return answer, nil
}

// ResponseText concatenates the text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by fetching the first page of models.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx).Next(); err != nil && !errors.Is(err, iterator.Done) {
		return apierr.FromGemini(providerName, err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *LLMService) Close() error {
	return s.client.Close()
}
