// Package chat proxies conversational requests to an OpenAI-compatible
// provider. The endpoint is deliberately forgiving: any provider failure
// degrades to a canned reply instead of an error so the UI always has
// something to show.
package chat

import (
	"context"
	"strings"

	"github.com/creaza/ai-service/internal/config"
	"github.com/creaza/ai-service/internal/types"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// Fallback is returned whenever the provider cannot be reached or
	// produces an unusable response.
	Fallback = "I'm having trouble responding right now. Please try again in a moment."

	maxTokens   = 500
	temperature = 0.7

	systemPrompt = "You are a friendly creative assistant inside an image " +
		"editing app. Help users with editing ideas, prompt suggestions and " +
		"general questions. Keep answers short and practical."
)

// allowedModels maps the aliases clients may ask for onto provider model ids.
// Unknown aliases fall back to the default model.
var allowedModels = map[string]string{
	"deephermes": "nousresearch/deephermes-3-llama-3-8b-preview:free",
	"llama":      "meta-llama/llama-3.3-70b-instruct:free",
	"mistral":    "mistralai/mistral-7b-instruct:free",
}

const defaultModel = "nousresearch/deephermes-3-llama-3-8b-preview:free"

type Service struct {
	client *openai.Client
	logger *zap.Logger
}

func NewService(cfg config.OpenRouterConfig, logger *zap.Logger) *Service {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseUrl != "" {
		clientConfig.BaseURL = cfg.BaseUrl
	}
	return &Service{
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger.Named("chat"),
	}
}

// Reply answers a chat message, replaying any prior turns for context. It
// never returns an error for provider trouble, only for an empty message.
// The second return value is the provider model that was used.
func (s *Service) Reply(ctx context.Context, req types.ChatRequest) (string, string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", "", types.NewError(types.ErrInvalidInput, "message must not be empty")
	}

	model := resolveModel(req.Model)
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	for _, turn := range req.History {
		if turn.User != "" {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: turn.User,
			})
		}
		if turn.Assistant != "" {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: turn.Assistant,
			})
		}
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Message,
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		s.logger.Warn("chat completion failed", zap.String("model", model), zap.Error(err))
		return Fallback, model, nil
	}
	if len(resp.Choices) == 0 {
		s.logger.Warn("chat completion returned no choices", zap.String("model", model))
		return Fallback, model, nil
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return Fallback, model, nil
	}
	return reply, model, nil
}

func resolveModel(alias string) string {
	if model, ok := allowedModels[strings.ToLower(strings.TrimSpace(alias))]; ok {
		return model
	}
	return defaultModel
}
