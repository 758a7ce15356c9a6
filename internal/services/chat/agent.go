// Package chat implements the natural-language assistant. The agent turns a
// user's message into todo operations through hosted-model tool calls and
// reports the outcome conversationally.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/services/todo/app"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
)

// DefaultModel is the hosted model used when none is configured.
const DefaultModel = openai.ChatModelGPT4oMini

// maxToolRounds bounds the tool-call loop so a misbehaving model cannot spin.
const maxToolRounds = 5

// completionClient is the slice of the OpenAI client the agent uses,
// injectable for tests.
type completionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Agent answers user messages by driving todo operations through tool calls.
type Agent struct {
	service *app.Service
	client  completionClient
	model   string
	now     func() time.Time
}

// Config defines the inputs for the chat agent.
type Config struct {
	APIKey string
	Model  string
}

// New creates a chat agent backed by the OpenAI API. Returns an error when no
// API key is configured; callers treat a nil agent as chat-unavailable.
func New(config Config, service *app.Service) (*Agent, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("chat API key is required")
	}
	if service == nil {
		return nil, fmt.Errorf("todo service is required")
	}
	client := openai.NewClient(option.WithAPIKey(config.APIKey))
	return newAgent(service, &client.Chat.Completions, config.Model, nil), nil
}

func newAgent(service *app.Service, client completionClient, model string, now func() time.Time) *Agent {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if now == nil {
		now = time.Now
	}
	return &Agent{service: service, client: client, model: model, now: now}
}

// Reply processes one user message, executing any tool calls the model
// requests, and returns the model's final answer.
func (a *Agent) Reply(ctx context.Context, userID, message string) (string, error) {
	if a == nil || a.client == nil {
		return "", apperrors.New(apperrors.CodeChatUnavailable, "chat assistant is not configured")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperrors.New(apperrors.CodeChatInputRequired, "message is required")
	}

	params := openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(a.systemPrompt()),
			openai.UserMessage(message),
		},
		Tools: toolDefinitions(),
	}

	for round := 0; round < maxToolRounds; round++ {
		completion, err := a.client.New(ctx, params)
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeChatUnavailable, "chat completion failed", err)
		}
		if len(completion.Choices) == 0 {
			return "", apperrors.New(apperrors.CodeChatUnavailable, "chat completion returned no choices")
		}

		reply := completion.Choices[0].Message
		if len(reply.ToolCalls) == 0 {
			return strings.TrimSpace(reply.Content), nil
		}

		params.Messages = append(params.Messages, reply.ToParam())
		for _, call := range reply.ToolCalls {
			result := a.dispatch(ctx, userID, call.Function.Name, call.Function.Arguments)
			params.Messages = append(params.Messages, openai.ToolMessage(result, call.ID))
		}
	}
	return "", apperrors.New(apperrors.CodeChatUnavailable, "chat agent exceeded the tool-call budget")
}

func (a *Agent) systemPrompt() string {
	return fmt.Sprintf(
		"You are Tidemark's task assistant. Manage the user's todos with the "+
			"provided tools; never invent task ids. Dates use the YYYY-MM-DD "+
			"format. Today is %s. Keep answers to one or two sentences.",
		domain.FormatDate(a.now()),
	)
}
