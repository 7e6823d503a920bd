package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/quizmode/internal/llm/prompts"
	"github.com/pavelanni/quizmode/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	variant prompts.PromptVariant
}

// New creates a new LLM client. The prompt templates are parsed here so a
// broken template fails at startup.
func New(baseURL, apiKey, modelName, variant string) (*Client, error) {
	if err := prompts.Load(); err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	if !prompts.IsValidVariant(variant) {
		return nil, fmt.Errorf("invalid prompt variant %q", variant)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		variant: prompts.PromptVariant(variant),
	}, nil
}

// Ping checks that the endpoint answers and knows the model.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.GetModel(ctx, c.model)
	if err != nil {
		return fmt.Errorf("get model %q: %w", c.model, err)
	}
	return nil
}

// Explain asks the LLM why the question's answer is correct. selected is the
// label the student chose, or "".
func (c *Client) Explain(ctx context.Context, q model.QuestionRecord, selected string) (string, error) {
	prompt, err := prompts.BuildExplainPrompt(c.variant, q, selected)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: "Explain the answer."},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("LLM explanation", "question_id", q.ID, "tokens", resp.Usage.TotalTokens)
	if text == "" {
		return "", fmt.Errorf("LLM returned an empty explanation")
	}
	return text, nil
}
