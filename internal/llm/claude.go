package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// claudeModels maps friendly names to Anthropic model IDs.
var claudeModels = map[string]string{
	"claude-sonnet": "claude-sonnet-4-20250514",
	"claude-haiku":  "claude-haiku-4-5-20251001",
}

const claudeDefaultMaxTokens = 1024

// ClaudeProvider implements the Provider interface for Anthropic's Claude
type ClaudeProvider struct {
	client *anthropic.Client
	model  string
}

// ClaudeConfig holds configuration for the Claude provider
type ClaudeConfig struct {
	APIKey     string
	BaseURL    string // default: https://api.anthropic.com
	Model      string // default: claude-sonnet-4-20250514
	MaxRetries int    // SDK level retries; the resilient wrapper retries too
}

// NewClaudeProvider creates a new Claude provider
func NewClaudeProvider(cfg ClaudeConfig) (*ClaudeProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithHTTPClient(newLLMHTTPClient()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropic.NewClient(opts...)
	return &ClaudeProvider{
		client: &client,
		model:  resolveModel(cfg.Model, claudeModels),
	}, nil
}

func (p *ClaudeProvider) Name() string {
	return "claude"
}

func (p *ClaudeProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	msg, err := p.client.Messages.New(ctx, p.buildParams(req))
	if err != nil {
		return nil, mapClaudeError(err)
	}
	return parseClaudeMessage(msg)
}

func (p *ClaudeProvider) buildParams(req *Request) anthropic.MessageNewParams {
	model := p.model
	if req.Model != "" {
		model = resolveModel(req.Model, claudeModels)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = claudeDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
	}

	// Claude takes the system prompt separately
	system := req.System
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
			})
		default:
			params.Messages = append(params.Messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
			})
		}
	}

	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	return params
}

func parseClaudeMessage(msg *anthropic.Message) (*Response, error) {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("claude: %w", ErrEmptyResponse)
	}

	return &Response{
		Content:      sb.String(),
		Model:        string(msg.Model),
		FinishReason: string(msg.StopReason),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

func mapClaudeError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &APIError{Provider: "claude", StatusCode: apiErr.StatusCode, Err: err}
	}
	return fmt.Errorf("claude: %w", err)
}
