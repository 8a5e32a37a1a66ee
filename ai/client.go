package ai

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
)

// defaultMaxOutputTokens bounds a single synthesis call's response size.
// CIR function bodies are small (compiler-sized functions, not whole
// programs), so this is generous without inviting runaway cost.
const defaultMaxOutputTokens = 4096

// Client is the seam between the AI Intent Engine and whatever LLM actually
// answers it (spec §4.4: "the engine submits a fixed system prompt plus the
// context JSON to the external LLM client"). Keeping this as a one-method
// interface is what lets §8's two-strike retry and end-to-end scenarios
// substitute a deterministic fake instead of a live network call.
type Client interface {
	// Complete sends systemPrompt and contextJSON (the sole user message, per
	// spec §4.4) and returns the model's raw text response, expected to be a
	// single CIR JSON document.
	Complete(ctx context.Context, systemPrompt string, contextJSON []byte) (string, error)
}

// AnthropicClient is the production Client, backed by
// github.com/anthropics/anthropic-sdk-go exactly as
// floegence-redeven-agent/internal/ai/native_runtime.go wires its own
// anthropicProvider: an API key and optional base URL build a anthropic.Client,
// and a single non-streaming Messages.New call does the work — the engine
// needs one complete response, not a token stream.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient builds a Client against the real Anthropic API (or an
// API-compatible base URL override, e.g. for local testing).
func NewAnthropicClient(apiKey, baseURL, model string) (*AnthropicClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("ai: missing provider api key")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("ai: missing model id")
	}
	opts := []aoption.RequestOption{aoption.WithAPIKey(apiKey)}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, aoption.WithBaseURL(baseURL))
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...), model: model}, nil
}

func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt string, contextJSON []byte) (string, error) {
	if c == nil {
		return "", errors.New("ai: nil client")
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: defaultMaxOutputTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(string(contextJSON))),
		},
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", errors.New("ai: empty response from provider")
	}
	return out, nil
}
