package completion

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/clinicore/assistant/core/protocol"
)

// DeepConfig holds settings for the Gemini deep backend.
type DeepConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// DeepProvider answers through the Gemini SDK. Streaming uses the SDK's
// native response sequence rather than SSE framing; the adapter reduces both
// to the same DeltaFunc contract.
type DeepProvider struct {
	client *genai.Client
	model  string
}

// NewDeepProvider creates a DeepProvider from config.
func NewDeepProvider(ctx context.Context, cfg DeepConfig) (*DeepProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("deep provider: model is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("deep provider: create client: %w", err)
	}

	return &DeepProvider{client: client, model: cfg.Model}, nil
}

func (p *DeepProvider) Name() string { return "deep" }

func (p *DeepProvider) Complete(ctx context.Context, history []protocol.Message, systemPrompt string) (string, error) {
	contents, config := p.convert(history, systemPrompt)

	res, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("deep provider: generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("deep provider: empty response")
	}
	return text, nil
}

func (p *DeepProvider) CompleteStream(ctx context.Context, history []protocol.Message, systemPrompt string, onDelta DeltaFunc) (string, error) {
	contents, config := p.convert(history, systemPrompt)

	var accumulated strings.Builder
	for chunk, err := range p.client.Models.GenerateContentStream(ctx, p.model, contents, config) {
		if err != nil {
			return accumulated.String(), fmt.Errorf("deep provider: stream: %w", err)
		}

		delta := chunk.Text()
		if delta == "" {
			continue
		}

		accumulated.WriteString(delta)
		if onDelta != nil {
			onDelta(delta, accumulated.String())
		}
	}

	return accumulated.String(), nil
}

func (p *DeepProvider) convert(history []protocol.Message, systemPrompt string) ([]*genai.Content, *genai.GenerateContentConfig) {
	var contents []*genai.Content
	for _, msg := range history {
		role := genai.Role(genai.RoleUser)
		if msg.Role == protocol.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	temp := float32(0.7)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	return contents, config
}
