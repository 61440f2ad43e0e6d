package completion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clinicore/assistant/core/protocol"
)

const defaultFastTimeout = 60 * time.Second

// FastConfig holds settings for the OpenAI-compatible fast backend.
type FastConfig struct {
	BaseURL string        `json:"base_url"`
	APIKey  string        `json:"api_key"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// FastProvider talks to an OpenAI-compatible chat-completions endpoint.
// Streaming responses arrive as a line-delimited SSE body: "data: {json}"
// frames terminated by "data: [DONE]".
type FastProvider struct {
	cfg        FastConfig
	httpClient *http.Client
}

// NewFastProvider creates a FastProvider from config.
func NewFastProvider(cfg FastConfig) (*FastProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("fast provider: base_url is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("fast provider: model is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultFastTimeout
	}

	return &FastProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (p *FastProvider) Name() string { return "fast" }

type chatRequest struct {
	Model    string             `json:"model"`
	Messages []protocol.Message `json:"messages"`
	Stream   bool               `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p *FastProvider) Complete(ctx context.Context, history []protocol.Message, systemPrompt string) (string, error) {
	resp, err := p.post(ctx, chatRequest{
		Model:    p.cfg.Model,
		Messages: withSystem(history, systemPrompt),
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("fast provider: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("fast provider: no choices in response")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (p *FastProvider) CompleteStream(ctx context.Context, history []protocol.Message, systemPrompt string, onDelta DeltaFunc) (string, error) {
	resp, err := p.post(ctx, chatRequest{
		Model:    p.cfg.Model,
		Messages: withSystem(history, systemPrompt),
		Stream:   true,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var accumulated strings.Builder

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		// SSE format: "data: {...}"
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // skip malformed frames
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}

		accumulated.WriteString(delta)
		if onDelta != nil {
			onDelta(delta, accumulated.String())
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("fast provider: stream read: %w", err)
	}

	return accumulated.String(), nil
}

func (p *FastProvider) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("fast provider: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("fast provider: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fast provider: request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("fast provider: status %d: %s", resp.StatusCode, string(detail))
	}

	return resp, nil
}

func withSystem(history []protocol.Message, systemPrompt string) []protocol.Message {
	if systemPrompt == "" {
		return history
	}
	messages := make([]protocol.Message, 0, len(history)+1)
	messages = append(messages, protocol.NewMessage(protocol.RoleSystem, systemPrompt))
	messages = append(messages, history...)
	return messages
}
