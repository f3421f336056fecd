package llmx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type anthropicClient struct {
	apiKey string
	model  string
	http   *http.Client
}

type anthropicMessagesRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string                 `json:"role"`
	Content []anthropicTextContent `json:"content"`
}

type anthropicTextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicMessagesResponse struct {
	Content []anthropicTextContent `json:"content"`
}

func (c *anthropicClient) ExtractFields(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	body := anthropicMessagesRequest{
		Model:     c.model,
		MaxTokens: 1024,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: []anthropicTextContent{{Type: "text", Text: buildUserPrompt(req)}}},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return ExtractResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return ExtractResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ExtractResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ExtractResult{}, fmt.Errorf("llmx: anthropic messages request failed with status %d", resp.StatusCode)
	}

	var parsed anthropicMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ExtractResult{}, err
	}
	if len(parsed.Content) == 0 {
		return ExtractResult{}, errors.New("llmx: anthropic messages returned no content")
	}

	return finishExtraction(parsed.Content[0].Text, req.Strict)
}
