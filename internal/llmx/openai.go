package llmx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type openAIClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIChatMessage   `json:"messages"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) ExtractFields(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	body := openAIChatRequest{
		Model: c.model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		Temperature:    0,
		ResponseFormat: &openAIResponseFormat{Type: "json_object"},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return ExtractResult{}, err
	}

	endpoint := c.baseURL
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}
	endpoint += "/chat/completions"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return ExtractResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ExtractResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ExtractResult{}, fmt.Errorf("llmx: openai chat completion failed with status %d", resp.StatusCode)
	}

	var parsed openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ExtractResult{}, err
	}
	if len(parsed.Choices) == 0 {
		return ExtractResult{}, errors.New("llmx: openai chat completion returned no choices")
	}

	return finishExtraction(parsed.Choices[0].Message.Content, req.Strict)
}

func finishExtraction(content string, strict bool) (ExtractResult, error) {
	fields, err := parseJSONFields(content)
	if err != nil {
		if strict {
			return ExtractResult{}, fmt.Errorf("llmx: failed to parse JSON from model response: %w", err)
		}
		fields = map[string]any{"_raw": content}
	}
	return ExtractResult{Fields: fields}, nil
}
