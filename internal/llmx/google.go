package llmx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type googleClient struct {
	apiKey string
	model  string
	http   *http.Client
}

type googleGenerateContentRequest struct {
	Contents []googleContent `json:"contents"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text,omitempty"`
}

type googleGenerateContentResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
}

func (c *googleClient) ExtractFields(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	body := googleGenerateContentRequest{
		Contents: []googleContent{{Parts: []googlePart{{Text: systemPrompt + "\n\n" + buildUserPrompt(req)}}}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return ExtractResult{}, err
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
		c.model, url.QueryEscape(c.apiKey),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return ExtractResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ExtractResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ExtractResult{}, fmt.Errorf("llmx: google generateContent failed with status %d", resp.StatusCode)
	}

	var parsed googleGenerateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ExtractResult{}, err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return ExtractResult{}, errors.New("llmx: google generateContent returned no candidates")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return finishExtraction(sb.String(), req.Strict)
}
