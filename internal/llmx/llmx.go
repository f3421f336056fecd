// Package llmx implements the LLM-backed structured-extraction client of
// spec §4.9/§4.13 step 9, grounded on ncecere-raito's internal/llm
// provider abstraction: one Client interface, three concrete
// OpenAI/Anthropic/Google implementations selected by config, and a
// tolerant JSON-object parser so a model that wraps its answer in prose
// still yields usable fields. Client is wrapped by Adapter to satisfy
// internal/peel's Extractor interface, with the heuristic auto-extractor
// (internal/heuristics) as the orchestrator's fallback when no LLM is
// configured or the call fails.
package llmx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"webpeel/internal/model"
)

// Provider identifies which LLM backend a request targets.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

// ExtractRequest is the provider-agnostic structured-extraction request.
type ExtractRequest struct {
	URL      string
	Markdown string
	Schema   map[string]any
	Prompt   string
	Model    string
	Strict   bool
}

// ExtractResult is the structured output of one extraction call.
type ExtractResult struct {
	Fields map[string]any
}

// Client is the abstraction the orchestrator and HTTP layer program
// against; each provider implements it independently.
type Client interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (ExtractResult, error)
}

// ProviderConfig carries one provider's credentials and default model.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string // OpenAI-compatible providers only; empty uses the public API.
}

// Config selects the default provider and carries each provider's
// settings, mirroring raito's config.LLM section.
type Config struct {
	DefaultProvider Provider
	Timeout         time.Duration
	OpenAI          ProviderConfig
	Anthropic       ProviderConfig
	Google          ProviderConfig
}

// NewClient builds the Client for cfg.DefaultProvider, or for
// providerOverride when non-empty. It returns an error if the selected
// provider is missing its API key or model.
func NewClient(cfg Config, providerOverride string) (Client, Provider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	provider := cfg.DefaultProvider
	if providerOverride != "" {
		provider = Provider(providerOverride)
	}

	httpClient := &http.Client{Timeout: timeout}

	switch provider {
	case ProviderOpenAI:
		pc := cfg.OpenAI
		if pc.APIKey == "" || pc.Model == "" {
			return nil, provider, errors.New("llmx: openai provider is not fully configured")
		}
		return &openAIClient{apiKey: pc.APIKey, baseURL: pc.BaseURL, model: pc.Model, http: httpClient}, provider, nil
	case ProviderAnthropic:
		pc := cfg.Anthropic
		if pc.APIKey == "" || pc.Model == "" {
			return nil, provider, errors.New("llmx: anthropic provider is not fully configured")
		}
		return &anthropicClient{apiKey: pc.APIKey, model: pc.Model, http: httpClient}, provider, nil
	case ProviderGoogle:
		pc := cfg.Google
		if pc.APIKey == "" || pc.Model == "" {
			return nil, provider, errors.New("llmx: google provider is not fully configured")
		}
		return &googleClient{apiKey: pc.APIKey, model: pc.Model, http: httpClient}, provider, nil
	default:
		return nil, provider, fmt.Errorf("llmx: unsupported provider %q", provider)
	}
}

// parseJSONFields extracts a JSON object from content, first trying the
// whole string and falling back to the first {...} span, since chat
// models sometimes wrap JSON in prose or code fences despite instruction.
func parseJSONFields(content string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err == nil {
		return fields, nil
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, errors.New("llmx: no JSON object found in model response")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func buildUserPrompt(req ExtractRequest) string {
	schemaJSON, _ := json.Marshal(req.Schema)
	prompt := fmt.Sprintf(
		"Given markdown content from URL %s and the following JSON schema, "+
			"extract a single JSON object matching that schema.\nSchema: %s\n\nMarkdown:\n%s",
		req.URL, string(schemaJSON), req.Markdown,
	)
	if req.Prompt != "" {
		prompt = req.Prompt + "\n\n" + prompt
	}
	return prompt
}

const systemPrompt = "You are a JSON-only extractor. Respond with a single JSON object and no extra text."

// Adapter wraps a provider Client to satisfy internal/peel's Extractor
// interface, translating model.ExtractOptions into an ExtractRequest.
type Adapter struct {
	client Client
}

func NewAdapter(client Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Extract(ctx context.Context, content string, opts model.ExtractOptions) (map[string]any, error) {
	if a == nil || a.client == nil {
		return nil, errors.New("llmx: no client configured")
	}
	result, err := a.client.ExtractFields(ctx, ExtractRequest{
		Markdown: content,
		Schema:   opts.Schema,
		Prompt:   opts.Prompt,
		Strict:   false,
	})
	if err != nil {
		return nil, err
	}
	return result.Fields, nil
}
