package llmx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"webpeel/internal/model"
)

func TestNewClientRejectsUnconfiguredProvider(t *testing.T) {
	_, _, err := NewClient(Config{DefaultProvider: ProviderOpenAI}, "")
	if err == nil {
		t.Fatalf("expected error for missing openai credentials")
	}
}

func TestNewClientRejectsUnknownProvider(t *testing.T) {
	_, _, err := NewClient(Config{DefaultProvider: Provider("bogus")}, "")
	if err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestOpenAIExtractFieldsParsesJSONContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openAIChatResponse{
			Choices: []struct {
				Message openAIChatMessage `json:"message"`
			}{{Message: openAIChatMessage{Role: "assistant", Content: `{"price": "$19.99", "inStock": true}`}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, provider, err := NewClient(Config{
		DefaultProvider: ProviderOpenAI,
		OpenAI:          ProviderConfig{APIKey: "test-key", Model: "gpt-test", BaseURL: server.URL},
	}, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if provider != ProviderOpenAI {
		t.Fatalf("expected openai provider selected, got %v", provider)
	}

	result, err := client.ExtractFields(context.Background(), ExtractRequest{
		URL:      "https://example.com/product",
		Markdown: "Example Widget - $19.99 - In Stock",
		Schema:   map[string]any{"price": "string", "inStock": "boolean"},
	})
	if err != nil {
		t.Fatalf("ExtractFields: %v", err)
	}
	if result.Fields["price"] != "$19.99" {
		t.Fatalf("expected price field extracted, got %+v", result.Fields)
	}
}

func TestOpenAIExtractFieldsFallsBackOnUnparsableContentWhenNotStrict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openAIChatResponse{
			Choices: []struct {
				Message openAIChatMessage `json:"message"`
			}{{Message: openAIChatMessage{Role: "assistant", Content: "I could not find structured data."}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, _, err := NewClient(Config{
		DefaultProvider: ProviderOpenAI,
		OpenAI:          ProviderConfig{APIKey: "test-key", Model: "gpt-test", BaseURL: server.URL},
	}, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	result, err := client.ExtractFields(context.Background(), ExtractRequest{Markdown: "no structure here"})
	if err != nil {
		t.Fatalf("ExtractFields: %v", err)
	}
	if _, ok := result.Fields["_raw"]; !ok {
		t.Fatalf("expected _raw fallback field, got %+v", result.Fields)
	}
}

func TestOpenAIExtractFieldsStrictErrorsOnUnparsableContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openAIChatResponse{
			Choices: []struct {
				Message openAIChatMessage `json:"message"`
			}{{Message: openAIChatMessage{Role: "assistant", Content: "no json here"}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, _, err := NewClient(Config{
		DefaultProvider: ProviderOpenAI,
		OpenAI:          ProviderConfig{APIKey: "test-key", Model: "gpt-test", BaseURL: server.URL},
	}, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.ExtractFields(context.Background(), ExtractRequest{Markdown: "x", Strict: true})
	if err == nil {
		t.Fatalf("expected strict mode to error on unparsable content")
	}
}

func TestParseJSONFieldsExtractsEmbeddedObject(t *testing.T) {
	fields, err := parseJSONFields("Sure, here you go:\n```json\n{\"a\": 1}\n```\nHope that helps.")
	if err != nil {
		t.Fatalf("parseJSONFields: %v", err)
	}
	if fields["a"] != float64(1) {
		t.Fatalf("expected a=1, got %+v", fields)
	}
}

func TestAdapterExtractTranslatesOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openAIChatResponse{
			Choices: []struct {
				Message openAIChatMessage `json:"message"`
			}{{Message: openAIChatMessage{Role: "assistant", Content: `{"title": "ok"}`}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, _, err := NewClient(Config{
		DefaultProvider: ProviderOpenAI,
		OpenAI:          ProviderConfig{APIKey: "test-key", Model: "gpt-test", BaseURL: server.URL},
	}, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	adapter := NewAdapter(client)
	fields, err := adapter.Extract(context.Background(), "content", model.ExtractOptions{Schema: map[string]any{"title": "string"}})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if fields["title"] != "ok" {
		t.Fatalf("expected title field, got %+v", fields)
	}
}

func TestAdapterExtractErrorsWithNilClient(t *testing.T) {
	adapter := NewAdapter(nil)
	if _, err := adapter.Extract(context.Background(), "x", model.ExtractOptions{}); err == nil {
		t.Fatalf("expected error with nil client")
	}
}
