package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseJSONResponsePlain(t *testing.T) {
	result := ParseJSONResponse(`{"key": "value", "num": 42}`)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
	if result["num"] != float64(42) {
		t.Errorf("expected num=42, got %v", result["num"])
	}
}

func TestParseJSONResponseWithCodeFence(t *testing.T) {
	text := "```json\n{\"key\": \"value\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseWithPlainFence(t *testing.T) {
	text := "```\n{\"key\": \"value\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseInvalid(t *testing.T) {
	result := ParseJSONResponse("not json at all")
	if result != nil {
		t.Error("expected nil for invalid JSON")
	}
}

func TestParseJSONResponseEmpty(t *testing.T) {
	result := ParseJSONResponse("")
	if result != nil {
		t.Error("expected nil for empty string")
	}
}

func TestParseJSONResponseWhitespace(t *testing.T) {
	result := ParseJSONResponse("  \n  {\"key\": \"value\"}  \n  ")
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestStripCodeFenceWithoutFence(t *testing.T) {
	if got := StripCodeFence("  plain  "); got != "plain" {
		t.Errorf("expected 'plain', got %q", got)
	}
}

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "llama3" {
			t.Errorf("expected model llama3, got %v", body["model"])
		}
		w.Write([]byte(`{"message":{"content":"{\"summary\":\"ok\"}"}}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider("llama3", srv.URL+"/")
	got, err := p.Generate(context.Background(), "hi", 50)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != `{"summary":"ok"}` {
		t.Errorf("unexpected content %q", got)
	}
}

func TestOllamaIsConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3:latest"}]}`))
	}))
	defer srv.Close()

	if !NewOllamaProvider("llama3:8b", srv.URL).IsConfigured() {
		t.Error("expected model to be found")
	}
	if NewOllamaProvider("mistral", srv.URL).IsConfigured() {
		t.Error("expected missing model to be reported")
	}
}

func TestOpenAIProviderNotConfigured(t *testing.T) {
	p := NewOpenAIProvider("", "", "")
	if p.IsConfigured() {
		t.Error("expected unconfigured provider")
	}
	if _, err := p.Generate(context.Background(), "hi", 10); err == nil {
		t.Error("expected error without API key")
	}
}

func TestOpenAIProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("gpt-4o-mini", "sk-test", srv.URL)
	got, err := p.Generate(context.Background(), "hi", 10)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected 'hello', got %q", got)
	}
}

func TestCreateProviderNone(t *testing.T) {
	if p := CreateProvider("none", "", "", "", "", "sk"); p != nil {
		t.Error("expected nil provider")
	}
	if p := CreateProvider("openai", "", "", "gpt-4o-mini", "", ""); p != nil {
		t.Error("expected nil provider without key")
	}
}

func TestGenerateSchemaIsStrictObject(t *testing.T) {
	type beat struct {
		Title string `json:"title"`
	}
	data, err := json.Marshal(GenerateSchema[beat]())
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	var schema map[string]any
	json.Unmarshal(data, &schema)
	if schema["type"] != "object" {
		t.Errorf("expected object schema, got %v", schema["type"])
	}
	if schema["additionalProperties"] != false {
		t.Errorf("expected additionalProperties=false, got %v", schema["additionalProperties"])
	}
}
