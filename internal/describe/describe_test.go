package describe

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vhruby/smart-album/internal/config"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean json", `{"description": "test"}`, `{"description": "test"}`},
		{"json with prefix", `Here is the result: {"description": "test"}`, `{"description": "test"}`},
		{"json with suffix", `{"description": "test"} Hope this helps!`, `{"description": "test"}`},
		{"nested objects", `{"a": {"b": 1}}`, `{"a": {"b": 1}}`},
		{"no json", `no json here`, `no json here`},
		{"unclosed json", `{"a": 1`, `{"a": 1`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSON(tc.input); got != tc.expected {
				t.Errorf("extractJSON(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeResult(t *testing.T) {
	res := normalizeResult(&Result{
		Description: "  A dog on a beach.  ",
		Keywords:    []string{" Dog ", "BEACH", "", "sea"},
	})

	if res.Description != "A dog on a beach." {
		t.Errorf("Description = %q", res.Description)
	}
	want := []string{"dog", "beach", "sea"}
	if len(res.Keywords) != len(want) {
		t.Fatalf("Keywords = %v; want %v", res.Keywords, want)
	}
	for i, kw := range want {
		if res.Keywords[i] != kw {
			t.Errorf("Keywords[%d] = %q; want %q", i, res.Keywords[i], kw)
		}
	}
}

func TestNewProviderSelection(t *testing.T) {
	prompts := config.DescribePrompts{System: "sys", User: "user"}

	t.Run("disabled", func(t *testing.T) {
		p, err := New(context.Background(), &config.DescribeConfig{}, prompts)
		if err != nil || p != nil {
			t.Errorf("empty provider should disable describing, got %v, %v", p, err)
		}
	})

	t.Run("openai without token", func(t *testing.T) {
		_, err := New(context.Background(), &config.DescribeConfig{Provider: "openai"}, prompts)
		if err == nil {
			t.Error("expected error for openai without token")
		}
	})

	t.Run("ollama", func(t *testing.T) {
		p, err := New(context.Background(), &config.DescribeConfig{Provider: "ollama"}, prompts)
		if err != nil {
			t.Fatalf("New(ollama) failed: %v", err)
		}
		if p.Name() != defaultOllamaModel {
			t.Errorf("Name() = %q", p.Name())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := New(context.Background(), &config.DescribeConfig{Provider: "bard"}, prompts)
		if err == nil {
			t.Error("expected error for unknown provider")
		}
	})
}

func testImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestOllamaDescribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if len(req.Messages) != 2 || len(req.Messages[1].Images) != 1 {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"model": "test",
			"message": map[string]string{
				"role":    "assistant",
				"content": `{"description": "A dog.", "keywords": ["dog"]}`,
			},
			"done": true,
		})
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "test-model", config.DescribePrompts{System: "sys", User: "user"})
	res, err := p.Describe(context.Background(), testImage(t))
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if res.Description != "A dog." || len(res.Keywords) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestOllamaDescribeRetriesOnBadJSON(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := `not json at all`
		if calls >= 2 {
			content = `{"description": "Second try.", "keywords": []}`
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": content},
			"done":    true,
		})
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "test-model", config.DescribePrompts{System: "sys", User: "user"})
	res, err := p.Describe(context.Background(), testImage(t))
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if res.Description != "Second try." {
		t.Errorf("Description = %q", res.Description)
	}
}
