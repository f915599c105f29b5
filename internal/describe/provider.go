// Package describe generates searchable descriptions of photos using a
// vision-capable model.
package describe

import (
	"context"
	"fmt"
	"strings"

	"github.com/vhruby/smart-album/internal/config"
)

// Result contains the model's description of a photo.
type Result struct {
	// Description of what's in the photo, one or two sentences.
	Description string `json:"description"`
	// Keywords are short lowercase search terms.
	Keywords []string `json:"keywords"`
}

// Provider defines the interface for description backends.
type Provider interface {
	Name() string
	Describe(ctx context.Context, imageData []byte) (*Result, error)
}

// New creates the provider selected by the configuration. An empty provider
// name disables description and returns (nil, nil).
func New(ctx context.Context, cfg *config.DescribeConfig, prompts config.DescribePrompts) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, nil
	case "openai":
		if cfg.OpenAIToken == "" {
			return nil, fmt.Errorf("describe provider %q requires OPENAI_TOKEN", cfg.Provider)
		}
		return NewOpenAIProvider(cfg.OpenAIToken, prompts), nil
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("describe provider %q requires GEMINI_API_KEY", cfg.Provider)
		}
		return NewGeminiProvider(ctx, cfg.GeminiKey, prompts)
	case "ollama":
		return NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, prompts), nil
	default:
		return nil, fmt.Errorf("unknown describe provider: %q", cfg.Provider)
	}
}

// extractJSON attempts to extract a JSON object from a response that may
// contain extra text.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return content
	}

	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}

	return content[start:]
}

func normalizeResult(res *Result) *Result {
	res.Description = strings.TrimSpace(res.Description)
	keywords := make([]string, 0, len(res.Keywords))
	for _, kw := range res.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	res.Keywords = keywords
	return res
}
