package describe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/vhruby/smart-album/internal/config"
	"github.com/vhruby/smart-album/internal/imaging"
)

const geminiModel = "gemini-2.5-flash"

type GeminiProvider struct {
	client  *genai.Client
	prompts config.DescribePrompts
}

func NewGeminiProvider(ctx context.Context, apiKey string, prompts config.DescribePrompts) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:  client,
		prompts: prompts,
	}, nil
}

func (p *GeminiProvider) Name() string {
	return geminiModel
}

func (p *GeminiProvider) Describe(ctx context.Context, imageData []byte) (*Result, error) {
	const maxRetries = 5

	// Resize image to max 800px to save costs
	resizedData, err := imaging.Resize(imageData, 800)
	if err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: p.prompts.System + "\n\n" + p.prompts.User},
				{InlineData: &genai.Blob{Data: resizedData, MIMEType: "image/jpeg"}},
			},
		},
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	var lastError error
	var lastResponse string

	for range maxRetries {
		result, err := p.client.Models.GenerateContent(ctx, geminiModel, contents, cfg)
		if err != nil {
			return nil, fmt.Errorf("gemini API error: %w", err)
		}

		content := result.Text()
		if content == "" {
			return nil, errors.New("no response from Gemini")
		}
		lastResponse = content

		var res Result
		if err := json.Unmarshal([]byte(extractJSON(content)), &res); err != nil {
			lastError = err

			// Add model response and error feedback to contents for retry
			contents = append(contents,
				&genai.Content{
					Role:  "model",
					Parts: []*genai.Part{{Text: content}},
				},
				&genai.Content{
					Role:  "user",
					Parts: []*genai.Part{{Text: fmt.Sprintf("JSON parse error: %v. Please fix the JSON and try again. Remember to escape quotes inside strings with backslash.", err)}},
				},
			)
			continue
		}

		return normalizeResult(&res), nil
	}

	return nil, fmt.Errorf("failed to parse description JSON after %d attempts: %w (last response: %s)", maxRetries, lastError, lastResponse)
}
