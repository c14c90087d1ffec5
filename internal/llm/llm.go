// Package llm wraps the Gemini text-generation service behind a small
// client used by the analyzers.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"google.golang.org/genai"
)

// DefaultModel is the default Gemini model used for analysis.
const DefaultModel = "gemini-2.5-flash-preview-05-20"

// TextGenerator is the single operation the analyzers consume. The
// service may be slow and may return malformed or empty text; callers
// validate every response.
type TextGenerator interface {
	// Generate sends a prompt and returns the raw completion text.
	Generate(ctx context.Context, prompt string) (string, error)
	// ModelName returns the model identifier to record on results.
	ModelName() string
}

// Client implements TextGenerator over the Gemini API.
type Client struct {
	apiKey    string
	modelName string
	gClient   *genai.Client
}

// NewClient creates a new LLM client. The API key is resolved from the
// environment first, then viper configuration.
func NewClient(modelName string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_AI_API_KEY"); apiKey == "" {
			apiKey = viper.GetString("ai.gemini.api_key")
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY or ai.gemini.api_key in config")
	}

	if modelName == "" {
		modelName = viper.GetString("ai.gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		apiKey:    apiKey,
		modelName: modelName,
		gClient:   gClient,
	}, nil
}

// Generate sends the prompt to the configured model and returns the raw
// completion text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	return c.modelName
}
