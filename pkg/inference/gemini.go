package inference

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"

	"cutboard/pkg/cut"
	"cutboard/pkg/retry"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// NewGeminiClient creates a Gemini API client. baseURL is only set by tests.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		config.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

type GeminiInferencer struct {
	client *genai.Client
	model  string

	Retry retry.Policy
}

func NewGeminiInferencer(client *genai.Client, model string) *GeminiInferencer {
	return &GeminiInferencer{
		client: client,
		model:  cmp.Or(model, DefaultGeminiModel),
		Retry:  retry.Text(IsRateLimited),
	}
}

func (g *GeminiInferencer) SetModel(model string) {
	g.model = cmp.Or(model, DefaultGeminiModel)
}

// Infer sends prompt to the text model and returns the generated text.
func (g *GeminiInferencer) Infer(ctx context.Context, prompt string) (string, error) {
	return retry.Do(ctx, g.Retry, func(ctx context.Context) (string, error) {
		result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}
		text := strings.TrimSpace(result.Text())
		if text == "" {
			return "", ErrEmptyResponse
		}
		return text, nil
	})
}

func (g *GeminiInferencer) Verify(ctx context.Context) error {
	_, err := g.Infer(ctx, verifyPrompt)
	return err
}

// GeminiImager renders images with Gemini's native image models.
type GeminiImager struct {
	client *genai.Client

	Retry retry.Policy
}

func NewGeminiImager(client *genai.Client) *GeminiImager {
	return &GeminiImager{client: client, Retry: retry.Image(IsRateLimited)}
}

// Generate asks for an image in the given aspect ratio and returns the first
// inline image part of the response.
func (g *GeminiImager) Generate(ctx context.Context, prompt string, model ImageModel, aspect AspectRatio) (*cut.Image, error) {
	model = cmp.Or(model, DefaultImageModel)
	aspect = cmp.Or(aspect, Landscape)
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: string(aspect)},
	}

	return retry.Do(ctx, g.Retry, func(ctx context.Context) (*cut.Image, error) {
		result, err := g.client.Models.GenerateContent(ctx, string(model), genai.Text(prompt), config)
		if err != nil {
			return nil, fmt.Errorf("failed to generate image: %w", err)
		}
		for _, candidate := range result.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
					continue
				}
				log.Debug("image generated", "model", model, "aspect", aspect, "bytes", len(part.InlineData.Data))
				return &cut.Image{
					Data:     part.InlineData.Data,
					MIMEType: cmp.Or(part.InlineData.MIMEType, "image/png"),
				}, nil
			}
		}
		return nil, ErrNoImage
	})
}
