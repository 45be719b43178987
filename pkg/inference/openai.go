package inference

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"cutboard/pkg/retry"
)

// Provider describes an OpenAI-compatible chat completion endpoint.
type Provider struct {
	Name    string
	BaseURL string
	Model   string
	KeyEnv  string
}

var (
	OpenAI   = Provider{Name: "openai", Model: "gpt-4o-mini", KeyEnv: "OPENAI_API_KEY"}
	Grok     = Provider{Name: "grok", BaseURL: "https://api.x.ai/v1", Model: "grok-4-fast-reasoning", KeyEnv: "GROK_API_KEY"}
	Kimi     = Provider{Name: "kimi", BaseURL: "https://api.kimi.com/coding/v1", Model: "kimi-for-coding", KeyEnv: "KIMI_API_KEY"}
	Moonshot = Provider{Name: "moonshot", BaseURL: "https://api.moonshot.ai/v1", Model: "kimi-k2-5", KeyEnv: "MOONSHOT_API_KEY"}
)

// LookupProvider finds a preset by name.
func LookupProvider(name string) (Provider, bool) {
	for _, p := range []Provider{OpenAI, Grok, Kimi, Moonshot} {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Provider{}, false
}

// OpenAIInferencer implements Inferencer using OpenAI's official Go SDK
// against any compatible endpoint.
type OpenAIInferencer struct {
	client   *openai.Client
	provider Provider
	apiKey   string
	model    string

	Temperature float64
	MaxTokens   int64
	Retry       retry.Policy
}

// NewOpenAIInferencer creates an inferencer for the provider preset. An empty
// model uses the preset's default.
func NewOpenAIInferencer(p Provider, apiKey, model string) *OpenAIInferencer {
	o := &OpenAIInferencer{
		provider:    p,
		apiKey:      apiKey,
		model:       cmp.Or(model, p.Model),
		Temperature: 0.7,
		MaxTokens:   4096 * 4,
		Retry:       retry.Text(IsRateLimited),
	}
	o.ChangeBaseURL(p.BaseURL)
	return o
}

// ChangeBaseURL rebuilds the client for another endpoint. The SDK's own
// retries are disabled; Retry handles rate limits.
func (o *OpenAIInferencer) ChangeBaseURL(baseURL string) {
	opts := []option.RequestOption{
		option.WithAPIKey(o.apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	o.client = &client
}

func (o *OpenAIInferencer) SetModel(model string) {
	o.model = cmp.Or(model, o.provider.Model)
}

// Infer sends prompt to the chat completion endpoint and returns the output.
func (o *OpenAIInferencer) Infer(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: param.Opt[string]{Value: prompt},
					},
				},
			},
		},
		MaxCompletionTokens: openai.Int(o.MaxTokens),
		Temperature:         openai.Float(o.Temperature),
	}

	return retry.Do(ctx, o.Retry, func(ctx context.Context) (string, error) {
		resp, err := o.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("%s inference error: %w", o.provider.Name, err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("no choices returned")
		}
		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			return "", ErrEmptyResponse
		}
		return content, nil
	})
}

func (o *OpenAIInferencer) Verify(ctx context.Context) error {
	_, err := o.Infer(ctx, verifyPrompt)
	return err
}
