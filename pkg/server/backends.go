package server

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/genai"

	"cutboard/pkg/config"
	"cutboard/pkg/inference"
	"cutboard/pkg/youtube"
)

// Searcher is the part of the YouTube client the API uses.
type Searcher interface {
	Search(ctx context.Context, o youtube.SearchOptions) ([]youtube.Video, error)
	Trending(ctx context.Context, country string, limit int) ([]youtube.Video, error)
}

// Backends hands out clients built from the keys configured right now. Each
// method fails with config.ErrMissingKey while setup is incomplete.
type Backends interface {
	Text(ctx context.Context) (inference.Inferencer, error)
	Images(ctx context.Context) (inference.ImageGenerator, error)
	YouTube(ctx context.Context) (Searcher, error)
}

// KeyedBackends builds backends from the config store. Gemini clients are
// reused until the key changes.
type KeyedBackends struct {
	Config    *config.Store
	Provider  string // gemini or an OpenAI-compatible preset name
	TextModel string

	mu        sync.Mutex
	geminiKey string
	gemini    *genai.Client
}

func (b *KeyedBackends) geminiClient(ctx context.Context) (*genai.Client, error) {
	key, err := b.Config.RequireKey(config.Gemini)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gemini != nil && b.geminiKey == key {
		return b.gemini, nil
	}
	client, err := inference.NewGeminiClient(ctx, key, "")
	if err != nil {
		return nil, err
	}
	b.gemini, b.geminiKey = client, key
	return client, nil
}

func (b *KeyedBackends) Text(ctx context.Context) (inference.Inferencer, error) {
	name := strings.ToLower(strings.TrimSpace(b.Provider))
	if name == "" || name == "gemini" {
		client, err := b.geminiClient(ctx)
		if err != nil {
			return nil, err
		}
		return inference.NewGeminiInferencer(client, b.TextModel), nil
	}

	p, ok := inference.LookupProvider(name)
	if !ok {
		return nil, fmt.Errorf("unknown text provider %q", b.Provider)
	}
	key := strings.TrimSpace(os.Getenv(p.KeyEnv))
	if key == "" {
		return nil, fmt.Errorf("%s: %w", p.KeyEnv, config.ErrMissingKey)
	}
	return inference.NewOpenAIInferencer(p, key, b.TextModel), nil
}

func (b *KeyedBackends) Images(ctx context.Context) (inference.ImageGenerator, error) {
	client, err := b.geminiClient(ctx)
	if err != nil {
		return nil, err
	}
	return inference.NewGeminiImager(client), nil
}

func (b *KeyedBackends) YouTube(ctx context.Context) (Searcher, error) {
	key, err := b.Config.RequireKey(config.YouTube)
	if err != nil {
		return nil, err
	}
	client, err := youtube.NewClient(ctx, key)
	if err != nil {
		return nil, err
	}
	return client, nil
}
