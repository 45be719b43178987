package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"cutboard/pkg/cut"
	"cutboard/pkg/utils"
)

// Inferencer sends a single prompt to a text model.
type Inferencer interface {
	Infer(ctx context.Context, prompt string) (string, error)
	// Verify makes a minimal request to confirm the credentials work.
	Verify(ctx context.Context) error
}

// ImageGenerator renders one image for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, model ImageModel, aspect AspectRatio) (*cut.Image, error)
}

type AspectRatio string

const (
	Landscape AspectRatio = "16:9"
	Portrait  AspectRatio = "9:16"
)

var AspectRatios = []AspectRatio{Landscape, Portrait}

// ParseAspectRatio accepts the two supported ratios. An empty value means
// Landscape.
func ParseAspectRatio(s string) (AspectRatio, error) {
	switch AspectRatio(strings.TrimSpace(s)) {
	case "", Landscape:
		return Landscape, nil
	case Portrait:
		return Portrait, nil
	}
	return "", fmt.Errorf("unsupported aspect ratio %q", s)
}

type ImageModel string

const (
	FlashImage ImageModel = "gemini-2.5-flash-image"
	ProImage   ImageModel = "gemini-3-pro-image-preview"

	DefaultImageModel = FlashImage
)

var ImageModels = []ImageModel{FlashImage, ProImage}

func ParseImageModel(s string) (ImageModel, error) {
	switch ImageModel(strings.TrimSpace(s)) {
	case "", FlashImage:
		return FlashImage, nil
	case ProImage:
		return ProImage, nil
	}
	return "", fmt.Errorf("unsupported image model %q", s)
}

var (
	ErrNoImage       = errors.New("no image in response")
	ErrEmptyResponse = errors.New("empty completion content")
)

const verifyPrompt = "Say hello"

// IsRateLimited reports whether err is a quota or rate-limit failure from a
// backend. Typed 429s from either SDK are recognised first, then the message
// is searched for "429", "quota" or "resource_exhausted".
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var gv genai.APIError
	if errors.As(err, &gv) && gv.Code == http.StatusTooManyRequests {
		return true
	}
	var gp *genai.APIError
	if errors.As(err, &gp) && gp != nil && gp.Code == http.StatusTooManyRequests {
		return true
	}
	var oe *openai.Error
	if errors.As(err, &oe) && oe != nil && oe.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return utils.StringContains(err.Error(), false, "429", "quota", "resource_exhausted")
}
