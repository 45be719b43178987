package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"cutboard/pkg/cut"
	"cutboard/pkg/inference"
	"cutboard/pkg/prompt"
	"cutboard/pkg/retry"
	"cutboard/pkg/utils"
)

// Extractor turns raw input into cuts.
type Extractor func(input string) []cut.Cut

// PromptFunc builds the text-model request that yields a cut's image prompt.
type PromptFunc func(c cut.Cut) string

var (
	ErrEmptyInput = errors.New("input is empty")
	ErrNoCuts     = errors.New("no cuts found in input")
	ErrNoPrompt   = errors.New("no image prompt for cut")
)

const DefaultPacing = time.Second

type Stage string

const (
	StageExtract Stage = "extract"
	StagePrompts Stage = "prompts"
	StageImages  Stage = "images"
	StageDone    Stage = "done"
)

type Progress struct {
	Stage   Stage  `json:"stage"`
	Index   int    `json:"index"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

type ProgressFunc func(Progress)

// Pipeline runs the extract, prompt and image stages for one kind of input.
// Per-cut failures are recorded on the cut and never abort the batch.
type Pipeline struct {
	Kind     cut.Kind
	Extract  Extractor
	Prompt   PromptFunc
	Fallback PromptFunc // used in place of Prompt output when the text call fails

	Text   inference.Inferencer
	Imager inference.ImageGenerator

	// Pacing is the pause between consecutive image calls.
	Pacing time.Duration
	Sleep  func(ctx context.Context, d time.Duration) error
}

// ForScript builds the screenplay pipeline.
func ForScript(text inference.Inferencer, imager inference.ImageGenerator, style prompt.ImageStyle) *Pipeline {
	return &Pipeline{
		Kind:    cut.Script,
		Extract: cut.Parse,
		Prompt:  func(c cut.Cut) string { return prompt.BuildCutImage(c, style) },
		Text:    text,
		Imager:  imager,
		Pacing:  DefaultPacing,
	}
}

// ForLyrics builds the per-line lyrics pipeline. Failed prompt calls fall back
// to a keyword prompt so every line still gets an image.
func ForLyrics(text inference.Inferencer, imager inference.ImageGenerator, style prompt.MusicStyle) *Pipeline {
	return &Pipeline{
		Kind:     cut.Lyric,
		Extract:  cut.SplitLyrics,
		Prompt:   func(c cut.Cut) string { return prompt.BuildLyricImage(c, style) },
		Fallback: func(c cut.Cut) string { return prompt.LyricFallback(c, style) },
		Text:     text,
		Imager:   imager,
		Pacing:   DefaultPacing,
	}
}

type Request struct {
	Input      string
	Model      inference.ImageModel
	Aspect     inference.AspectRatio
	SkipImages bool
}

// Run extracts cuts from the request input, generates a prompt for each, then
// an image for each. The returned cuts are always the full batch, in order.
func (p *Pipeline) Run(ctx context.Context, req Request, progress ProgressFunc) ([]cut.Cut, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, ErrEmptyInput
	}
	report(progress, Progress{Stage: StageExtract, Message: "Extracting cuts..."})
	cuts := p.Extract(req.Input)
	if len(cuts) == 0 {
		return cuts, ErrNoCuts
	}
	log.Info("pipeline started", "kind", p.Kind, "cuts", len(cuts), "images", !req.SkipImages)

	cuts, err := p.Prompts(ctx, cuts, progress)
	if err != nil {
		return cuts, err
	}
	if !req.SkipImages {
		cuts, err = p.Images(ctx, cuts, req.Model, req.Aspect, progress)
		if err != nil {
			return cuts, err
		}
	}
	report(progress, Progress{Stage: StageDone, Index: len(cuts), Total: len(cuts), Message: "Done"})
	return cuts, nil
}

// Prompts makes one text call per cut, in order. Only context cancellation
// stops the loop; the cuts processed so far are returned with it.
func (p *Pipeline) Prompts(ctx context.Context, cuts []cut.Cut, progress ProgressFunc) ([]cut.Cut, error) {
	out := cut.CloneAll(cuts)
	for i, c := range out {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		report(progress, Progress{Stage: StagePrompts, Index: i + 1, Total: len(out),
			Message: fmt.Sprintf("Generating prompt for cut %d (%d/%d)...", c.Number, i+1, len(out))})

		text, err := p.Text.Infer(ctx, p.Prompt(c))
		switch {
		case err == nil:
			out[i] = c.WithPrompt(utils.CleanPrompt(text))
		case p.Fallback != nil:
			log.Warn("prompt generation failed, using fallback", "cut", c.Number, "error", err)
			out[i] = c.WithPrompt(p.Fallback(c)).WithPromptError(err)
		default:
			log.Warn("prompt generation failed", "cut", c.Number, "error", err)
			out[i] = c.WithPromptError(err)
		}
	}
	return out, nil
}

// Images renders one image per cut, strictly one at a time with Pacing
// between calls. Cuts without a prompt are marked with ErrNoPrompt.
func (p *Pipeline) Images(ctx context.Context, cuts []cut.Cut, model inference.ImageModel, aspect inference.AspectRatio, progress ProgressFunc) ([]cut.Cut, error) {
	out := cut.CloneAll(cuts)
	called := false
	for i, c := range out {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if c.Prompt() == "" {
			out[i] = c.WithImageError(ErrNoPrompt)
			continue
		}
		if called {
			if err := p.sleep(ctx, p.Pacing); err != nil {
				return out, err
			}
		}
		called = true

		report(progress, Progress{Stage: StageImages, Index: i + 1, Total: len(out),
			Message: fmt.Sprintf("Generating image for cut %d (%d/%d)...", c.Number, i+1, len(out))})
		out[i] = p.render(ctx, c, c.Prompt(), model, aspect)
	}
	return out, nil
}

// Regenerate renders c again with newPrompt, which also replaces its stored
// prompt.
func (p *Pipeline) Regenerate(ctx context.Context, c cut.Cut, newPrompt string, model inference.ImageModel, aspect inference.AspectRatio) cut.Cut {
	newPrompt = strings.TrimSpace(newPrompt)
	if newPrompt == "" {
		newPrompt = c.Prompt()
	}
	c = c.Clone()
	if newPrompt == "" {
		return c.WithImageError(ErrNoPrompt)
	}
	return p.render(ctx, c.WithPrompt(newPrompt), newPrompt, model, aspect)
}

func (p *Pipeline) render(ctx context.Context, c cut.Cut, text string, model inference.ImageModel, aspect inference.AspectRatio) cut.Cut {
	img, err := p.Imager.Generate(ctx, text, model, aspect)
	if err != nil {
		log.Warn("image generation failed", "cut", c.Number, "error", err)
		return c.WithImageError(err)
	}
	return c.WithImage(img)
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return retry.Sleep(ctx, d)
}

func report(progress ProgressFunc, p Progress) {
	if progress != nil {
		progress(p)
	}
}
