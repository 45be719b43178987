package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cutboard/pkg/cut"
	"cutboard/pkg/inference"
	"cutboard/pkg/prompt"
)

type fakeText struct {
	calls []string
	fail  map[int]error // keyed by call index
	reply func(prompt string) string
}

func (f *fakeText) Infer(_ context.Context, p string) (string, error) {
	n := len(f.calls)
	f.calls = append(f.calls, p)
	if err := f.fail[n]; err != nil {
		return "", err
	}
	if f.reply != nil {
		return f.reply(p), nil
	}
	return `"prompt ` + string(rune('A'+n)) + `"`, nil
}

func (f *fakeText) Verify(context.Context) error { return nil }

type fakeImager struct {
	prompts []string
	aspects []inference.AspectRatio
	fail    map[string]error // keyed by prompt
}

func (f *fakeImager) Generate(_ context.Context, p string, _ inference.ImageModel, aspect inference.AspectRatio) (*cut.Image, error) {
	f.prompts = append(f.prompts, p)
	f.aspects = append(f.aspects, aspect)
	if err := f.fail[p]; err != nil {
		return nil, err
	}
	return &cut.Image{Data: []byte("img:" + p), MIMEType: "image/png"}, nil
}

const script = `Intro text the model added.
=== CUT 1 (0:00-0:08) ===
[Scene Description]
A foggy harbour at dawn

[Narration]
Every story starts somewhere.
---
=== CUT 2 (0:08-0:16) ===
[Scene Description]
Fishermen loading nets
---
=== CUT 3 (0:16-0:24) ===
[Scene Description]
Gulls over the water
`

func newScriptPipeline(text *fakeText, img *fakeImager, waits *[]time.Duration) *Pipeline {
	p := ForScript(text, img, prompt.DefaultImageStyle)
	p.Sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return p
}

func TestRunScript(t *testing.T) {
	text := &fakeText{}
	img := &fakeImager{}
	var waits []time.Duration
	var stages []Stage

	p := newScriptPipeline(text, img, &waits)
	cuts, err := p.Run(context.Background(), Request{Input: script, Aspect: inference.Portrait}, func(pr Progress) {
		stages = append(stages, pr.Stage)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(cuts) != 3 || len(text.calls) != 3 || len(img.prompts) != 3 {
		t.Fatalf("cuts=%d text calls=%d image calls=%d", len(cuts), len(text.calls), len(img.prompts))
	}
	if !strings.Contains(text.calls[0], "Scene Description: A foggy harbour at dawn") {
		t.Fatalf("first request does not describe cut 1:\n%s", text.calls[0])
	}
	if diff := cmp.Diff([]string{"prompt A", "prompt B", "prompt C"}, img.prompts); diff != "" {
		t.Fatalf("images rendered from wrong prompts (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]time.Duration{DefaultPacing, DefaultPacing}, waits); diff != "" {
		t.Fatalf("unexpected pacing (-want +got):\n%s", diff)
	}
	for _, a := range img.aspects {
		if a != inference.Portrait {
			t.Fatalf("aspect ratio not forwarded: %v", img.aspects)
		}
	}
	for i, c := range cuts {
		if c.Number != i+1 || c.Image == nil || c.ImageError != nil || c.PromptError != nil {
			t.Fatalf("cut %d incomplete: %+v", i, c)
		}
	}
	if stages[0] != StageExtract || stages[len(stages)-1] != StageDone {
		t.Fatalf("unexpected stages %v", stages)
	}
}

func TestRunRejectsEmptyInput(t *testing.T) {
	p := ForScript(&fakeText{}, &fakeImager{}, prompt.ImageStyle{})
	if _, err := p.Run(context.Background(), Request{Input: "  \n "}, nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	cuts, err := p.Run(context.Background(), Request{Input: "no headers here"}, nil)
	if !errors.Is(err, ErrNoCuts) || len(cuts) != 0 {
		t.Fatalf("expected ErrNoCuts, got %v (%d cuts)", err, len(cuts))
	}
}

func TestPromptFailureIsRecordedPerCut(t *testing.T) {
	text := &fakeText{fail: map[int]error{1: errors.New("quota exceeded")}}
	img := &fakeImager{}
	var waits []time.Duration

	cuts, err := newScriptPipeline(text, img, &waits).Run(context.Background(), Request{Input: script}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cuts[1].ImagePrompt != nil || cuts[1].PromptError == nil || *cuts[1].PromptError != "quota exceeded" {
		t.Fatalf("cut 2 should carry the prompt error: %+v", cuts[1])
	}
	if cuts[1].ImageError == nil || *cuts[1].ImageError != ErrNoPrompt.Error() {
		t.Fatalf("cut 2 should be skipped for images: %+v", cuts[1])
	}
	if len(img.prompts) != 2 || cuts[0].Image == nil || cuts[2].Image == nil {
		t.Fatalf("other cuts should still render: %v", img.prompts)
	}
	if len(waits) != 1 {
		t.Fatalf("pacing applies only between real calls, got %v", waits)
	}
}

func TestImageFailureIsRecordedPerCut(t *testing.T) {
	text := &fakeText{}
	img := &fakeImager{fail: map[string]error{"prompt B": inference.ErrNoImage}}
	var waits []time.Duration

	cuts, err := newScriptPipeline(text, img, &waits).Run(context.Background(), Request{Input: script}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cuts[1].Image != nil || cuts[1].ImageError == nil || *cuts[1].ImageError != inference.ErrNoImage.Error() {
		t.Fatalf("cut 2 should carry the image error: %+v", cuts[1])
	}
	if cuts[1].Prompt() != "prompt B" {
		t.Fatalf("prompt should survive image failure: %+v", cuts[1])
	}
	if cuts[2].Image == nil {
		t.Fatal("cut 3 should render after a failure")
	}
}

func TestLyricsFallback(t *testing.T) {
	text := &fakeText{fail: map[int]error{0: errors.New("429 Too Many Requests")}}
	img := &fakeImager{}
	p := ForLyrics(text, img, prompt.MusicStyle{})
	p.Sleep = func(context.Context, time.Duration) error { return nil }

	cuts, err := p.Run(context.Background(), Request{Input: "Line one\n\nLine two\n"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(cuts) != 2 || cuts[0].Kind != cut.Lyric || cuts[1].Number != 2 {
		t.Fatalf("unexpected lyric cuts: %+v", cuts)
	}
	if cuts[0].PromptError == nil || !strings.Contains(cuts[0].Prompt(), "Line one") {
		t.Fatalf("failed line should use the keyword fallback and keep the error: %+v", cuts[0])
	}
	if cuts[0].Image == nil || img.prompts[0] != cuts[0].Prompt() {
		t.Fatalf("fallback prompt should still be rendered")
	}
	if cuts[1].PromptError != nil || cuts[1].Prompt() != "prompt B" {
		t.Fatalf("second line should use the model prompt: %+v", cuts[1])
	}
}

func TestSkipImages(t *testing.T) {
	img := &fakeImager{}
	var waits []time.Duration
	cuts, err := newScriptPipeline(&fakeText{}, img, &waits).Run(context.Background(), Request{Input: script, SkipImages: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(img.prompts) != 0 || cuts[0].Image != nil || cuts[0].Prompt() == "" {
		t.Fatalf("prompts only run expected, got %+v", cuts[0])
	}
}

func TestRegenerate(t *testing.T) {
	img := &fakeImager{}
	p := ForScript(&fakeText{}, img, prompt.ImageStyle{})
	orig := cut.Parse(script)[0].WithPrompt("old").WithImageError(errors.New("boom"))

	got := p.Regenerate(context.Background(), orig, "  a brighter harbour ", inference.ProImage, inference.Landscape)
	if got.Prompt() != "a brighter harbour" || got.Image == nil || got.ImageError != nil {
		t.Fatalf("unexpected regenerated cut: %+v", got)
	}
	if orig.Prompt() != "old" || orig.ImageError == nil {
		t.Fatal("original cut must not change")
	}

	same := p.Regenerate(context.Background(), orig, "", "", "")
	if img.prompts[1] != "old" || same.Image == nil {
		t.Fatalf("empty prompt should reuse the stored one: %v", img.prompts)
	}

	none := p.Regenerate(context.Background(), cut.Parse(script)[1], "", "", "")
	if none.ImageError == nil || *none.ImageError != ErrNoPrompt.Error() {
		t.Fatalf("expected ErrNoPrompt, got %+v", none)
	}
}

func TestCancelStopsBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	text := &fakeText{reply: func(string) string { cancel(); return "p" }}
	_, err := ForScript(text, &fakeImager{}, prompt.ImageStyle{}).Run(ctx, Request{Input: script}, nil)
	if !errors.Is(err, context.Canceled) || len(text.calls) != 1 {
		t.Fatalf("err=%v calls=%d", err, len(text.calls))
	}
}
