package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/genai"

	"cutboard/pkg/retry"
)

func TestIsRateLimited(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("boom"), false},
		{errors.New("googleapi: Error 429: Too Many Requests"), true},
		{errors.New("You exceeded your current QUOTA"), true},
		{fmt.Errorf("wrapped: %w", errors.New("RESOURCE_EXHAUSTED")), true},
		{fmt.Errorf("wrapped: %w", genai.APIError{Code: http.StatusTooManyRequests}), true},
		{genai.APIError{Code: http.StatusBadRequest, Message: "bad prompt"}, false},
	}
	for _, tc := range cases {
		if got := IsRateLimited(tc.err); got != tc.want {
			t.Errorf("IsRateLimited(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestParseAspectRatio(t *testing.T) {
	for in, want := range map[string]AspectRatio{"": Landscape, "16:9": Landscape, " 9:16 ": Portrait} {
		got, err := ParseAspectRatio(in)
		if err != nil || got != want {
			t.Fatalf("ParseAspectRatio(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseAspectRatio("4:3"); err == nil {
		t.Fatal("expected error for 4:3")
	}
	if _, err := ParseImageModel("dall-e"); err == nil {
		t.Fatal("expected error for unknown image model")
	}
}

func noSleep(p retry.Policy, waits *[]time.Duration) retry.Policy {
	p.Sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return p
}

func geminiServer(t *testing.T, handler http.HandlerFunc) *genai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewGeminiClient(context.Background(), "test-key", srv.URL+"/")
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestGeminiInfer(t *testing.T) {
	var path string
	client := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "Write a script") {
			t.Errorf("prompt missing from request: %s", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": "=== CUT 1 (0:00-0:08) ===\n"}}},
			}},
		})
	})

	inf := NewGeminiInferencer(client, "")
	got, err := inf.Infer(context.Background(), "Write a script")
	if err != nil {
		t.Fatal(err)
	}
	if got != "=== CUT 1 (0:00-0:08) ===" {
		t.Fatalf("Infer = %q", got)
	}
	if !strings.Contains(path, DefaultGeminiModel+":generateContent") {
		t.Fatalf("unexpected request path %q", path)
	}
}

func TestGeminiInferRetriesRateLimits(t *testing.T) {
	var calls atomic.Int32
	client := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"},
		})
	})

	var waits []time.Duration
	inf := NewGeminiInferencer(client, "")
	inf.Retry = noSleep(inf.Retry, &waits)

	_, err := inf.Infer(context.Background(), "hello")
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("expected exhausted retries, got %v", err)
	}
	if len(waits) != retry.DefaultAttempts-1 || waits[0] != time.Second {
		t.Fatalf("unexpected waits %v", waits)
	}
	if calls.Load() < int32(retry.DefaultAttempts) {
		t.Fatalf("expected at least %d calls, got %d", retry.DefaultAttempts, calls.Load())
	}
}

func TestGeminiImagerGenerate(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	var body string
	client := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		writeJSON(w, http.StatusOK, map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"role": "model", "parts": []any{
					map[string]any{"text": "Here is your image"},
					map[string]any{"inlineData": map[string]any{"mimeType": "image/png", "data": base64.StdEncoding.EncodeToString(png)}},
				}},
			}},
		})
	})

	img, err := NewGeminiImager(client).Generate(context.Background(), "a lighthouse", ProImage, Portrait)
	if err != nil {
		t.Fatal(err)
	}
	if string(img.Data) != string(png) || img.MIMEType != "image/png" {
		t.Fatalf("unexpected image %+v", img)
	}
	if !strings.Contains(body, `"9:16"`) || !strings.Contains(body, "IMAGE") {
		t.Fatalf("aspect ratio or modalities missing from request: %s", body)
	}
}

func TestGeminiImagerNoImage(t *testing.T) {
	client := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": "I cannot draw that"}}},
			}},
		})
	})

	_, err := NewGeminiImager(client).Generate(context.Background(), "x", "", "")
	if !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestOpenAIInfer(t *testing.T) {
	var auth, model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		model = req.Model
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": req.Model,
			"choices": []any{map[string]any{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{"role": "assistant", "content": " hello "},
			}},
		})
	}))
	defer srv.Close()

	p, ok := LookupProvider("Grok")
	if !ok {
		t.Fatal("grok preset missing")
	}
	p.BaseURL = srv.URL
	inf := NewOpenAIInferencer(p, "secret", "")
	if err := inf.Verify(context.Background()); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer secret" || model != Grok.Model {
		t.Fatalf("auth=%q model=%q", auth, model)
	}
}

func TestOpenAIRateLimitIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"message": "slow down", "type": "rate_limit_error"},
		})
	}))
	defer srv.Close()

	var waits []time.Duration
	inf := NewOpenAIInferencer(Provider{Name: "test", BaseURL: srv.URL, Model: "m"}, "k", "")
	inf.Retry = noSleep(inf.Retry, &waits)

	_, err := inf.Infer(context.Background(), "hi")
	if !errors.Is(err, retry.ErrExhausted) || !IsRateLimited(err) {
		t.Fatalf("expected exhausted rate limit error, got %v", err)
	}
	if len(waits) != retry.DefaultAttempts-1 {
		t.Fatalf("unexpected waits %v", waits)
	}
}
