package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestIsThumbnailHost(t *testing.T) {
	for host, want := range map[string]bool{
		"i.ytimg.com":     true,
		"I9.YTIMG.COM":    true,
		"ytimg.com":       true,
		"evilytimg.com":   false,
		"ytimg.com.evil":  false,
		"img.youtube.com": false,
	} {
		if got := IsThumbnailHost(host); got != want {
			t.Errorf("IsThumbnailHost(%q) = %v", host, got)
		}
	}
}

func TestThumbnailsRejectOtherHosts(t *testing.T) {
	th := NewThumbnails()
	_, err := th.Get(context.Background(), "https://example.com/a.jpg")
	if !errors.Is(err, ErrThumbnailHost) {
		t.Fatalf("expected ErrThumbnailHost, got %v", err)
	}
	if _, err := th.Get(context.Background(), "file:///etc/passwd"); err == nil {
		t.Fatal("expected scheme rejection")
	}
}

func TestThumbnailsFetchOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	th := NewThumbnails()
	th.HTTP = srv.Client()
	th.Allow = func(string) bool { return true }

	for range 3 {
		got, err := th.Get(context.Background(), srv.URL+"/vi/x/mqdefault.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if string(got.Data) != "jpeg-bytes" || got.ContentType != "image/jpeg" {
			t.Fatalf("unexpected thumbnail %+v", got)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("server hit %d times, want 1", hits.Load())
	}
}

func TestThumbnailsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	th := NewThumbnails()
	th.HTTP = srv.Client()
	th.Allow = func(string) bool { return true }
	if _, err := th.Get(context.Background(), srv.URL+"/missing.jpg"); err == nil {
		t.Fatal("expected an error for a 404")
	}
}
