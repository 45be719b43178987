package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cutboard/pkg/flight"
)

var (
	ErrThumbnailHost = errors.New("thumbnail host not allowed")
	ErrThumbnailURL  = errors.New("invalid thumbnail url")
)

const (
	thumbnailTTL  = time.Hour
	thumbnailSize = 4 << 20
)

type Thumbnail struct {
	Data        []byte
	ContentType string
}

// Thumbnails fetches video thumbnails from the YouTube image CDN, sharing
// concurrent requests for the same URL.
type Thumbnails struct {
	HTTP  *http.Client
	Allow func(host string) bool

	cache *flight.Cache[string, Thumbnail]
}

func NewThumbnails() *Thumbnails {
	t := &Thumbnails{
		HTTP:  &http.Client{Timeout: 15 * time.Second},
		Allow: IsThumbnailHost,
	}
	t.cache = flight.New(thumbnailTTL, t.fetch)
	return t
}

// IsThumbnailHost accepts i.ytimg.com and its sibling CDN hosts.
func IsThumbnailHost(host string) bool {
	host = strings.ToLower(host)
	return host == "ytimg.com" || strings.HasSuffix(host, ".ytimg.com")
}

func (t *Thumbnails) Get(ctx context.Context, raw string) (Thumbnail, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return Thumbnail{}, fmt.Errorf("%w: %q", ErrThumbnailURL, raw)
	}
	if !t.Allow(u.Hostname()) {
		return Thumbnail{}, fmt.Errorf("%w: %s", ErrThumbnailHost, u.Hostname())
	}
	return t.cache.Get(ctx, u.String())
}

func (t *Thumbnails) fetch(ctx context.Context, u string) (Thumbnail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Thumbnail{}, err
	}
	resp, err := t.HTTP.Do(req)
	if err != nil {
		return Thumbnail{}, fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Thumbnail{}, fmt.Errorf("fetch thumbnail: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, thumbnailSize))
	if err != nil {
		return Thumbnail{}, fmt.Errorf("read thumbnail: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return Thumbnail{Data: data, ContentType: ct}, nil
}
