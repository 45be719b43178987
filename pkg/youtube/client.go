package youtube

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"cutboard/pkg/utils"
)

var ErrInvalidKey = errors.New("a valid YouTube API key is required")

const (
	MaxResults      = 50
	descriptionSize = 200
	placeholderKey  = "YOUR_API_KEY_HERE"
)

var videoParts = []string{"snippet", "statistics", "contentDetails"}

// Video is one search or trending result.
type Video struct {
	ID              string `json:"video_id"`
	Title           string `json:"title"`
	Channel         string `json:"channel"`
	PublishedAt     string `json:"published_at"`
	Views           uint64 `json:"view_count"`
	Likes           uint64 `json:"like_count"`
	Comments        uint64 `json:"comment_count"`
	Duration        string `json:"duration"`
	DurationSeconds int    `json:"duration_seconds"`
	Description     string `json:"description"`
	Thumbnail       string `json:"thumbnail"`
	URL             string `json:"url"`
}

// SearchOptions accept either API values or the display labels in options.go.
type SearchOptions struct {
	Category   string   `query:"category"`
	Keywords   []string `query:"keywords"`
	Order      string   `query:"order"`
	MaxResults int      `query:"max_results"`
	Duration   string   `query:"duration"`
	Period     string   `query:"period"`
	Country    string   `query:"country"`
	License    string   `query:"license"`
	MinViews   uint64   `query:"min_views"`
}

type Client struct {
	svc *youtube.Service
	Now func() time.Time
}

// NewClient creates a Data API client for apiKey. Extra options are passed to
// the service, e.g. option.WithEndpoint in tests.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" || apiKey == placeholderKey {
		return nil, ErrInvalidKey
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &Client{svc: svc, Now: time.Now}, nil
}

func clampResults(n int) int64 {
	if n <= 0 {
		n = 25
	}
	return int64(min(n, MaxResults))
}

// Search runs search.list and then videos.list for the statistics, keeping
// videos with at least MinViews views.
func (c *Client) Search(ctx context.Context, o SearchOptions) ([]Video, error) {
	order := OrderValue(o.Order)
	call := c.svc.Search.List([]string{"snippet"}).
		Type("video").
		MaxResults(clampResults(o.MaxResults)).
		Order(order).
		RegionCode(RegionCode(o.Country))
	if q := strings.Join(slices.DeleteFunc(slices.Clone(o.Keywords), func(s string) bool { return strings.TrimSpace(s) == "" }), " "); q != "" {
		call = call.Q(q)
	}
	if id := CategoryID(o.Category); id != "" {
		call = call.VideoCategoryId(id)
	}
	if d := DurationValue(o.Duration); d != "" {
		call = call.VideoDuration(d)
	}
	if after := PublishedAfter(o.Period, c.Now()); after != "" {
		call = call.PublishedAfter(after)
	}
	if l := LicenseValue(o.License); l != "" {
		call = call.VideoLicense(l)
	}

	found, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	rank := make(map[string]int, len(found.Items))
	ids := make([]string, 0, len(found.Items))
	for i, item := range found.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		rank[item.Id.VideoId] = i
		ids = append(ids, item.Id.VideoId)
	}
	if len(ids) == 0 {
		return []Video{}, nil
	}

	details, err := c.svc.Videos.List(videoParts).Id(ids...).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos: %w", err)
	}
	videos := make([]Video, 0, len(details.Items))
	for _, item := range details.Items {
		v, ok := toVideo(item)
		if !ok || v.Views < o.MinViews {
			continue
		}
		videos = append(videos, v)
	}

	switch order {
	case "viewCount":
		slices.SortStableFunc(videos, func(a, b Video) int { return cmp.Compare(b.Views, a.Views) })
	case "date":
		slices.SortStableFunc(videos, func(a, b Video) int { return strings.Compare(b.PublishedAt, a.PublishedAt) })
	default:
		slices.SortStableFunc(videos, func(a, b Video) int { return cmp.Compare(rank[a.ID], rank[b.ID]) })
	}
	log.Debug("youtube search", "results", len(videos), "order", order)
	return videos, nil
}

// Trending returns the most popular videos for a country.
func (c *Client) Trending(ctx context.Context, country string, limit int) ([]Video, error) {
	resp, err := c.svc.Videos.List(videoParts).
		Chart("mostPopular").
		RegionCode(RegionCode(country)).
		MaxResults(clampResults(limit)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube trending: %w", err)
	}
	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if v, ok := toVideo(item); ok {
			videos = append(videos, v)
		}
	}
	return videos, nil
}

func toVideo(item *youtube.Video) (Video, bool) {
	if item == nil || item.Snippet == nil {
		return Video{}, false
	}
	seconds := 0
	if item.ContentDetails != nil {
		seconds = ParseISODuration(item.ContentDetails.Duration)
	}
	v := Video{
		ID:              item.Id,
		Title:           item.Snippet.Title,
		Channel:         item.Snippet.ChannelTitle,
		PublishedAt:     item.Snippet.PublishedAt,
		Duration:        FormatDuration(seconds),
		DurationSeconds: seconds,
		Description:     utils.LimitStr(item.Snippet.Description, descriptionSize),
		URL:             "https://www.youtube.com/watch?v=" + item.Id,
	}
	if s := item.Statistics; s != nil {
		v.Views, v.Likes, v.Comments = s.ViewCount, s.LikeCount, s.CommentCount
	}
	if t := item.Snippet.Thumbnails; t != nil && t.Medium != nil {
		v.Thumbnail = t.Medium.Url
	}
	return v, true
}

// IsQuotaError reports whether err is the Data API refusing a request for
// quota or rate reasons.
func IsQuotaError(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	for _, e := range gerr.Errors {
		if utils.StringContains(e.Reason, false, "quota", "ratelimit") {
			return true
		}
	}
	return false
}
