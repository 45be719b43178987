package server

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"cutboard/pkg/app"
	"cutboard/pkg/youtube"
)

// searchVideos runs fetch off the state goroutine and stores the result as the
// current trend list.
func (s *Server) searchVideos(ctx context.Context, fetch func(context.Context, Searcher) ([]youtube.Video, error)) ([]youtube.Video, error) {
	yt, err := s.Backends.YouTube(ctx)
	if err != nil {
		return nil, err
	}
	future := app.Go(ctx, s.Loop, func(ctx context.Context) ([]youtube.Video, error) {
		return fetch(ctx, yt)
	}, func(st *app.State, videos []youtube.Video, err error) {
		if err == nil {
			st.Videos = slices.Clone(videos)
			st.Tab = app.TabTrends
		}
	})
	return future.Wait(ctx)
}

// GET /api/youtube/search
func (s *Server) handleYouTubeSearch(c echo.Context) error {
	var opts youtube.SearchOptions
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &opts); err != nil {
		return badRequest("invalid query")
	}
	// keywords=a,b and keywords=a&keywords=b are both accepted
	var keywords []string
	for _, k := range opts.Keywords {
		keywords = append(keywords, strings.Split(k, ",")...)
	}
	opts.Keywords = keywords

	videos, err := s.searchVideos(c.Request().Context(), func(ctx context.Context, yt Searcher) ([]youtube.Video, error) {
		return yt.Search(ctx, opts)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, videos)
}

// GET /api/youtube/trending
func (s *Server) handleYouTubeTrending(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return badRequest("max_results must be an integer")
		}
		limit = n
	}
	country := c.QueryParam("country")
	videos, err := s.searchVideos(c.Request().Context(), func(ctx context.Context, yt Searcher) ([]youtube.Video, error) {
		return yt.Trending(ctx, country, limit)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, videos)
}

// GET /api/youtube/thumbnail?url=
func (s *Server) handleThumbnail(c echo.Context) error {
	raw := c.QueryParam("url")
	if raw == "" {
		return badRequest("url is required")
	}
	thumb, err := s.Thumbnails.Get(c.Request().Context(), raw)
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set("Cache-Control", "max-age=3600")
	return c.Blob(http.StatusOK, thumb.ContentType, thumb.Data)
}
