package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"cutboard/pkg/app"
	"cutboard/pkg/config"
	"cutboard/pkg/export"
	"cutboard/pkg/inference"
	"cutboard/pkg/pipeline"
	"cutboard/pkg/prompt"
	"cutboard/pkg/queue"
	"cutboard/pkg/templates"
	"cutboard/pkg/utils"
	"cutboard/pkg/youtube"
)

type Server struct {
	Echo *echo.Echo
	Ctx  context.Context

	Loop       *app.Loop
	Queue      *queue.Queue
	Templates  *templates.Store
	Config     *config.Store
	Backends   Backends
	Thumbnails *youtube.Thumbnails

	// Pacing is the pause between image calls within a batch.
	Pacing     time.Duration
	ImageModel inference.ImageModel
	// ExportDir is where jobs are exported when the request names no directory.
	ExportDir string
	// PollInterval is how often job event streams check for progress.
	PollInterval time.Duration
	CountTokens  func(string) (int, error)
}

func NewServer(ctx context.Context, loop *app.Loop, q *queue.Queue, tmpl *templates.Store, cfg *config.Store, backends Backends) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:         e,
		Ctx:          ctx,
		Loop:         loop,
		Queue:        q,
		Templates:    tmpl,
		Config:       cfg,
		Backends:     backends,
		Thumbnails:   youtube.NewThumbnails(),
		Pacing:       pipeline.DefaultPacing,
		ImageModel:   inference.DefaultImageModel,
		ExportDir:    filepath.Join(filepath.Dir(cfg.Path()), "exports"),
		PollInterval: 250 * time.Millisecond,
		CountTokens:  utils.NumTokens,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)

	api := s.Echo.Group("/api")
	api.GET("/state", s.handleGetState)
	api.PUT("/state/tab", s.handlePutTab)
	api.GET("/options", s.handleGetOptions)

	api.GET("/settings", s.handleGetSettings)
	api.DELETE("/settings", s.handleDeleteSettings)
	api.PUT("/settings/keys", s.handlePutKey)
	api.DELETE("/settings/keys/:name", s.handleDeleteKey)
	api.POST("/settings/test", s.handleTestConnection)
	api.PUT("/settings/values/:key", s.handlePutSetting)

	api.GET("/templates", s.handleListTemplates)
	api.POST("/templates/reset", s.handleResetTemplates)
	api.GET("/templates/:name", s.handleGetTemplate)
	api.PUT("/templates/:name", s.handlePutTemplate)
	api.DELETE("/templates/:name", s.handleDeleteTemplate)
	api.GET("/templates/:name/diff", s.handleDiffTemplate)
	api.POST("/templates/:name/import", s.handleImportTemplate)
	api.POST("/templates/:name/export", s.handleExportTemplate)

	api.POST("/script/prompt", s.handleScriptPrompt)
	api.POST("/script", s.handleGenerateScript)
	api.POST("/cuts/parse", s.handleParseCuts)
	api.POST("/lyrics/parse", s.handleParseLyrics)

	api.GET("/jobs", s.handleListJobs)
	api.POST("/jobs", s.handlePostJob)
	api.GET("/jobs/:id", s.handleGetJob)
	api.GET("/jobs/:id/events", s.handleJobEvents)
	api.POST("/jobs/:id/cuts/:n/regenerate", s.handleRegenerate)
	api.GET("/jobs/:id/cuts/:n/image", s.handleCutImage)
	api.POST("/jobs/:id/export", s.handleExportJob)

	api.GET("/youtube/search", s.handleYouTubeSearch)
	api.GET("/youtube/trending", s.handleYouTubeTrending)
	api.GET("/youtube/thumbnail", s.handleThumbnail)
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")
	return s.Echo.Shutdown(ctx)
}

// httpError maps domain errors onto status codes. Anything unrecognised is a
// backend failure.
func httpError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var ve *prompt.ValidationError
	var te *prompt.TemplateError

	code := http.StatusBadGateway
	switch {
	case errors.As(err, &ve), errors.As(err, &te),
		errors.Is(err, pipeline.ErrEmptyInput), errors.Is(err, pipeline.ErrNoCuts), errors.Is(err, pipeline.ErrNoPrompt),
		errors.Is(err, templates.ErrName), errors.Is(err, export.ErrFormat),
		errors.Is(err, youtube.ErrThumbnailHost), errors.Is(err, youtube.ErrThumbnailURL):
		code = http.StatusBadRequest
	case errors.Is(err, templates.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, templates.ErrProtected):
		code = http.StatusConflict
	case errors.Is(err, config.ErrMissingKey), errors.Is(err, youtube.ErrInvalidKey):
		code = http.StatusPreconditionFailed
	case errors.Is(err, queue.ErrFull), youtube.IsQuotaError(err), inference.IsRateLimited(err):
		code = http.StatusTooManyRequests
	case errors.Is(err, queue.ErrStopped), errors.Is(err, app.ErrStopped):
		code = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	if code >= http.StatusInternalServerError {
		log.Error("request failed", "status", code, "error", err)
	}
	return echo.NewHTTPError(code, err.Error())
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
