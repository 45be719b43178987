package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cutboard/pkg/app"
	"cutboard/pkg/inference"
	"cutboard/pkg/prompt"
	"cutboard/pkg/youtube"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": "cutboard",
		"status":  "ok",
		"queued":  s.Queue.Len(),
	})
}

// GET /api/state
func (s *Server) handleGetState(c echo.Context) error {
	state, err := app.View(c.Request().Context(), s.Loop, (*app.State).Snapshot)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, state)
}

// PUT /api/state/tab
func (s *Server) handlePutTab(c echo.Context) error {
	var req struct {
		Tab string `json:"tab"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid json")
	}
	tab, ok := app.ParseTab(req.Tab)
	if !ok {
		return badRequest("unknown tab")
	}
	if err := app.Update(c.Request().Context(), s.Loop, func(st *app.State) { st.Tab = tab }); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]app.Tab{"tab": tab})
}

// GET /api/options
func (s *Server) handleGetOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"styles":        prompt.Options(),
		"aspect_ratios": inference.AspectRatios,
		"image_models":  inference.ImageModels,
		"tabs":          app.Tabs,
		"youtube": map[string]any{
			"categories": youtube.Categories,
			"countries":  youtube.Countries,
			"orders":     youtube.Orders,
			"durations":  youtube.Durations,
			"licenses":   youtube.Licenses,
			"periods":    youtube.Periods,
		},
	})
}
