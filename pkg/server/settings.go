package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"cutboard/pkg/config"
)

type keyRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type settingsResponse struct {
	Keys     map[config.KeyName]bool `json:"keys"`
	Settings map[string]any          `json:"settings"`
	Path     string                  `json:"config_path"`
}

func (s *Server) settings() settingsResponse {
	keys := make(map[config.KeyName]bool, len(config.KeyNames))
	for _, name := range config.KeyNames {
		keys[name] = s.Config.HasKey(name)
	}
	return settingsResponse{Keys: keys, Settings: s.Config.Settings(), Path: s.Config.Path()}
}

// GET /api/settings
func (s *Server) handleGetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, s.settings())
}

// DELETE /api/settings
func (s *Server) handleDeleteSettings(c echo.Context) error {
	if err := s.Config.ClearAll(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	log.Warn("all settings cleared")
	return c.JSON(http.StatusOK, s.settings())
}

// PUT /api/settings/keys
func (s *Server) handlePutKey(c echo.Context) error {
	var req keyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid json")
	}
	name, ok := config.ParseKeyName(req.Name)
	if !ok {
		return badRequest("unknown key name")
	}
	if strings.TrimSpace(req.Value) == "" {
		return badRequest("key value is required")
	}
	if err := s.Config.SetKey(name, req.Value); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	log.Info("api key saved", "key", name)
	return c.JSON(http.StatusOK, s.settings())
}

// DELETE /api/settings/keys/:name
func (s *Server) handleDeleteKey(c echo.Context) error {
	name, ok := config.ParseKeyName(c.Param("name"))
	if !ok {
		return badRequest("unknown key name")
	}
	if err := s.Config.ClearKey(name); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, s.settings())
}

// POST /api/settings/test
//
// Sends a one-line prompt to the text backend, or a one-result trending call
// to YouTube.
func (s *Server) handleTestConnection(c echo.Context) error {
	var req struct {
		Target string `json:"target"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid json")
	}
	ctx := c.Request().Context()
	switch name, _ := config.ParseKeyName(req.Target); name {
	case config.YouTube:
		yt, err := s.Backends.YouTube(ctx)
		if err != nil {
			return httpError(err)
		}
		if _, err := yt.Trending(ctx, "", 1); err != nil {
			return httpError(err)
		}
	case config.Gemini:
		text, err := s.Backends.Text(ctx)
		if err != nil {
			return httpError(err)
		}
		if err := text.Verify(ctx); err != nil {
			return httpError(err)
		}
	default:
		return badRequest("target must be gemini or youtube")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "target": req.Target})
}

// PUT /api/settings/values/:key
func (s *Server) handlePutSetting(c echo.Context) error {
	var req struct {
		Value any `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid json")
	}
	if err := s.Config.SetSetting(c.Param("key"), req.Value); err != nil {
		return badRequest(err.Error())
	}
	return c.JSON(http.StatusOK, s.settings())
}
