package server

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"

	"cutboard/pkg/prompt"
	"cutboard/pkg/templates"
)

type templateBody struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

type pathRequest struct {
	Path string `json:"path"`
}

// GET /api/templates
func (s *Server) handleListTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"names":        s.Templates.Names(),
		"placeholders": prompt.Placeholders,
	})
}

// GET /api/templates/:name
func (s *Server) handleGetTemplate(c echo.Context) error {
	name := c.Param("name")
	body, ok := s.Templates.Get(name)
	if !ok {
		return httpError(templates.ErrNotFound)
	}
	return c.JSON(http.StatusOK, templateBody{Name: name, Body: body})
}

// PUT /api/templates/:name
func (s *Server) handlePutTemplate(c echo.Context) error {
	var req templateBody
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid json")
	}
	name := c.Param("name")
	if strings.TrimSpace(req.Body) == "" {
		return badRequest("template body is required")
	}
	if err := s.Templates.Set(name, req.Body); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, templateBody{Name: name, Body: req.Body})
}

// DELETE /api/templates/:name
func (s *Server) handleDeleteTemplate(c echo.Context) error {
	if err := s.Templates.Delete(c.Param("name")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /api/templates/reset
func (s *Server) handleResetTemplates(c echo.Context) error {
	if err := s.Templates.Reset(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"names": s.Templates.Names()})
}

// GET /api/templates/:name/diff
func (s *Server) handleDiffTemplate(c echo.Context) error {
	delta, err := s.Templates.Diff(c.Param("name"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, delta)
}

// POST /api/templates/:name/import
func (s *Server) handleImportTemplate(c echo.Context) error {
	var req pathRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Path) == "" {
		return badRequest("path is required")
	}
	name := c.Param("name")
	if err := s.Templates.Import(name, req.Path); err != nil {
		return fileError(err)
	}
	body, _ := s.Templates.Get(name)
	return c.JSON(http.StatusOK, templateBody{Name: name, Body: body})
}

// POST /api/templates/:name/export
func (s *Server) handleExportTemplate(c echo.Context) error {
	var req pathRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Path) == "" {
		return badRequest("path is required")
	}
	if err := s.Templates.Export(c.Param("name"), req.Path); err != nil {
		return fileError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"path": req.Path})
}

// fileError treats local file problems as client errors.
func fileError(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	he := httpError(err).(*echo.HTTPError)
	if he.Code == http.StatusBadGateway {
		he.Code = http.StatusBadRequest
	}
	return he
}
