package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"cutboard/pkg/app"
	"cutboard/pkg/cut"
	"cutboard/pkg/prompt"
	"cutboard/pkg/templates"
)

type scriptRequest struct {
	prompt.ScriptRequest
	Template string `json:"template"`
}

type scriptPromptResponse struct {
	Prompt   string `json:"prompt"`
	Template string `json:"template"`
	Tokens   int    `json:"tokens"`
}

type scriptResponse struct {
	Script string    `json:"script"`
	Cuts   []cut.Cut `json:"cuts"`
}

func (s *Server) buildScriptPrompt(req scriptRequest) (string, string, error) {
	if err := req.Validate(); err != nil {
		return "", "", err
	}
	name := strings.TrimSpace(req.Template)
	if name == "" {
		name = templates.DefaultName
	}
	body, ok := s.Templates.Get(name)
	if !ok {
		return "", "", templates.ErrNotFound
	}
	text, err := prompt.BuildScript(req.ScriptRequest, body)
	return text, name, err
}

// POST /api/script/prompt
func (s *Server) handleScriptPrompt(c echo.Context) error {
	var req scriptRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid json")
	}
	text, name, err := s.buildScriptPrompt(req)
	if err != nil {
		return httpError(err)
	}
	tokens, err := s.CountTokens(text)
	if err != nil {
		log.Warn("token count unavailable", "error", err)
	}
	return c.JSON(http.StatusOK, scriptPromptResponse{Prompt: text, Template: name, Tokens: tokens})
}

// POST /api/script
//
// Generates a script with the text backend and parses it into cuts. The
// result becomes the current script in the application state.
func (s *Server) handleGenerateScript(c echo.Context) error {
	var req scriptRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid json")
	}
	text, _, err := s.buildScriptPrompt(req)
	if err != nil {
		return httpError(err)
	}
	ctx := c.Request().Context()
	backend, err := s.Backends.Text(ctx)
	if err != nil {
		return httpError(err)
	}

	log.Info("generating script", "topic", req.Topic, "duration", req.Duration, "format", req.Format)
	future := app.Go(ctx, s.Loop, func(ctx context.Context) (scriptResponse, error) {
		script, err := backend.Infer(ctx, text)
		if err != nil {
			return scriptResponse{}, err
		}
		return scriptResponse{Script: script, Cuts: cut.Parse(script)}, nil
	}, func(st *app.State, res scriptResponse, err error) {
		if err != nil {
			return
		}
		st.Script = res.Script
		st.ScriptCuts = cut.CloneAll(res.Cuts)
	})
	res, err := future.Wait(ctx)
	if err != nil {
		return httpError(err)
	}
	res.Cuts = nonNil(res.Cuts)
	return c.JSON(http.StatusOK, res)
}

// POST /api/cuts/parse
func (s *Server) handleParseCuts(c echo.Context) error {
	var req struct {
		Script string `json:"script"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid json")
	}
	if strings.TrimSpace(req.Script) == "" {
		return badRequest("script is required")
	}
	cuts := cut.Parse(req.Script)
	err := app.Update(c.Request().Context(), s.Loop, func(st *app.State) {
		st.Script = req.Script
		st.ScriptCuts = cut.CloneAll(cuts)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, scriptResponse{Script: req.Script, Cuts: nonNil(cuts)})
}

// POST /api/lyrics/parse
func (s *Server) handleParseLyrics(c echo.Context) error {
	var req struct {
		Lyrics string `json:"lyrics"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid json")
	}
	if strings.TrimSpace(req.Lyrics) == "" {
		return badRequest("lyrics are required")
	}
	cuts := cut.SplitLyrics(req.Lyrics)
	if err := app.Update(c.Request().Context(), s.Loop, func(st *app.State) { st.LyricCuts = cut.CloneAll(cuts) }); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"cuts": nonNil(cuts)})
}

func nonNil(cuts []cut.Cut) []cut.Cut {
	if cuts == nil {
		return []cut.Cut{}
	}
	return cuts
}
