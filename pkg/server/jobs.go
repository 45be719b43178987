package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"cutboard/pkg/app"
	"cutboard/pkg/cut"
	"cutboard/pkg/export"
	"cutboard/pkg/inference"
	"cutboard/pkg/pipeline"
	"cutboard/pkg/prompt"
	"cutboard/pkg/queue"
	"cutboard/pkg/utils"
)

type jobRequest struct {
	Kind       cut.Kind          `json:"kind"`
	Input      string            `json:"input"`
	Style      prompt.ImageStyle `json:"style"`
	Music      prompt.MusicStyle `json:"music"`
	Model      string            `json:"model"`
	Aspect     string            `json:"aspect_ratio"`
	SkipImages bool              `json:"skip_images"`
}

type regenerateRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
	Aspect string `json:"aspect_ratio"`
}

type exportRequest struct {
	Dir    string `json:"dir"`
	Format string `json:"format"`
}

type exportResponse struct {
	Dir        string   `json:"dir"`
	Images     []string `json:"images"`
	Storyboard string   `json:"storyboard"`
	Error      string   `json:"error,omitempty"`
}

func (s *Server) newPipeline(kind cut.Kind, text inference.Inferencer, imager inference.ImageGenerator, req jobRequest) *pipeline.Pipeline {
	var p *pipeline.Pipeline
	if kind == cut.Lyric {
		p = pipeline.ForLyrics(text, imager, req.Music)
	} else {
		p = pipeline.ForScript(text, imager, req.Style)
	}
	p.Pacing = s.Pacing
	return p
}

func parseKind(s cut.Kind) (cut.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "", string(cut.Script):
		return cut.Script, nil
	case string(cut.Lyric), "lyrics":
		return cut.Lyric, nil
	}
	return "", badRequest("kind must be script or lyric")
}

// GET /api/jobs
func (s *Server) handleListJobs(c echo.Context) error {
	jobs, err := app.View(c.Request().Context(), s.Loop, func(st *app.State) []*app.Job {
		out := make([]*app.Job, 0, len(st.Jobs))
		for _, id := range st.JobIDs() {
			j, _ := st.Job(id)
			out = append(out, j)
		}
		return out
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, jobs)
}

// POST /api/jobs
//
// Queues a storyboard (script) or music video (lyric) batch and answers 202
// with the job id.
func (s *Server) handlePostJob(c echo.Context) error {
	var req jobRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid json")
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Input) == "" {
		return httpError(pipeline.ErrEmptyInput)
	}
	model := s.ImageModel
	if req.Model != "" {
		if model, err = inference.ParseImageModel(req.Model); err != nil {
			return badRequest(err.Error())
		}
	}
	aspect, err := inference.ParseAspectRatio(req.Aspect)
	if err != nil {
		return badRequest(err.Error())
	}

	ctx := c.Request().Context()
	text, err := s.Backends.Text(ctx)
	if err != nil {
		return httpError(err)
	}
	var imager inference.ImageGenerator
	if !req.SkipImages {
		if imager, err = s.Backends.Images(ctx); err != nil {
			return httpError(err)
		}
	}

	id, now := ksuid.New().String(), time.Now()
	job := &app.Job{
		ID:      id,
		Kind:    kind,
		Status:  app.JobQueued,
		Cuts:    []cut.Cut{},
		Model:   model,
		Aspect:  aspect,
		Created: now,
		Updated: now,
	}
	err = app.Update(ctx, s.Loop, func(st *app.State) {
		st.Jobs[id] = job
		if kind == cut.Script {
			st.Script = req.Input
		}
	})
	if err != nil {
		return httpError(err)
	}

	batch := &queue.Batch{
		ID:       id,
		Pipeline: s.newPipeline(kind, text, imager, req),
		Request:  pipeline.Request{Input: req.Input, Model: model, Aspect: aspect, SkipImages: req.SkipImages},
		Started:  s.jobStarted,
		Progress: func(p pipeline.Progress) { s.jobProgress(id, p) },
		Done:     s.jobDone,
	}
	if _, err := s.Queue.Add(batch); err != nil {
		_ = app.Update(ctx, s.Loop, func(st *app.State) { delete(st.Jobs, id) })
		return httpError(err)
	}
	log.Info("job queued", "id", id, "kind", kind, "model", model, "aspect", aspect)
	return c.JSON(http.StatusAccepted, map[string]any{"id": id, "status": app.JobQueued})
}

func (s *Server) post(msg func(*app.State)) {
	if err := s.Loop.Post(msg); err != nil {
		log.Warn("state update dropped", "error", err)
	}
}

func (s *Server) jobStarted(id string) {
	s.post(func(st *app.State) {
		if j, ok := st.Jobs[id]; ok {
			j.Status = app.JobRunning
			j.Updated = time.Now()
		}
	})
}

func (s *Server) jobProgress(id string, p pipeline.Progress) {
	s.post(func(st *app.State) {
		if j, ok := st.Jobs[id]; ok {
			j.Progress = p
			j.Updated = time.Now()
		}
	})
}

func (s *Server) jobDone(id string, cuts []cut.Cut, err error) {
	cuts = cut.CloneAll(cuts)
	s.post(func(st *app.State) {
		j, ok := st.Jobs[id]
		if !ok {
			return
		}
		j.Cuts = nonNil(cuts)
		j.Status = app.JobDone
		if err != nil {
			j.Status = app.JobFailed
			j.Error = err.Error()
		}
		j.Updated = time.Now()
		if j.Kind == cut.Lyric {
			st.LyricCuts = cut.CloneAll(j.Cuts)
		} else {
			st.ScriptCuts = cut.CloneAll(j.Cuts)
		}
	})
}

func (s *Server) job(ctx context.Context, id string) (*app.Job, error) {
	type found struct {
		job *app.Job
		ok  bool
	}
	f, err := app.View(ctx, s.Loop, func(st *app.State) found {
		j, ok := st.Job(id)
		return found{j, ok}
	})
	if err != nil {
		return nil, httpError(err)
	}
	if !f.ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "job not found")
	}
	return f.job, nil
}

// cutIndex resolves the 1-based :n path parameter against job.
func cutIndex(c echo.Context, job *app.Job) (int, error) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		return 0, badRequest("cut number must be an integer")
	}
	if n < 1 || n > len(job.Cuts) {
		return 0, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("job has no cut %d", n))
	}
	return n - 1, nil
}

// GET /api/jobs/:id
func (s *Server) handleGetJob(c echo.Context) error {
	job, err := s.job(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

// GET /api/jobs/:id/events
//
// Streams "progress" events while the job runs and one "done" event with the
// finished job.
func (s *Server) handleJobEvents(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if _, err := s.job(ctx, id); err != nil {
		return err
	}
	sse, err := utils.NewSSEWriter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer sse.Close()

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()
	var last time.Time
	for {
		job, err := s.job(ctx, id)
		if err != nil {
			_ = sse.Event("error", utils.ErrJSON(err.Error()))
			return nil
		}
		if !job.Updated.Equal(last) {
			last = job.Updated
			if err := sse.Event("progress", map[string]any{"status": job.Status, "progress": job.Progress}); err != nil {
				return nil
			}
		}
		if job.Finished() {
			_ = sse.Event("done", job)
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-s.Ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// POST /api/jobs/:id/cuts/:n/regenerate
func (s *Server) handleRegenerate(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	job, err := s.job(ctx, id)
	if err != nil {
		return err
	}
	if !job.Finished() {
		return echo.NewHTTPError(http.StatusConflict, "job is still running")
	}
	i, err := cutIndex(c, job)
	if err != nil {
		return err
	}
	var req regenerateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid json")
	}
	model, aspect := job.Model, job.Aspect
	if req.Model != "" {
		if model, err = inference.ParseImageModel(req.Model); err != nil {
			return badRequest(err.Error())
		}
	}
	if req.Aspect != "" {
		if aspect, err = inference.ParseAspectRatio(req.Aspect); err != nil {
			return badRequest(err.Error())
		}
	}
	imager, err := s.Backends.Images(ctx)
	if err != nil {
		return httpError(err)
	}

	p := &pipeline.Pipeline{Kind: job.Kind, Imager: imager}
	future := app.Go(ctx, s.Loop, func(ctx context.Context) (cut.Cut, error) {
		return p.Regenerate(ctx, job.Cuts[i], req.Prompt, model, aspect), nil
	}, func(st *app.State, updated cut.Cut, _ error) {
		st.SetCut(id, i, updated)
	})
	updated, err := future.Wait(ctx)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

// GET /api/jobs/:id/cuts/:n/image?format=png|webp
func (s *Server) handleCutImage(c echo.Context) error {
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return httpError(err)
	}
	job, err := s.job(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	i, err := cutIndex(c, job)
	if err != nil {
		return err
	}
	ct := job.Cuts[i]
	if ct.Image == nil {
		return echo.NewHTTPError(http.StatusNotFound, "cut has no image")
	}
	data, err := export.Encode(ct.Image, format)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("inline; filename=%q", export.Filename(ct.Kind, ct.Number, format)))
	return c.Blob(http.StatusOK, format.ContentType(), data)
}

// POST /api/jobs/:id/export
func (s *Server) handleExportJob(c echo.Context) error {
	var req exportRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid json")
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return httpError(err)
	}
	id := c.Param("id")
	job, err := s.job(c.Request().Context(), id)
	if err != nil {
		return err
	}
	dir := strings.TrimSpace(req.Dir)
	if dir == "" {
		dir = filepath.Join(s.ExportDir, utils.SanitizeFilename(id))
	}

	res := exportResponse{Dir: dir}
	res.Images, err = export.WriteAll(dir, job.Cuts, format)
	if err != nil {
		res.Error = err.Error()
	}
	if res.Images == nil {
		res.Images = []string{}
	}
	if res.Storyboard, err = export.Storyboard(dir, job.Cuts, format); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}
