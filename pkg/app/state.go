package app

import (
	"maps"
	"slices"
	"time"

	"cutboard/pkg/cut"
	"cutboard/pkg/inference"
	"cutboard/pkg/pipeline"
	"cutboard/pkg/youtube"
)

type Tab string

const (
	TabScript   Tab = "script"
	TabImages   Tab = "images"
	TabLyrics   Tab = "lyrics"
	TabTrends   Tab = "trends"
	TabSettings Tab = "settings"
)

var Tabs = []Tab{TabScript, TabImages, TabLyrics, TabTrends, TabSettings}

func ParseTab(s string) (Tab, bool) {
	t := Tab(s)
	return t, slices.Contains(Tabs, t)
}

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is one storyboard or lyrics batch.
type Job struct {
	ID       string                `json:"id"`
	Kind     cut.Kind              `json:"kind"`
	Status   JobStatus             `json:"status"`
	Progress pipeline.Progress     `json:"progress"`
	Cuts     []cut.Cut             `json:"cuts"`
	Error    string                `json:"error,omitempty"`
	Model    inference.ImageModel  `json:"model"`
	Aspect   inference.AspectRatio `json:"aspect_ratio"`
	Created  time.Time             `json:"created"`
	Updated  time.Time             `json:"updated"`
}

func (j *Job) Finished() bool {
	return j.Status == JobDone || j.Status == JobFailed
}

func (j *Job) clone() *Job {
	c := *j
	c.Cuts = cut.CloneAll(j.Cuts)
	return &c
}

// State is everything the application remembers between requests. It is
// owned by the Loop goroutine and never shared.
type State struct {
	Tab        Tab             `json:"tab"`
	Script     string          `json:"script"`
	ScriptCuts []cut.Cut       `json:"script_cuts"`
	LyricCuts  []cut.Cut       `json:"lyric_cuts"`
	Videos     []youtube.Video `json:"videos"`
	Jobs       map[string]*Job `json:"jobs"`
}

func NewState() *State {
	return &State{Tab: TabScript, Jobs: make(map[string]*Job)}
}

// Snapshot returns a copy that is safe to hand to other goroutines.
func (s *State) Snapshot() State {
	c := *s
	c.ScriptCuts = cut.CloneAll(s.ScriptCuts)
	c.LyricCuts = cut.CloneAll(s.LyricCuts)
	c.Videos = slices.Clone(s.Videos)
	c.Jobs = make(map[string]*Job, len(s.Jobs))
	for id, j := range s.Jobs {
		c.Jobs[id] = j.clone()
	}
	return c
}

// Job returns a copy of the job with the given id.
func (s *State) Job(id string) (*Job, bool) {
	j, ok := s.Jobs[id]
	if !ok {
		return nil, false
	}
	return j.clone(), true
}

// JobIDs lists job ids, newest first.
func (s *State) JobIDs() []string {
	ids := slices.Collect(maps.Keys(s.Jobs))
	slices.SortFunc(ids, func(a, b string) int {
		return s.Jobs[b].Created.Compare(s.Jobs[a].Created)
	})
	return ids
}

// SetCut replaces the cut at index i of a job.
func (s *State) SetCut(id string, i int, c cut.Cut) bool {
	j, ok := s.Jobs[id]
	if !ok || i < 0 || i >= len(j.Cuts) {
		return false
	}
	j.Cuts[i] = c
	j.Updated = time.Now()
	switch j.Kind {
	case cut.Lyric:
		s.LyricCuts = cut.CloneAll(j.Cuts)
	default:
		s.ScriptCuts = cut.CloneAll(j.Cuts)
	}
	return true
}
