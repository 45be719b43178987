package cut

// Kind tells which extraction strategy produced a cut.
type Kind string

const (
	Script Kind = "script"
	Lyric  Kind = "lyric"
)

// Image is a generated picture as returned by the image backend.
type Image struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
}

// Cut is one storyboard segment. Parsed fields never change after extraction;
// the prompt and image fields are filled by later stages through the With*
// helpers, which return a modified copy.
type Cut struct {
	Kind        Kind   `json:"kind"`
	Number      int    `json:"cut_number"`
	TimeRange   string `json:"time_range,omitempty"`
	Scene       string `json:"scene_description,omitempty"`
	Narration   string `json:"narration,omitempty"`
	Music       string `json:"music,omitempty"`
	Lyrics      string `json:"lyrics,omitempty"`
	FullContent string `json:"full_content,omitempty"`

	ImagePrompt *string `json:"image_prompt"`
	PromptError *string `json:"prompt_error"`
	Image       *Image  `json:"image,omitempty"`
	ImageError  *string `json:"image_error"`
}

func (c Cut) WithPrompt(prompt string) Cut {
	c.ImagePrompt = &prompt
	c.PromptError = nil
	return c
}

func (c Cut) WithPromptError(err error) Cut {
	msg := err.Error()
	c.PromptError = &msg
	return c
}

func (c Cut) WithImage(img *Image) Cut {
	c.Image = img
	c.ImageError = nil
	return c
}

func (c Cut) WithImageError(err error) Cut {
	msg := err.Error()
	c.Image = nil
	c.ImageError = &msg
	return c
}

// Prompt returns the image prompt or "" when none was generated.
func (c Cut) Prompt() string {
	if c.ImagePrompt == nil {
		return ""
	}
	return *c.ImagePrompt
}

// Caption is the short human-facing text for a cut.
func (c Cut) Caption() string {
	if c.Kind == Lyric {
		return c.Lyrics
	}
	if c.Scene != "" {
		return c.Scene
	}
	return c.FullContent
}

// Clone copies the cut including its pointer fields. Image bytes are shared;
// they are never written after generation.
func (c Cut) Clone() Cut {
	c.ImagePrompt = cloneString(c.ImagePrompt)
	c.PromptError = cloneString(c.PromptError)
	c.ImageError = cloneString(c.ImageError)
	if c.Image != nil {
		img := *c.Image
		c.Image = &img
	}
	return c
}

// CloneAll clones every cut in cuts.
func CloneAll(cuts []Cut) []Cut {
	if cuts == nil {
		return nil
	}
	out := make([]Cut, len(cuts))
	for i, c := range cuts {
		out[i] = c.Clone()
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
