package schema

import (
	"time"

	"github.com/invopop/jsonschema"
)

type Storyboard struct {
	Kind    string       `json:"kind" jsonschema:"enum=script,enum=lyric" jsonschema_description:"Which extractor produced the cuts"`
	Created time.Time    `json:"created" jsonschema_description:"When the storyboard was exported"`
	Cuts    []Storyframe `json:"cuts" jsonschema_description:"Cuts in playback order"`
}

type Storyframe struct {
	Number      int     `json:"cut_number" jsonschema_description:"Cut number as written in the script, or the lyric segment index"`
	TimeRange   string  `json:"time_range,omitempty" jsonschema_description:"Time range label such as 0-5s"`
	Scene       string  `json:"scene_description,omitempty" jsonschema_description:"What the viewer sees"`
	Narration   string  `json:"narration,omitempty" jsonschema_description:"Voice-over text"`
	Music       string  `json:"music,omitempty" jsonschema_description:"Background music or sound effect notes"`
	Lyrics      string  `json:"lyrics,omitempty" jsonschema_description:"Lyric lines for music-video cuts"`
	ImagePrompt *string `json:"image_prompt" jsonschema_description:"English image prompt, null when prompt generation failed"`
	PromptError *string `json:"prompt_error" jsonschema_description:"Prompt generation failure, null on success"`
	ImageError  *string `json:"image_error" jsonschema_description:"Image generation failure, null on success"`
	ImageFile   string  `json:"image_file,omitempty" jsonschema_description:"Exported image file name relative to the storyboard"`
}

func generateSchema[T any]() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

var StoryboardSchema = generateSchema[Storyboard]()
