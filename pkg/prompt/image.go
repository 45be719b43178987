package prompt

import (
	"cmp"
	"fmt"
	"strings"

	"cutboard/pkg/cut"
)

// NoTextConstraint keeps garbled AI-rendered lettering out of the images.
const NoTextConstraint = "CRITICAL: The image must contain NO TEXT, NO LETTERS, NO WORDS, NO CAPTIONS, NO SUBTITLES, NO WATERMARKS, NO WRITING of any kind. This is a pure visual image without any textual elements."

// ImageStyle is the visual direction applied to every cut of a batch.
type ImageStyle struct {
	Style    string `json:"style"`
	Mood     string `json:"mood"`
	Color    string `json:"color"`
	Lighting string `json:"lighting"`
	Camera   string `json:"camera"`
}

// DefaultImageStyle mirrors the initial picker selection.
var DefaultImageStyle = ImageStyle{
	Style:    "Animation",
	Mood:     "Cinematic",
	Color:    "Vibrant & Colorful",
	Lighting: "Natural Sunlight",
	Camera:   "Wide Angle",
}

func (s ImageStyle) withDefaults() ImageStyle {
	s.Style = cmp.Or(s.Style, DefaultImageStyle.Style)
	s.Mood = cmp.Or(s.Mood, DefaultImageStyle.Mood)
	s.Color = cmp.Or(s.Color, DefaultImageStyle.Color)
	s.Lighting = cmp.Or(s.Lighting, DefaultImageStyle.Lighting)
	s.Camera = cmp.Or(s.Camera, DefaultImageStyle.Camera)
	return s
}

// MusicStyle adds the song information used for lyric cuts.
type MusicStyle struct {
	ImageStyle
	SongTitle     string `json:"song_title"`
	VisualConcept string `json:"visual_concept"`
	Genre         string `json:"genre"`
	Tempo         string `json:"tempo"`
	MusicMood     string `json:"music_mood"`
}

func (s MusicStyle) withDefaults() MusicStyle {
	s.ImageStyle = s.ImageStyle.withDefaults()
	s.Genre = cmp.Or(s.Genre, "Pop")
	s.Tempo = cmp.Or(s.Tempo, "Moderate")
	s.MusicMood = cmp.Or(s.MusicMood, "Euphoric/Uplifting")
	return s
}

const imagePromptIntro = "You are an expert image prompt engineer for AI image generation.\n"

const imagePromptOutput = `[Output Format]
Return ONLY the image generation prompt, nothing else. No quotes, no labels, just the prompt text.`

// BuildCutImage composes the request that asks the text model for an image
// prompt describing a script cut.
func BuildCutImage(c cut.Cut, style ImageStyle) string {
	style = style.withDefaults()

	var b strings.Builder
	b.WriteString(imagePromptIntro)
	b.WriteString("Based on the following video script scene description, create a detailed image generation prompt in English.\n\n")

	b.WriteString("[Scene Information]\n")
	fmt.Fprintf(&b, "Scene Description: %s\n", c.Scene)
	fmt.Fprintf(&b, "Narration: %s\n", c.Narration)
	fmt.Fprintf(&b, "Time: %s\n\n", c.TimeRange)

	writeStyleBlock(&b, "[Style Requirements]", style,
		fmt.Sprintf("The overall video uses %s shots as the primary camera style. Consider this when composing the scene, but you may vary slightly based on what works best for each specific scene.", style.Camera))

	writeConstraints(&b,
		"Include character descriptions if people are mentioned, and describe the background and environment in detail",
		"Apply the specified style, mood, color, and lighting consistently",
	)
	b.WriteString(imagePromptOutput)
	return b.String()
}

// BuildLyricImage composes the request for a music-video still of one lyric
// line.
func BuildLyricImage(c cut.Cut, style MusicStyle) string {
	style = style.withDefaults()

	var b strings.Builder
	b.WriteString(imagePromptIntro)
	b.WriteString("Create a detailed image generation prompt for a music video visual based on the following lyrics and music information.\n\n")

	b.WriteString("[Lyrics Line]\n")
	b.WriteString(c.Lyrics)
	b.WriteString("\n\n")

	b.WriteString("[Music Information]\n")
	fmt.Fprintf(&b, "- Song Title: %s\n", cmp.Or(style.SongTitle, "Not specified"))
	fmt.Fprintf(&b, "- Genre: %s\n", style.Genre)
	fmt.Fprintf(&b, "- Tempo: %s\n", TempoKeywords.Resolve(style.Tempo))
	fmt.Fprintf(&b, "- Mood: %s\n", MusicMoodKeywords.Resolve(style.MusicMood))
	fmt.Fprintf(&b, "- Visual Concept/Theme: %s\n\n", cmp.Or(style.VisualConcept, "Create appropriate visuals based on the lyrics"))

	writeStyleBlock(&b, "[Visual Style Requirements]", style.ImageStyle, style.Camera)

	writeConstraints(&b,
		"Create a vivid visual scene that represents the emotion and meaning of the lyrics, in the music's mood, tempo, and genre",
		"If a visual concept is provided, integrate it with the meaning of the lyrics",
	)
	b.WriteString(imagePromptOutput)
	return b.String()
}

// LyricFallback is a keyword prompt built without the text model, used when
// prompt generation for a lyric line fails.
func LyricFallback(c cut.Cut, style MusicStyle) string {
	style = style.withDefaults()
	return fmt.Sprintf("%s, %s, %s, %s, %s lighting, %s shot",
		StyleKeywords.Resolve(style.Style),
		c.Lyrics,
		MusicMoodKeywords.Resolve(style.MusicMood),
		ColorKeywords.Resolve(style.Color),
		style.Lighting,
		style.Camera,
	)
}

func writeStyleBlock(b *strings.Builder, title string, style ImageStyle, camera string) {
	b.WriteString(title)
	b.WriteString("\n")
	fmt.Fprintf(b, "- Visual Style: %s\n", StyleKeywords.Resolve(style.Style))
	fmt.Fprintf(b, "- Mood/Atmosphere: %s\n", style.Mood)
	fmt.Fprintf(b, "- Color Palette: %s\n", ColorKeywords.Resolve(style.Color))
	fmt.Fprintf(b, "- Lighting: %s\n", style.Lighting)
	fmt.Fprintf(b, "- Camera: %s\n\n", camera)
}

// writeConstraints writes the seven numbered output requirements. The two
// content rules vary per segment kind; the rest are fixed.
func writeConstraints(b *strings.Builder, content, consistency string) {
	rules := []string{
		"Write the prompt entirely in English",
		content,
		consistency,
		"Be specific about composition, colors, lighting, and atmosphere",
		"Keep the prompt concise but comprehensive (2-4 sentences)",
		"Do NOT include any explanations, just output the image prompt directly",
		NoTextConstraint,
	}
	b.WriteString("[Output Requirements]\n")
	for i, r := range rules {
		fmt.Fprintf(b, "%d. %s\n", i+1, r)
	}
	b.WriteString("\n")
}
