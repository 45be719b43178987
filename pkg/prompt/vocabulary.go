package prompt

import "slices"

// Vocabulary maps human-facing option labels to the keyword phrases sent to
// the text model.
type Vocabulary map[string]string

// Resolve returns the keyword phrase for label, or label itself when the
// vocabulary does not know it.
func (v Vocabulary) Resolve(label string) string {
	if kw, ok := v[label]; ok {
		return kw
	}
	return label
}

var StyleKeywords = Vocabulary{
	"Realistic Photography": "photorealistic, live action photography, high detail realistic image",
	"Animation":             "anime style, 2D animation, illustrated",
	"3D Pixar Style":        "3D rendered, Pixar animation style, CGI, stylized 3D characters",
	"Cyberpunk/Futuristic":  "cyberpunk aesthetic, futuristic, neon-lit, sci-fi",
	"Cinematic Movie Frame": "cinematic movie still, film grain, widescreen cinematic composition",
	"Oil Painting":          "oil painting style, artistic brush strokes, classical painting aesthetic",
}

var ColorKeywords = Vocabulary{
	"Vibrant & Colorful": "vibrant colors, saturated, colorful",
	"Monochrome/B&W":     "black and white, monochrome, grayscale",
	"Pastel/Soft":        "pastel colors, soft tones, gentle hues",
	"Warm Earthy Tones":  "warm earthy tones, brown, orange, autumn colors",
	"Cool Blue/Teal":     "cool blue tones, teal, cyan color palette",
	"High Contrast/Bold": "high contrast, bold colors, dramatic color contrast",
	"Muted/Desaturated":  "muted colors, desaturated, subdued palette",
	"Vintage/Sepia":      "vintage sepia tone, retro color grading, nostalgic warm tint",
}

var TempoKeywords = Vocabulary{
	"Slow":     "slow, gentle movement, peaceful pace",
	"Moderate": "moderate tempo, balanced rhythm",
	"Fast":     "fast paced, dynamic movement, energetic",
	"Intense":  "intense, powerful, dramatic action",
}

var MusicMoodKeywords = Vocabulary{
	"Euphoric/Uplifting":    "euphoric, uplifting, joyful atmosphere",
	"Melancholic/Emotional": "melancholic, emotional, touching, bittersweet",
	"Dreamy/Ethereal":       "dreamy, ethereal, floating, surreal",
	"Dark/Intense":          "dark, intense, dramatic, powerful",
	"Calm/Peaceful":         "calm, peaceful, serene, tranquil",
	"Romantic/Sentimental":  "romantic, sentimental, warm, intimate",
	"Mysterious/Enigmatic":  "mysterious, enigmatic, intriguing, atmospheric",
}

// Option lists without keyword tables; the labels are sent as written.
var (
	Moods     = []string{"Cinematic", "Dreamy/Soft", "Dark/Moody", "Bright/Cheerful", "Dramatic", "Peaceful/Calm"}
	Lightings = []string{"Natural Sunlight", "Golden Hour", "Studio Lighting", "Neon/Night City", "Soft Diffused", "Dramatic Shadows"}
	Cameras   = []string{"Wide Angle", "Close-up", "Medium Shot", "Low Angle", "Bird's Eye View", "Over the Shoulder"}
	Genres    = []string{"Pop", "K-Pop", "Jazz/Blues", "Folk", "R&B", "Hip-Hop", "Rock/Alternative", "EDM", "Classical/Orchestral", "Ambient/Chill"}
	Tempos    = []string{"Slow", "Moderate", "Fast", "Intense"}
	Formats   = []string{"long-form", "short-form"}
)

// Options lists every selectable label, for clients that render pickers.
func Options() map[string][]string {
	return map[string][]string{
		"style":      labels(StyleKeywords),
		"color":      labels(ColorKeywords),
		"music_mood": labels(MusicMoodKeywords),
		"tempo":      Tempos,
		"mood":       Moods,
		"lighting":   Lightings,
		"camera":     Cameras,
		"genre":      Genres,
		"format":     Formats,
	}
}

func labels(v Vocabulary) []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
