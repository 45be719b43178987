package prompt

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	CutsPerMinute      = 10
	MaxDurationMinutes = 10
)

// ScriptRequest holds the user's choices for a script generation request.
type ScriptRequest struct {
	Topic          string `json:"topic"`
	Language       string `json:"language"`
	Format         string `json:"format_type"`
	Duration       int    `json:"duration"`
	TargetAudience string `json:"target_audience"`
}

// TotalCuts is the number of cuts requested for a video of the given length.
func TotalCuts(durationMinutes int) int {
	return durationMinutes * CutsPerMinute
}

// ValidationError reports a missing or out-of-range user input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TemplateError reports a malformed prompt template.
type TemplateError struct {
	Name   string // offending placeholder, empty for an unterminated brace
	Offset int
}

func (e *TemplateError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("template: unterminated placeholder at offset %d", e.Offset)
	}
	return fmt.Sprintf("template: unknown placeholder {%s} at offset %d", e.Name, e.Offset)
}

// Placeholders are the names a template may reference.
var Placeholders = []string{"topic", "language", "format_type", "duration", "total_cuts", "target_audience"}

func (r ScriptRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return &ValidationError{Field: "topic", Reason: "required"}
	}
	if r.Duration < 1 || r.Duration > MaxDurationMinutes {
		return &ValidationError{Field: "duration", Reason: fmt.Sprintf("must be between 1 and %d minutes", MaxDurationMinutes)}
	}
	return nil
}

func (r ScriptRequest) withDefaults() ScriptRequest {
	if strings.TrimSpace(r.Language) == "" {
		r.Language = "English"
	}
	if strings.TrimSpace(r.Format) == "" {
		r.Format = "long-form"
	}
	if strings.TrimSpace(r.TargetAudience) == "" {
		r.TargetAudience = "20-30s"
	}
	return r
}

func (r ScriptRequest) values() map[string]string {
	return map[string]string{
		"topic":           r.Topic,
		"language":        r.Language,
		"format_type":     r.Format,
		"duration":        strconv.Itoa(r.Duration),
		"total_cuts":      strconv.Itoa(TotalCuts(r.Duration)),
		"target_audience": r.TargetAudience,
	}
}

// BuildScript produces the script-generation request for req. A non-empty
// template is filled by placeholder substitution; otherwise the built-in
// prompt with format-specific guidance is used.
func BuildScript(req ScriptRequest, template string) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	req = req.withDefaults()
	if strings.TrimSpace(template) != "" {
		return Fill(template, req)
	}
	return builtinScript(req), nil
}

// Fill substitutes the six known placeholders in template. "{{" and "}}"
// produce literal braces. Any other {name} is a *TemplateError.
func Fill(template string, req ScriptRequest) (string, error) {
	vals := req.values()
	var b strings.Builder
	b.Grow(len(template) + 64)
	for i := 0; i < len(template); i++ {
		ch := template[i]
		switch {
		case ch == '{' && i+1 < len(template) && template[i+1] == '{':
			b.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(template) && template[i+1] == '}':
			b.WriteByte('}')
			i++
		case ch == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", &TemplateError{Offset: i}
			}
			name := strings.TrimSpace(template[i+1 : i+1+end])
			v, ok := vals[name]
			if !ok {
				return "", &TemplateError{Name: name, Offset: i}
			}
			b.WriteString(v)
			i += end + 1
		default:
			b.WriteByte(ch)
		}
	}
	return b.String(), nil
}

// CheckTemplate reports whether template only uses known placeholders.
func CheckTemplate(template string) error {
	_, err := Fill(template, ScriptRequest{Duration: 1})
	return err
}

// IsShortForm reports whether format names the short-form video format.
func IsShortForm(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "숏폼", "short", "shorts", "short-form", "shortform":
		return true
	}
	return false
}

// IsKorean reports whether language asks for a Korean script.
func IsKorean(language string) bool {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "한국어", "korean", "ko", "ko-kr":
		return true
	}
	return false
}

// SectionLabels are the bracketed labels a cut uses in a given language.
type SectionLabels struct {
	Scene, Narration, Music string
}

var (
	EnglishLabels = SectionLabels{Scene: "Scene Description", Narration: "Narration", Music: "Music/SFX"}
	KoreanLabels  = SectionLabels{Scene: "장면 설명", Narration: "대사/내레이션", Music: "음악/효과음"}
)

func labelsFor(language string) SectionLabels {
	if IsKorean(language) {
		return KoreanLabels
	}
	return EnglishLabels
}

const shortFormGuide = `[Short-form characteristics]
- The first 1-2 seconds matter most: open with an immediate hook
- Fast pacing and strong impact
- Short, punchy sentences
- Emphasize visual elements
- A clear call to action
- High energy and dynamic throughout`

const longFormGuide = `[Long-form characteristics]
- Start with a natural introduction
- Give enough explanation and examples
- Include storytelling elements
- Talk with the viewer (questions, empathy)
- Develop the content in depth
- Use pauses and emphasis where they help`

func builtinScript(req ScriptRequest) string {
	total := TotalCuts(req.Duration)
	guide := longFormGuide
	if IsShortForm(req.Format) {
		guide = shortFormGuide
	}
	l := labelsFor(req.Language)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional YouTube video script writer.\n")
	fmt.Fprintf(&b, "Write a cut-by-cut storyboard script in %s that meets the following conditions.\n\n", req.Language)
	fmt.Fprintf(&b, "[Basic information]\n")
	fmt.Fprintf(&b, "- Topic: %s\n", req.Topic)
	fmt.Fprintf(&b, "- Language: %s\n", req.Language)
	fmt.Fprintf(&b, "- Format: %s\n", req.Format)
	fmt.Fprintf(&b, "- Total video length: %d minutes\n", req.Duration)
	fmt.Fprintf(&b, "- Total number of cuts: %d (%d cuts per minute)\n", total, CutsPerMinute)
	fmt.Fprintf(&b, "- Length of each cut: 6-8 seconds\n")
	fmt.Fprintf(&b, "- Target audience: %s\n\n", req.TargetAudience)
	fmt.Fprintf(&b, "%s\n\n", guide)
	fmt.Fprintf(&b, "[Script structure - cut storyboard format]\n")
	fmt.Fprintf(&b, "Each cut lasts 6-8 seconds. Follow this format exactly:\n\n")
	fmt.Fprintf(&b, "=== CUT 1 (0:00-0:08) ===\n")
	fmt.Fprintf(&b, "[%s]\nA concrete description of the visuals shown on screen\n\n", l.Scene)
	fmt.Fprintf(&b, "[%s]\nWhat is actually spoken (an amount that can be said naturally within 6-8 seconds)\n\n", l.Narration)
	fmt.Fprintf(&b, "[%s]\nBackground music or sound effect suggestions (e.g. upbeat background music, transition whoosh)\n\n", l.Music)
	fmt.Fprintf(&b, "---\n\n")
	fmt.Fprintf(&b, "[Cut composition guidelines]\n")
	fmt.Fprintf(&b, "%s", cutGuidelines(total))
	fmt.Fprintf(&b, "\n[Writing principles]\n")
	fmt.Fprintf(&b, "1. The lines of each cut must be speakable naturally within 6-8 seconds\n")
	fmt.Fprintf(&b, "2. Scene descriptions are concrete and visual\n")
	fmt.Fprintf(&b, "3. Cuts connect and flow naturally\n")
	fmt.Fprintf(&b, "4. Keep the viewer interested until the end\n")
	fmt.Fprintf(&b, "5. Time stamps are exact (e.g. 0:00-0:08, 0:08-0:16)\n\n")
	fmt.Fprintf(&b, "Now write the script with exactly %d cuts following the format above.\n", total)
	fmt.Fprintf(&b, "Return only the script.")
	return b.String()
}

func cutGuidelines(total int) string {
	if total < 5 {
		return fmt.Sprintf("- CUT 1: a strong opening hook\n- CUT 2-%d: main content and a closing call to action (like, subscribe)\n", total)
	}
	return fmt.Sprintf("- CUT 1-2: a strong opening hook that grabs attention\n"+
		"- CUT 3-%d: main content, developing the topic logically\n"+
		"- CUT %d-%d: wrap-up and call to action (like, subscribe)\n", total-2, total-1, total)
}

// DefaultTemplate is the editable template stored under the name "default".
const DefaultTemplate = `You are a professional YouTube video script writer.
Write a cut-by-cut storyboard script that meets the following conditions.

[Basic information]
- Topic: {topic}
- Language: {language}
- Format: {format_type}
- Total video length: {duration} minutes
- Total number of cuts: {total_cuts} (10 cuts per minute)
- Length of each cut: 6-8 seconds
- Target audience: {target_audience}

[Script structure - cut storyboard format]
Each cut lasts 6-8 seconds. Follow this format exactly:

=== CUT 1 (0:00-0:08) ===
[Scene Description]
A concrete description of the visuals shown on screen

[Narration]
What is actually spoken (an amount that can be said naturally within 6-8 seconds)

[Music/SFX]
Background music or sound effect suggestions

---

[Writing principles]
1. The lines of each cut must be speakable naturally within 6-8 seconds
2. Scene descriptions are concrete and visual
3. Cuts connect and flow naturally
4. Keep the viewer interested until the end

Now write the script with exactly {total_cuts} cuts following the format above.
Return only the finished script.`
