package cut

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headerRX = regexp.MustCompile(`={3,}[ \t]*CUT[ \t]*(\d{1,9})[ \t]*\(([^)\n]+)\)[ \t]*={3,}`)

	// A section ends at the next line-leading bracketed label or separator line.
	labelLineRX     = regexp.MustCompile(`(?m)^[ \t]*\[[^\]\n]+\]`)
	separatorLineRX = regexp.MustCompile(`(?m)^[ \t]*-{3,}[ \t]*$`)

	sceneRX     = sectionRX(`장면\s*설명`, `scene(?:\s+description)?`)
	narrationRX = sectionRX(`대사\s*/\s*내레이션`, `(?:dialogue\s*/\s*)?narration`, `dialogue`)
	musicRX     = sectionRX(`음악\s*/\s*효과음`, `music(?:\s*/\s*(?:sfx|sound\s+effects))?`)
)

func sectionRX(labels ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?mi)^[ \t]*\[\s*(?:` + strings.Join(labels, "|") + `)\s*\][ \t]*\n?`)
}

// Parse splits a cut-storyboard script into cuts. Each cut starts with a
// header such as "=== CUT 3 (0:16-0:24) ===". Text before the first header is
// ignored and a script without headers yields an empty result.
//
// Cut numbers are copied from the headers as written, so gaps and duplicates
// in the source survive.
func Parse(script string) []Cut {
	script = strings.ReplaceAll(script, "\r\n", "\n")
	headers := headerRX.FindAllStringSubmatchIndex(script, -1)
	cuts := make([]Cut, 0, len(headers))
	for i, h := range headers {
		number, err := strconv.Atoi(script[h[2]:h[3]])
		if err != nil {
			continue
		}
		end := len(script)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		body := strings.TrimSpace(script[h[1]:end])
		cuts = append(cuts, Cut{
			Kind:        Script,
			Number:      number,
			TimeRange:   strings.TrimSpace(script[h[4]:h[5]]),
			Scene:       section(body, sceneRX),
			Narration:   section(body, narrationRX),
			Music:       section(body, musicRX),
			FullContent: body,
		})
	}
	return cuts
}

// section returns the trimmed text following the first label matched by rx,
// or "" when the label is absent.
func section(body string, rx *regexp.Regexp) string {
	loc := rx.FindStringIndex(body)
	if loc == nil {
		return ""
	}
	rest := body[loc[1]:]
	stop := len(rest)
	if m := labelLineRX.FindStringIndex(rest); m != nil && m[0] < stop {
		stop = m[0]
	}
	if m := separatorLineRX.FindStringIndex(rest); m != nil && m[0] < stop {
		stop = m[0]
	}
	return strings.TrimSpace(rest[:stop])
}

// SplitLyrics turns every non-empty line of lyrics into a lyric cut numbered
// from 1.
func SplitLyrics(lyrics string) []Cut {
	cuts := make([]Cut, 0)
	for _, line := range strings.Split(lyrics, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cuts = append(cuts, Cut{
			Kind:        Lyric,
			Number:      len(cuts) + 1,
			Lyrics:      line,
			FullContent: line,
		})
	}
	return cuts
}
