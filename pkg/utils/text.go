package utils

import (
	"unicode"

	"github.com/aryann/difflib"
)

// TokenizeWords splits s into runs of whitespace, word characters and
// punctuation. Joining the result gives back s.
func TokenizeWords(s string) []string {
	var out []string
	var cur []rune
	kind := -1
	for _, r := range s {
		k := runeKind(r)
		if kind != -1 && k != kind && len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
		kind = k
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func runeKind(r rune) int {
	switch {
	case unicode.IsSpace(r):
		return 0
	case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '\'':
		return 1
	}
	return 2
}

type DeltaOp string

const (
	Same    DeltaOp = "same"
	Removed DeltaOp = "removed"
	Added   DeltaOp = "added"
)

type WordDelta struct {
	Op   DeltaOp `json:"op"`
	Text string  `json:"text"`
}

// DiffWords returns a word-level diff from a to b. Consecutive tokens with the
// same operation are merged.
func DiffWords(a, b string) []WordDelta {
	recs := difflib.Diff(TokenizeWords(a), TokenizeWords(b))
	out := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		var op DeltaOp
		switch r.Delta {
		case difflib.Common:
			op = Same
		case difflib.LeftOnly:
			op = Removed
		case difflib.RightOnly:
			op = Added
		}
		if n := len(out); n > 0 && out[n-1].Op == op {
			out[n-1].Text += r.Payload
			continue
		}
		out = append(out, WordDelta{Op: op, Text: r.Payload})
	}
	return out
}
