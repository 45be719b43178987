package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/webp"

	"cutboard/pkg/cut"
	"cutboard/pkg/schema"
	"cutboard/pkg/utils"
)

type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
)

const (
	StoryboardFile = "storyboard.json"
	SchemaFile     = "storyboard.schema.json"
)

var ErrFormat = errors.New("unsupported image format")

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", PNG:
		return PNG, nil
	case WebP:
		return WebP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, s)
}

func (f Format) ContentType() string {
	if f == WebP {
		return "image/webp"
	}
	return "image/png"
}

// Filename is cut_NN or music_cut_NN with the format's extension.
func Filename(kind cut.Kind, n int, f Format) string {
	prefix := "cut"
	if kind == cut.Lyric {
		prefix = "music_cut"
	}
	return fmt.Sprintf("%s_%02d.%s", prefix, n, f)
}

// Encode decodes the backend bytes and re-encodes them in f.
func Encode(img *cut.Image, f Format) ([]byte, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, errors.New("no image data")
	}
	if f == PNG && (img.MIMEType == "image/png" || img.MIMEType == "") {
		if _, err := png.DecodeConfig(bytes.NewReader(img.Data)); err == nil {
			return img.Data, nil
		}
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		decoded, err = webp.Decode(bytes.NewReader(img.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
	}

	buf := new(bytes.Buffer)
	switch f {
	case PNG:
		err = png.Encode(buf, decoded)
	case WebP:
		err = webp.Encode(buf, decoded, webp.Options{Lossless: false, Quality: 100})
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

// WriteAll writes every cut that has an image into dir and returns the paths
// written. Cuts without images are skipped.
func WriteAll(dir string, cuts []cut.Cut, f Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}
	var paths []string
	var errs []error
	for _, c := range cuts {
		if c.Image == nil {
			continue
		}
		data, err := Encode(c.Image, f)
		if err != nil {
			errs = append(errs, fmt.Errorf("cut %d: %w", c.Number, err))
			continue
		}
		path := filepath.Join(dir, Filename(c.Kind, c.Number, f))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("cut %d: %w", c.Number, err))
			continue
		}
		paths = append(paths, path)
	}
	log.Info("exported images", "dir", dir, "written", len(paths), "failed", len(errs))
	return paths, errors.Join(errs...)
}

// Storyboard writes storyboard.json and its JSON schema into dir. Image file
// names are filled for cuts that have an image.
func Storyboard(dir string, cuts []cut.Cut, f Format) (string, error) {
	board := schema.Storyboard{Kind: string(cut.Script), Created: time.Now().UTC(), Cuts: make([]schema.Storyframe, 0, len(cuts))}
	if len(cuts) > 0 {
		board.Kind = string(cuts[0].Kind)
	}
	for _, c := range cuts {
		frame := schema.Storyframe{
			Number:      c.Number,
			TimeRange:   c.TimeRange,
			Scene:       c.Scene,
			Narration:   c.Narration,
			Music:       c.Music,
			Lyrics:      c.Lyrics,
			ImagePrompt: c.ImagePrompt,
			PromptError: c.PromptError,
			ImageError:  c.ImageError,
		}
		if c.Image != nil {
			frame.ImageFile = Filename(c.Kind, c.Number, f)
		}
		board.Cuts = append(board.Cuts, frame)
	}

	path := filepath.Join(dir, StoryboardFile)
	if err := utils.Save(path, board); err != nil {
		return "", err
	}
	if err := utils.Save(filepath.Join(dir, SchemaFile), schema.StoryboardSchema); err != nil {
		return "", err
	}
	return path, nil
}
