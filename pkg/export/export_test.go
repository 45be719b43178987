package export

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gen2brain/webp"
	"github.com/google/go-cmp/cmp"

	"cutboard/pkg/cut"
	"cutboard/pkg/schema"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFilename(t *testing.T) {
	if got := Filename(cut.Script, 3, PNG); got != "cut_03.png" {
		t.Fatalf("got %q", got)
	}
	if got := Filename(cut.Lyric, 12, WebP); got != "music_cut_12.webp" {
		t.Fatalf("got %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != PNG {
		t.Fatalf("default format: %v %v", f, err)
	}
	if f, err := ParseFormat(" WEBP "); err != nil || f != WebP {
		t.Fatalf("webp: %v %v", f, err)
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatal("expected an error for gif")
	}
}

func TestEncode(t *testing.T) {
	img := &cut.Image{Data: samplePNG(t), MIMEType: "image/png"}

	same, err := Encode(img, PNG)
	if err != nil || !bytes.Equal(same, img.Data) {
		t.Fatalf("png passthrough failed: %v", err)
	}

	data, err := Encode(img, WebP)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not webp: %v", err)
	}
	if decoded.Bounds().Dx() != 4 {
		t.Fatalf("unexpected bounds %v", decoded.Bounds())
	}

	if _, err := Encode(&cut.Image{Data: []byte("nope")}, PNG); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := Encode(nil, PNG); err == nil {
		t.Fatal("expected error for nil image")
	}
}

func TestWriteAllSkipsMissingImages(t *testing.T) {
	dir := t.TempDir()
	data := samplePNG(t)
	cuts := []cut.Cut{
		cut.Cut{Kind: cut.Script, Number: 1}.WithImage(&cut.Image{Data: data, MIMEType: "image/png"}),
		{Kind: cut.Script, Number: 2},
		cut.Cut{Kind: cut.Script, Number: 3}.WithImage(&cut.Image{Data: data, MIMEType: "image/png"}),
	}
	paths, err := WriteAll(dir, cuts, PNG)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "cut_01.png"), filepath.Join(dir, "cut_03.png")}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("paths (-want +got):\n%s", diff)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Fatal(err)
		}
	}
}

func TestStoryboard(t *testing.T) {
	dir := t.TempDir()
	cuts := []cut.Cut{
		cut.Cut{Kind: cut.Lyric, Number: 1, Lyrics: "la la"}.WithPrompt("a stage").WithImage(&cut.Image{Data: samplePNG(t)}),
		cut.Cut{Kind: cut.Lyric, Number: 2, Lyrics: "oh"}.WithImageError(os.ErrDeadlineExceeded),
	}
	path, err := Storyboard(dir, cuts, WebP)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var board schema.Storyboard
	if err := json.Unmarshal(raw, &board); err != nil {
		t.Fatal(err)
	}
	if board.Kind != "lyric" || len(board.Cuts) != 2 {
		t.Fatalf("unexpected board %+v", board)
	}
	if board.Cuts[0].ImageFile != "music_cut_01.webp" || board.Cuts[1].ImageFile != "" {
		t.Fatalf("image files: %+v", board.Cuts)
	}
	if board.Cuts[1].ImageError == nil || board.Cuts[1].ImagePrompt != nil {
		t.Fatalf("error fields not carried: %+v", board.Cuts[1])
	}

	var sch map[string]any
	raw, err = os.ReadFile(filepath.Join(dir, SchemaFile))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, &sch); err != nil {
		t.Fatal(err)
	}
	if _, ok := sch["properties"]; !ok {
		t.Fatalf("schema has no properties: %v", sch)
	}
}
