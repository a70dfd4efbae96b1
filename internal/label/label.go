// Package label renders printable box labels.
package label

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/erazemk/scantrack/internal/model"
)

// Scale is the integer upscale factor applied to the rendered label so the
// 7x13 bitmap font stays legible when printed.
const Scale = 4

// MaxLineLen is the number of characters kept per label line.
const MaxLineLen = 32

const (
	padding    = 6
	lineHeight = 16
)

// MIME is the content type of rendered labels.
const MIME = "image/png"

// Render draws a label for the box with its barcode, status, start location
// and item count, and returns it PNG-encoded.
func Render(box *model.Box) ([]byte, error) {
	if box == nil {
		return nil, fmt.Errorf("rendering label: no box")
	}

	lines := []string{
		box.Barcode,
		"Status: " + string(box.Status),
		"From: " + box.StartLocation,
		fmt.Sprintf("Items: %d", box.ItemCount()),
	}
	for i, l := range lines {
		lines[i] = truncate(l, MaxLineLen)
	}

	small := drawLines(lines)

	bounds := small.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*Scale, bounds.Dy()*Scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), small, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// drawLines renders text lines in black on white at 1x scale, with a
// one-pixel border and a rule under the first line.
func drawLines(lines []string) *image.RGBA {
	face := basicfont.Face7x13
	width := 0
	for _, l := range lines {
		if w := font.MeasureString(face, l).Ceil(); w > width {
			width = w
		}
	}
	width += 2 * padding
	height := len(lines)*lineHeight + 2*padding

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	for i, l := range lines {
		d.Dot = fixed.P(padding, padding+face.Ascent+i*lineHeight)
		d.DrawString(l)
	}

	rule := padding + lineHeight - 2
	for x := padding; x < width-padding; x++ {
		img.Set(x, rule, color.Black)
	}
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.Black)
		img.Set(x, height-1, color.Black)
	}
	for y := 0; y < height; y++ {
		img.Set(0, y, color.Black)
		img.Set(width-1, y, color.Black)
	}
	return img
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
