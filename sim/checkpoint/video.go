package checkpoint

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/icza/mjpeg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	occupiedColor = color.RGBA{A: 255}
	emptyColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	labelColor    = color.RGBA{R: 200, A: 255}
)

// Video writes one labelled MJPEG frame per snapshot into an AVI file.
type Video struct {
	aw            mjpeg.AviWriter
	width, height int
	scale         int
	frames        int
}

// CreateVideo opens an AVI file for width x height grids drawn scale pixels
// per cell at fps frames per second.
func CreateVideo(path string, width, height, scale, fps int) (*Video, error) {
	if scale < 1 {
		scale = 1
	}
	if fps < 1 {
		fps = 1
	}
	aw, err := mjpeg.New(path, int32(width*scale), int32(height*scale), int32(fps))
	if err != nil {
		return nil, fmt.Errorf("create video %s: %w", path, err)
	}
	return &Video{aw: aw, width: width, height: height, scale: scale}, nil
}

// AddSnapshot renders s and appends it as a frame.
func (v *Video) AddSnapshot(s *Snapshot) error {
	if s.Width != v.width || s.Height != v.height {
		return fmt.Errorf("video frame is %dx%d, want %dx%d", s.Width, s.Height, v.width, v.height)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, RenderFrame(s, v.scale), &jpeg.Options{Quality: 90}); err != nil {
		return fmt.Errorf("encode frame %d: %w", s.Iteration, err)
	}
	if err := v.aw.AddFrame(buf.Bytes()); err != nil {
		return fmt.Errorf("add frame %d: %w", s.Iteration, err)
	}
	v.frames++
	return nil
}

// Frames returns the number of frames written.
func (v *Video) Frames() int {
	return v.frames
}

// Close finalises the AVI index.
func (v *Video) Close() error {
	return v.aw.Close()
}

// RenderFrame draws s with scale x scale pixels per cell and an iteration
// label in the top-left corner.
func RenderFrame(s *Snapshot, scale int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width*scale, s.Height*scale))
	draw.Draw(img, img.Bounds(), &image.Uniform{emptyColor}, image.Point{}, draw.Src)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			if !s.Occupied(x, y) {
				continue
			}
			cell := image.Rect(x*scale, y*scale, (x+1)*scale, (y+1)*scale)
			draw.Draw(img, cell, &image.Uniform{occupiedColor}, image.Point{}, draw.Src)
		}
	}
	addLabel(img, 2, 13, fmt.Sprintf("iter %04d  cells %d", s.Iteration, s.Count()))
	return img
}

func addLabel(img *image.RGBA, x, y int, label string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(label)
}
