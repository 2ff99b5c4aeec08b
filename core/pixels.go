package core

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/devblok/vram/driver"
)

// Pixels transforms a decoded image into the byte arrangement texture
// uploads take by drawing it onto a controlled RGBA canvas. Rows are
// padded out to the requested alignment, so the result feeds straight
// into a Write with the same alignment.
func Pixels(img image.Image, alignment int) ([]byte, error) {
	switch alignment {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("core.Pixels(): %w", driver.ErrAlignment)
	}

	bounds := img.Bounds()
	stride := bounds.Dx() * 4
	if rem := stride % alignment; rem != 0 {
		stride += alignment - rem
	}

	canvas := &image.RGBA{
		Pix:    make([]uint8, stride*bounds.Dy()),
		Stride: stride,
		Rect:   image.Rect(0, 0, bounds.Dx(), bounds.Dy()),
	}
	draw.Draw(canvas, canvas.Rect, img, bounds.Min, draw.Src)
	return canvas.Pix, nil
}
