package segment

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
)

// contentThreshold is the per-channel 16-bit value below which a pixel
// counts as page content rather than background.
const contentThreshold = 0xF000

// trimMargins crops a PNG to the bounding box of its non-white content,
// expanded by pad pixels on every side. Blank pages and undecodable
// input are returned unchanged.
func trimMargins(data []byte, pad int) []byte {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	box, ok := contentBounds(img)
	if !ok {
		return data
	}

	full := img.Bounds()
	box = image.Rect(box.Min.X-pad, box.Min.Y-pad, box.Max.X+pad, box.Max.Y+pad).Intersect(full)
	if box == full {
		return data
	}

	dst := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Draw(dst, dst.Bounds(), img, box.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return data
	}
	return buf.Bytes()
}

// contentBounds scans for the smallest rectangle containing every pixel
// darker than the background threshold. ok is false for blank images.
func contentBounds(img image.Image) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	found := false

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			if r < contentThreshold || g < contentThreshold || bl < contentThreshold {
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x >= maxX {
					maxX = x + 1
				}
				if y >= maxY {
					maxY = y + 1
				}
				found = true
			}
		}
	}

	if !found {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX, maxY), true
}
