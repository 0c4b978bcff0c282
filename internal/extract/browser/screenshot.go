package browser

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// defaultMaxImageHeight is the default vision-model image-dimension cap
// (spec §4.4 step 4); screenshots taller than this are downscaled with
// nearest-integer aspect preservation before being sent. Configurable
// per Config.MaxImageHeight.
const defaultMaxImageHeight = 1600

// resizeIfNeeded returns a downsized copy of shot when its height exceeds
// maxHeight, preserving aspect ratio via integer division — matching
// spec §4.4's "nearest-integer aspect preservation" wording exactly
// rather than a floating-point scale factor.
func resizeIfNeeded(shot Screenshot, maxHeight int) (Screenshot, error) {
	if maxHeight <= 0 {
		maxHeight = defaultMaxImageHeight
	}
	if shot.Height <= maxHeight || shot.Height == 0 {
		return shot, nil
	}

	src, err := png.Decode(bytes.NewReader(shot.PNG))
	if err != nil {
		// A screenshot that doesn't decode as PNG (e.g. the stub
		// driver's placeholder bytes) is passed through unresized
		// rather than failing the whole extraction over a cosmetic
		// detail.
		return shot, nil
	}

	newHeight := maxHeight
	newWidth := (shot.Width * newHeight) / shot.Height
	if newWidth <= 0 {
		newWidth = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return shot, err
	}

	return Screenshot{Label: shot.Label, PNG: buf.Bytes(), Width: newWidth, Height: newHeight}, nil
}
