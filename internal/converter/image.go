package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// PageEncoder prepares rendered page images for embedding. A MaxWidth of
// zero keeps pages at their rendered size.
type PageEncoder struct {
	MaxWidth int
}

// Encode downscales img to MaxWidth when it is wider, preserving the
// aspect ratio, and returns it as compressed PNG data.
func (e PageEncoder) Encode(img image.Image) ([]byte, error) {
	if e.MaxWidth > 0 && img.Bounds().Dx() > e.MaxWidth {
		img = imaging.Resize(img, e.MaxWidth, 0, imaging.Lanczos)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
