package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/ericpauley/go-quantize/quantize"
)

// Decode parses raster bytes into an image. The registered stdlib
// codecs (png, jpeg) cover every format the proxy emits or requests.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode raster: %w", err)
	}
	return img, nil
}

// Encode serializes an image in the resolved output format. Paletted
// PNG output quantizes to the configured color count first.
func Encode(img image.Image, f Format) ([]byte, error) {
	var buf bytes.Buffer

	switch f.MimeType {
	case MimePNG:
		if f.Colors > 0 {
			img = quantizeImage(img, f.Colors)
		}
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case MimeJPEG:
		quality := f.Quality
		if quality == 0 {
			quality = 90
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.MimeType)
	}

	return buf.Bytes(), nil
}

func quantizeImage(img image.Image, colors int) *image.Paletted {
	q := quantize.MedianCutQuantizer{}
	palette := q.Quantize(make(color.Palette, 0, colors), img)

	paletted := image.NewPaletted(img.Bounds(), palette)
	draw.FloydSteinberg.Draw(paletted, img.Bounds(), img, img.Bounds().Min)
	return paletted
}
