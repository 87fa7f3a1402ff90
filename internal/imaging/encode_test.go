package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestEncodeDecodePNGRoundTrip(t *testing.T) {
	img := solidImage(16, 16, color.RGBA{R: 200, G: 10, B: 10, A: 255})

	data, err := Encode(img, Format{MimeType: MimePNG})
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())
	assert.Equal(t, 16, decoded.Bounds().Dy())

	r, g, b, _ := decoded.At(8, 8).RGBA()
	assert.Equal(t, uint32(200), r>>8)
	assert.Equal(t, uint32(10), g>>8)
	assert.Equal(t, uint32(10), b>>8)
}

func TestEncodePalettedPNG(t *testing.T) {
	// gradient with more colors than the palette allows
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}

	data, err := Encode(img, Format{MimeType: MimePNG, Colors: 16})
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	paletted, ok := decoded.(*image.Paletted)
	require.True(t, ok, "paletted output expected")
	assert.LessOrEqual(t, len(paletted.Palette), 16)
}

func TestEncodeJPEG(t *testing.T) {
	img := solidImage(16, 16, color.RGBA{R: 0, G: 128, B: 255, A: 255})

	data, err := Encode(img, Format{MimeType: MimeJPEG, Quality: 80})
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())
}

func TestEncodeUnsupportedMime(t *testing.T) {
	img := solidImage(4, 4, color.RGBA{A: 255})

	_, err := Encode(img, Format{MimeType: "image/gif"})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	assert.Error(t, err)
}
