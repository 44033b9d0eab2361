package imgcodec

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestDecodeDimensions(t *testing.T) {
	data := encode(t, 100, 50)
	img, err := Decode(data)
	require.NoError(t, err)

	w, h := Dimensions(img)
	assert.EqualValues(t, 100, w)
	assert.EqualValues(t, 50, h)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not a jpeg"))
	assert.Error(t, err)
}

func TestResizeBilinearShrinksToFit(t *testing.T) {
	img, err := Decode(encode(t, 400, 200))
	require.NoError(t, err)

	out, err := Resize(img, 64, 64, KernelBilinear)
	require.NoError(t, err)

	resized, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	b := resized.Bounds()
	assert.LessOrEqual(t, b.Dx(), 64)
	assert.LessOrEqual(t, b.Dy(), 64)
}

func TestResizeCatmullRomShrinksToFit(t *testing.T) {
	img, err := Decode(encode(t, 800, 600))
	require.NoError(t, err)

	out, err := Resize(img, 256, 256, KernelCatmullRom)
	require.NoError(t, err)

	resized, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	b := resized.Bounds()
	assert.LessOrEqual(t, b.Dx(), 256)
	assert.LessOrEqual(t, b.Dy(), 256)
}

func TestResizeNeverUpscales(t *testing.T) {
	img, err := Decode(encode(t, 32, 32))
	require.NoError(t, err)

	out, err := Resize(img, 256, 256, KernelBilinear)
	require.NoError(t, err)

	resized, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	b := resized.Bounds()
	assert.Equal(t, 32, b.Dx())
	assert.Equal(t, 32, b.Dy())
}

func TestFitDimensionsPreservesAspectRatio(t *testing.T) {
	w, h := fitDimensions(1000, 500, 100, 100)
	assert.Equal(t, uint32(100), w)
	assert.Equal(t, uint32(50), h)
}
