package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

func pngDataURL(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestDecodeDataURL(t *testing.T) {
	src := solidImage(4, 4, color.NRGBA{R: 200, G: 150, B: 100, A: 255})

	frame, err := DecodeDataURL(pngDataURL(t, src))
	require.NoError(t, err)
	require.True(t, frame.Decoded())

	w, h := frame.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)

	r, g, b := frame.RGBAt(1, 1)
	assert.Equal(t, uint8(200), r)
	assert.Equal(t, uint8(150), g)
	assert.Equal(t, uint8(100), b)
}

func TestDecodeDataURL_BareBase64(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(2, 2, color.NRGBA{A: 255})))

	frame, err := DecodeDataURL(base64.StdEncoding.EncodeToString(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, frame.Decoded())
}

func TestDecodeDataURL_InvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not base64", payload: "data:image/png;base64,!!not-base64!!"},
		{name: "base64 but not an image", payload: base64.StdEncoding.EncodeToString([]byte("plain text"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := DecodeDataURL(tt.payload)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrImageDecode))
			// The raw payload survives for the remote path.
			require.NotNil(t, frame)
			assert.Equal(t, tt.payload, frame.Raw)
			assert.False(t, frame.Decoded())
		})
	}
}

func TestFrame_Luma(t *testing.T) {
	frame := FromImage(solidImage(2, 2, color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
	assert.InDelta(t, 255, frame.Luma(0, 0), 0.01)

	dark := FromImage(solidImage(2, 2, color.NRGBA{A: 255}))
	assert.InDelta(t, 0, dark.Luma(0, 0), 0.01)
}

func TestFrame_RGBAtClampsOutOfBounds(t *testing.T) {
	frame := FromImage(solidImage(2, 2, color.NRGBA{R: 9, G: 8, B: 7, A: 255}))
	r, g, b := frame.RGBAt(100, -100)
	assert.Equal(t, uint8(9), r)
	assert.Equal(t, uint8(8), g)
	assert.Equal(t, uint8(7), b)
}
