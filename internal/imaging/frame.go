// Package imaging decodes the data-URL image payloads accepted by the
// detection endpoints into pixel buffers shared by the analyzers.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"strings"

	// Register the decoders for the formats browsers produce.
	_ "image/jpeg"
	_ "image/png"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

// Frame is one captured image. Raw keeps the original data-URL so the remote
// path can forward the payload untouched; Img is nil when decoding failed,
// in which case only the last-resort analyzer can still produce a result.
type Frame struct {
	Raw string
	Img image.Image

	nrgba *image.NRGBA
}

// DecodeDataURL parses a browser data-URL (or bare base64) payload. The
// returned frame always carries the raw payload, even when pixel decoding
// fails; the error then wraps domain.ErrImageDecode.
func DecodeDataURL(payload string) (*Frame, error) {
	frame := &Frame{Raw: payload}

	encoded := payload
	if idx := strings.Index(encoded, "base64,"); idx >= 0 {
		encoded = encoded[idx+len("base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return frame, fmt.Errorf("%w: base64: %v", domain.ErrImageDecode, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return frame, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}

	frame.Img = img
	return frame, nil
}

// FromImage wraps an already decoded image, synthesizing a frame without a
// raw payload. Used by tests and by callers that accept multipart uploads.
func FromImage(img image.Image) *Frame {
	return &Frame{Img: img}
}

// Bytes returns the binary image payload decoded from the raw data-URL.
// Returns nil when no raw payload is present or it is not valid base64.
func (f *Frame) Bytes() []byte {
	if f == nil || f.Raw == "" {
		return nil
	}
	encoded := f.Raw
	if idx := strings.Index(encoded, "base64,"); idx >= 0 {
		encoded = encoded[idx+len("base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	return data
}

// Decoded reports whether pixel data is available.
func (f *Frame) Decoded() bool {
	return f != nil && f.Img != nil
}

// NRGBA returns the frame converted to NRGBA, converting lazily on first use.
func (f *Frame) NRGBA() *image.NRGBA {
	if f.nrgba != nil {
		return f.nrgba
	}
	if f.Img == nil {
		return nil
	}
	if n, ok := f.Img.(*image.NRGBA); ok {
		f.nrgba = n
		return n
	}
	bounds := f.Img.Bounds()
	n := image.NewNRGBA(bounds)
	draw.Draw(n, bounds, f.Img, bounds.Min, draw.Src)
	f.nrgba = n
	return n
}

// Size returns width and height in pixels, or zeros when undecoded.
func (f *Frame) Size() (int, int) {
	if !f.Decoded() {
		return 0, 0
	}
	bounds := f.Img.Bounds()
	return bounds.Dx(), bounds.Dy()
}

// RGBAt samples one pixel. Out-of-bounds coordinates clamp to the edge.
func (f *Frame) RGBAt(x, y int) (uint8, uint8, uint8) {
	n := f.NRGBA()
	if n == nil {
		return 0, 0, 0
	}
	bounds := n.Bounds()
	if x < bounds.Min.X {
		x = bounds.Min.X
	}
	if x >= bounds.Max.X {
		x = bounds.Max.X - 1
	}
	if y < bounds.Min.Y {
		y = bounds.Min.Y
	}
	if y >= bounds.Max.Y {
		y = bounds.Max.Y - 1
	}
	i := n.PixOffset(x, y)
	return n.Pix[i], n.Pix[i+1], n.Pix[i+2]
}

// Luma returns the perceptual luminance of one pixel (BT.601 weights).
func (f *Frame) Luma(x, y int) float64 {
	r, g, b := f.RGBAt(x, y)
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}
