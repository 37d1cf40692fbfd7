// Package imaging re-encodes images at reduced quality.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	stddraw "image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Codec compresses an encoded image into PNG bytes.
type Codec interface {
	Compress(src []byte, quality int) ([]byte, error)
}

// PNG decodes any registered format and writes a PNG. Below quality 50 the
// image is reduced to a 216-colour palette with dithering; MaxDimension, when
// set, also downsizes the longest side.
type PNG struct {
	MaxDimension int
}

func NewPNG(maxDimension int) *PNG {
	return &PNG{MaxDimension: maxDimension}
}

func (c *PNG) Compress(src []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = c.resize(img)
	if quality > 0 && quality < 50 {
		img = quantize(img)
	}

	enc := png.Encoder{CompressionLevel: png.BestCompression}
	var out bytes.Buffer
	if err := enc.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return out.Bytes(), nil
}

func (c *PNG) resize(img image.Image) image.Image {
	if c.MaxDimension <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= c.MaxDimension && h <= c.MaxDimension {
		return img
	}
	if w >= h {
		h = max(1, h*c.MaxDimension/w)
		w = c.MaxDimension
	} else {
		w = max(1, w*c.MaxDimension/h)
		h = c.MaxDimension
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func quantize(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.WebSafe)
	stddraw.FloydSteinberg.Draw(dst, dst.Bounds(), img, b.Min)
	return dst
}
