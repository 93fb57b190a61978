// Package converter re-encodes a single raster image according to a quality
// profile. It is a pure function over bytes: no shared state, no disk.
package converter

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/disintegration/imaging"

	"docshrink/internal/profile"
)

var (
	ErrDecode = errors.New("decode image")
	ErrEncode = errors.New("encode image")
)

// Recompress decodes data, applies any EXIF orientation, downscales so that
// neither dimension exceeds the profile's maximum (never upscales),
// normalizes color to JPEG-encodable form and re-encodes at the profile's
// quality and chroma subsampling. The re-encode drops all metadata, so the
// orientation already applied to the pixels is not applied twice by viewers.
func Recompress(data []byte, p profile.Profile) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if b := src.Bounds(); b.Dx() > p.MaxDimension || b.Dy() > p.MaxDimension {
		src = imaging.Fit(src, p.MaxDimension, p.MaxDimension, imaging.Lanczos)
	}

	out := toYCbCr(src, p.Subsampling)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: p.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// toYCbCr converts any decoded image into a YCbCr image at the requested
// subsample ratio. Transparent pixels are composited over white, matching
// what a white page background shows. The stdlib JPEG encoder emits the
// subsample ratio of the source *image.YCbCr, which is how the profile's
// chroma setting reaches the encoded output.
func toYCbCr(src image.Image, ratio image.YCbCrSubsampleRatio) *image.YCbCr {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewYCbCr(image.Rect(0, 0, w, h), ratio)

	sumCb := make([]uint32, len(dst.Cb))
	sumCr := make([]uint32, len(dst.Cr))
	counts := make([]uint32, len(dst.Cb))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl := matteOverWhite(src.At(b.Min.X+x, b.Min.Y+y))
			yy, cb, cr := color.RGBToYCbCr(r, g, bl)
			dst.Y[dst.YOffset(x, y)] = yy
			ci := dst.COffset(x, y)
			sumCb[ci] += uint32(cb)
			sumCr[ci] += uint32(cr)
			counts[ci]++
		}
	}

	// Chroma for each subsample block is the mean over its pixels.
	for i, n := range counts {
		if n > 0 {
			dst.Cb[i] = uint8(sumCb[i] / n)
			dst.Cr[i] = uint8(sumCr[i] / n)
		}
	}
	return dst
}

func matteOverWhite(c color.Color) (uint8, uint8, uint8) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 0xFF {
		return n.R, n.G, n.B
	}
	a := uint32(n.A)
	r := (uint32(n.R)*a + 0xFF*(0xFF-a)) / 0xFF
	g := (uint32(n.G)*a + 0xFF*(0xFF-a)) / 0xFF
	b := (uint32(n.B)*a + 0xFF*(0xFF-a)) / 0xFF
	return uint8(r), uint8(g), uint8(b)
}
