// Package imagery captures satellite snapshots for an AOI through a
// headless-browser render sidecar.
package imagery

import (
	"bytes"
	"context"
	"image"
	"image/png"
)

// Capturer exposes the subset of snapshot functionality used by the
// verification flow.
type Capturer interface {
	Capture(ctx context.Context, pageURL string) ([]byte, error)
}

// CropCenter crops a PNG snapshot to a square of +-half pixels around its
// center, clamped to the image bounds, and re-encodes it. The model only
// looks at the AOI center; the page chrome around it is noise.
func CropCenter(snapshot []byte, half int) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(snapshot))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	cx := bounds.Min.X + bounds.Dx()/2
	cy := bounds.Min.Y + bounds.Dy()/2

	crop := image.Rect(cx-half, cy-half, cx+half, cy+half).Intersect(bounds)

	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	sub, ok := img.(subImager)
	if !ok {
		// Decoded PNGs are always one of the stdlib image types, all of
		// which implement SubImage; copy as a fallback.
		dst := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
		for y := 0; y < crop.Dy(); y++ {
			for x := 0; x < crop.Dx(); x++ {
				dst.Set(x, y, img.At(crop.Min.X+x, crop.Min.Y+y))
			}
		}
		return encodePNG(dst)
	}
	return encodePNG(sub.SubImage(crop))
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
