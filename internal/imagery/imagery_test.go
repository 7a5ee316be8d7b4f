package imagery

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestCropCenter(t *testing.T) {
	snapshot := encodeTestPNG(t, 100, 80)

	cropped, err := CropCenter(snapshot, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(cropped))
	if err != nil {
		t.Fatalf("crop output is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 20 {
		t.Fatalf("unexpected crop size: %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestCropCenterClampsToBounds(t *testing.T) {
	snapshot := encodeTestPNG(t, 10, 10)

	cropped, err := CropCenter(snapshot, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(cropped))
	if err != nil {
		t.Fatalf("crop output is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Fatalf("expected clamp to source size, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestCropCenterRejectsGarbage(t *testing.T) {
	if _, err := CropCenter([]byte("not a png"), 10); err == nil {
		t.Fatal("expected error for invalid PNG data")
	}
}
