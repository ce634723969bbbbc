package models

import (
	"image"
	"testing"
)

func TestDownscaleKeepsAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1024, 256))

	got := Downscale(src, 512).Bounds()
	if got.Dx() != 512 || got.Dy() != 128 {
		t.Errorf("downscaled to %dx%d, want 512x128", got.Dx(), got.Dy())
	}
}

func TestDownscaleNoop(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 64))
	if Downscale(src, 512) != image.Image(src) {
		t.Error("small images should be returned unchanged")
	}
	if Downscale(src, 0) != image.Image(src) {
		t.Error("maxSize 0 should disable scaling")
	}
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	if _, err := DecodeImage([]byte("not an image"), 0); err == nil {
		t.Error("expected decode error")
	}
}
