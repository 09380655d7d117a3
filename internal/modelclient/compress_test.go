package modelclient

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func makeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestCompressImageDownsizesLargeImage(t *testing.T) {
	encoded := makeTestPNG(t, 2000, 1000)
	out, err := CompressImage(encoded, 500)
	if err != nil {
		t.Fatalf("CompressImage: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(out)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode output png: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 500 {
		t.Fatalf("width = %d, want 500", b.Dx())
	}
	if b.Dy() != 250 {
		t.Fatalf("height = %d, want 250", b.Dy())
	}
}

func TestCompressImageLeavesSmallImageUnchanged(t *testing.T) {
	encoded := makeTestPNG(t, 200, 100)
	out, err := CompressImage(encoded, 500)
	if err != nil {
		t.Fatalf("CompressImage: %v", err)
	}
	if out != encoded {
		t.Fatalf("small image should pass through unchanged")
	}
}
