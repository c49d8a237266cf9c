package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode error: %v", err)
	}
	return buf.Bytes()
}

func TestVariants_WidthsAndCount(t *testing.T) {
	proc := NewProcessor()

	variants, err := proc.Variants(pngBytes(t, 800, 400), "cat.png")
	if err != nil {
		t.Fatalf("Variants error: %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("want 3 variants, got %d", len(variants))
	}

	for tag, width := range variantWidths {
		data, ok := variants[tag]
		if !ok {
			t.Fatalf("variant %q missing", tag)
		}
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("variant %q decode error: %v", tag, err)
		}
		bounds := img.Bounds()
		if bounds.Dx() != width {
			t.Fatalf("variant %q width: want %d, got %d", tag, width, bounds.Dx())
		}
		// Aspect ratio is preserved: 800x400 halves the width.
		if bounds.Dy() != width/2 {
			t.Fatalf("variant %q height: want %d, got %d", tag, width/2, bounds.Dy())
		}
	}
}

func TestVariants_EncodesByExtension(t *testing.T) {
	proc := NewProcessor()
	src := pngBytes(t, 200, 200)

	asPNG, err := proc.Variants(src, "cat.PNG")
	if err != nil {
		t.Fatalf("Variants error: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(asPNG["small"])); err != nil {
		t.Fatalf("small variant is not a png: %v", err)
	}

	// Unknown extensions fall back to jpeg.
	asJPEG, err := proc.Variants(src, "cat.webp")
	if err != nil {
		t.Fatalf("Variants error: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(asJPEG["small"])); err != nil {
		t.Fatalf("small variant is not a jpeg: %v", err)
	}
}

func TestVariants_RejectsGarbage(t *testing.T) {
	proc := NewProcessor()

	if _, err := proc.Variants([]byte("not an image"), "cat.png"); err == nil {
		t.Fatalf("expected decode error")
	}
}
