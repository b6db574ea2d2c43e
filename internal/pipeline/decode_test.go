package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	webp "github.com/chai2010/webp"
	"github.com/gen2brain/avif"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func TestValidateAndDecode_Formats(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 12, 8))

	tests := []struct {
		name   string
		encode func(io.Writer, image.Image) error
		wantCT string
	}{
		{"jpeg", func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) }, "image/jpeg"},
		{"png", png.Encode, "image/png"},
		{"gif", func(w io.Writer, m image.Image) error { return gif.Encode(w, m, nil) }, "image/gif"},
		{"bmp", bmp.Encode, "image/bmp"},
		{"tiff", func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }, "image/tiff"},
		{"webp", func(w io.Writer, m image.Image) error { return webp.Encode(w, m, &webp.Options{Quality: 80}) }, "image/webp"},
		{"avif", func(w io.Writer, m image.Image) error { return avif.Encode(w, m, avif.Options{Quality: 60, Speed: 8}) }, "image/avif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b bytes.Buffer
			if err := tt.encode(&b, src); err != nil {
				t.Fatalf("encode: %v", err)
			}
			img, ct, err := ValidateAndDecode(&b, 1<<20)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ct != tt.wantCT {
				t.Errorf("expected %s, got %s", tt.wantCT, ct)
			}
			if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 8 {
				t.Errorf("expected 12x8, got %v", img.Bounds())
			}
		})
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		data []byte
		want string
	}{
		{[]byte("\x00\x00\x00\x1cftypavif\x00\x00\x00\x00"), "image/avif"},
		{[]byte("\x00\x00\x00\x1cftypavis\x00\x00\x00\x00"), "image/avif"},
		{[]byte("II*\x00\x08\x00\x00\x00"), "image/tiff"},
		{[]byte("MM\x00*\x00\x00\x00\x08"), "image/tiff"},
		{[]byte("hello"), "text/plain; charset=utf-8"},
	}
	for _, tt := range tests {
		if got := DetectContentType(tt.data); got != tt.want {
			t.Errorf("DetectContentType(%q) = %s, want %s", tt.data, got, tt.want)
		}
	}
}

func TestValidateAndDecode_RejectText(t *testing.T) {
	_, _, err := ValidateAndDecode(bytes.NewBufferString("this is not an image"), 1024)
	if !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("expected ErrNotAnImage, got %v", err)
	}
}

func TestValidateAndDecode_RejectTooLarge(t *testing.T) {
	data := bytes.Repeat([]byte{'a'}, 10*1024)
	_, _, err := ValidateAndDecode(bytes.NewReader(data), 1024)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestValidateAndDecode_RejectInvalidDimensions(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, MaxDimension+1, 1))
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		t.Fatal(err)
	}
	_, _, err := ValidateAndDecode(&b, 1<<20)
	if !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions, got %v", err)
	}
}

func TestValidateAndDecode_TruncatedImage(t *testing.T) {
	var b bytes.Buffer
	if err := png.Encode(&b, image.NewGray(image.Rect(0, 0, 50, 50))); err != nil {
		t.Fatal(err)
	}
	truncated := b.Bytes()[:b.Len()/2]
	if _, _, err := ValidateAndDecode(bytes.NewReader(truncated), 1<<20); err == nil {
		t.Fatal("expected error for truncated png")
	}
}
