package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	webp "github.com/chai2010/webp"
	"github.com/gen2brain/avif"
)

func markedImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 4), uint8(y * 4), 90, 255})
		}
	}
	return img
}

func TestEncode_AllFormats(t *testing.T) {
	img := markedImage(64, 48)

	decoders := map[Format]func([]byte) (image.Image, error){
		FormatWebP: func(b []byte) (image.Image, error) { return webp.Decode(bytes.NewReader(b)) },
		FormatAVIF: func(b []byte) (image.Image, error) { return avif.Decode(bytes.NewReader(b)) },
		FormatJPEG: func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) },
		FormatPNG:  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
	}

	for f, decode := range decoders {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(img, &buf, f, 0); err != nil {
				t.Fatalf("Encode(%s) failed: %v", f, err)
			}
			out, err := decode(buf.Bytes())
			if err != nil {
				t.Fatalf("decode %s: %v", f, err)
			}
			if out.Bounds().Dx() != 64 || out.Bounds().Dy() != 48 {
				t.Fatalf("decoded dims %v, want 64x48", out.Bounds())
			}
		})
	}
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(markedImage(4, 4), &buf, Format("gif"), 0); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestEncode_NilImage(t *testing.T) {
	for _, f := range []Format{FormatWebP, FormatAVIF, FormatJPEG, FormatPNG} {
		var buf bytes.Buffer
		if err := Encode(nil, &buf, f, 0); !errors.Is(err, ErrNilImage) {
			t.Errorf("%s: expected ErrNilImage, got %v", f, err)
		}
	}
}

func TestEncodeWebP_QualityAffectsSize(t *testing.T) {
	img := markedImage(64, 48)
	var low, high bytes.Buffer
	if err := EncodeWebP(img, &low, 20); err != nil {
		t.Fatalf("encode low quality failed: %v", err)
	}
	if err := EncodeWebP(img, &high, 95); err != nil {
		t.Fatalf("encode high quality failed: %v", err)
	}
	if low.Len() >= high.Len() {
		t.Fatalf("expected low quality size < high quality size, got %d >= %d", low.Len(), high.Len())
	}
}

type badWriter struct{}

func (badWriter) Write(p []byte) (int, error) { return 0, fmt.Errorf("closed writer") }

func TestEncode_WriterErrors(t *testing.T) {
	img := markedImage(16, 16)
	if err := EncodeWebP(img, badWriter{}, DefaultWebPQuality); err == nil {
		t.Error("expected webp error when writing to closed writer")
	}
	if err := EncodeJPEG(img, badWriter{}, DefaultJPEGQuality); err == nil {
		t.Error("expected jpeg error when writing to closed writer")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"webp", FormatWebP},
		{"WEBP", FormatWebP},
		{".avif", FormatAVIF},
		{"jpg", FormatJPEG},
		{"jpeg", FormatJPEG},
		{" png ", FormatPNG},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFormat("heic"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if FormatJPEG.ContentType() != "image/jpeg" {
		t.Errorf("unexpected content type %s", FormatJPEG.ContentType())
	}
}

func TestClampQuality(t *testing.T) {
	tests := []struct{ in, def, want int }{
		{0, 85, 85},
		{-5, 85, 85},
		{50, 85, 50},
		{150, 85, 100},
		{-5, 0, 0},
	}
	for _, tt := range tests {
		if got := clampQuality(tt.in, tt.def); got != tt.want {
			t.Errorf("clampQuality(%d, %d) = %d, want %d", tt.in, tt.def, got, tt.want)
		}
	}
}
