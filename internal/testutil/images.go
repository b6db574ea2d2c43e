package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"fitrender/internal/storage"
)

// GradientImage returns a width x height image whose red channel grows left to
// right and green channel top to bottom, so crops and flips are detectable.
func GradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / max(width-1, 1))
			g := uint8((y * 255) / max(height-1, 1))
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: 128, A: 255})
		}
	}

	return img
}

// EncodeJPEG encodes img as a JPEG at quality 90.
func EncodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// EncodePNG encodes img as a PNG.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// JPEGWithOrientation encodes img as a JPEG carrying an EXIF orientation tag.
func JPEGWithOrientation(t *testing.T, img image.Image, orientation uint16) []byte {
	t.Helper()

	// big-endian TIFF with a single IFD0 entry: 0x0112 SHORT x1
	var tiff bytes.Buffer
	tiff.WriteString("MM\x00\x2a")
	binary.Write(&tiff, binary.BigEndian, uint32(8))
	binary.Write(&tiff, binary.BigEndian, uint16(1))
	binary.Write(&tiff, binary.BigEndian, []uint16{0x0112, 3})
	binary.Write(&tiff, binary.BigEndian, uint32(1))
	binary.Write(&tiff, binary.BigEndian, []uint16{orientation, 0})
	binary.Write(&tiff, binary.BigEndian, uint32(0))

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	plain := EncodeJPEG(t, img)
	var out bytes.Buffer
	out.Write(plain[:2]) // SOI
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(plain[2:])
	return out.Bytes()
}

// WriteOriginal stores data as the original called name and returns its path.
func WriteOriginal(t *testing.T, store *storage.Storage, name string, data []byte) string {
	t.Helper()

	path, err := storage.OriginalPath(store.BaseDir, name)
	if err != nil {
		t.Fatalf("original path %q: %v", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create originals dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write original: %v", err)
	}
	return path
}

// WriteOriginalJPEG stores a width x height gradient JPEG as name.
func WriteOriginalJPEG(t *testing.T, store *storage.Storage, name string, width, height int) string {
	t.Helper()
	return WriteOriginal(t, store, name, EncodeJPEG(t, GradientImage(width, height)))
}
