package pipeline

import (
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"strings"

	webp "github.com/chai2010/webp"
	"github.com/gen2brain/avif"
)

// DefaultWebPQuality is the standard quality used for lossy WebP encoding.
const DefaultWebPQuality = 80

// DefaultAVIFQuality is the standard quality used for AVIF encoding.
const DefaultAVIFQuality = 60

// DefaultAVIFSpeed is the standard speed used for AVIF encoding.
const DefaultAVIFSpeed = 6

// DefaultJPEGQuality is the standard quality used for JPEG encoding.
const DefaultJPEGQuality = 85

// Format is an output encoding.
type Format string

const (
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "webp":
		return FormatWebP, nil
	case "avif":
		return FormatAVIF, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	}
	return "", ErrUnsupportedFormat
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	return "image/" + string(f)
}

// Encode writes img to w in format f. A quality <= 0 selects the format's
// default; PNG ignores quality.
func Encode(img image.Image, w io.Writer, f Format, quality int) error {
	switch f {
	case FormatWebP:
		if quality <= 0 {
			quality = DefaultWebPQuality
		}
		return EncodeWebP(img, w, quality)
	case FormatAVIF:
		return EncodeAVIF(img, w, quality, DefaultAVIFSpeed)
	case FormatJPEG:
		return EncodeJPEG(img, w, quality)
	case FormatPNG:
		if img == nil {
			return ErrNilImage
		}
		return png.Encode(w, img)
	}
	return ErrUnsupportedFormat
}

// EncodeWebP encodes img to WebP written to w with given quality (0-100).
// It logs the final encoded size. Returns an error from the encoder or writer.
func EncodeWebP(img image.Image, w io.Writer, quality int) error {
	if img == nil {
		return ErrNilImage
	}
	if w == nil {
		return errors.New("nil writer")
	}
	quality = clampQuality(quality, 0)

	c := &countingWriter{w: w}
	if err := webp.Encode(c, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return err
	}

	log.Printf("webp encoded size=%d quality=%d", c.n, quality)
	return nil
}

// EncodeAVIF encodes img to AVIF written to w with given quality (0-100) and speed (0-10).
// It logs the final encoded size. Returns an error from the encoder or writer.
func EncodeAVIF(img image.Image, w io.Writer, quality, speed int) error {
	if img == nil {
		return ErrNilImage
	}
	if w == nil {
		return errors.New("nil writer")
	}
	quality = clampQuality(quality, DefaultAVIFQuality)
	if speed <= 0 {
		speed = DefaultAVIFSpeed
	}
	if speed > 10 {
		speed = 10
	}

	c := &countingWriter{w: w}
	if err := avif.Encode(c, img, avif.Options{Quality: quality, QualityAlpha: quality, Speed: speed}); err != nil {
		return err
	}

	log.Printf("avif encoded size=%d quality=%d speed=%d", c.n, quality, speed)
	return nil
}

// EncodeJPEG encodes img as baseline JPEG. Alpha is dropped by the encoder.
func EncodeJPEG(img image.Image, w io.Writer, quality int) error {
	if img == nil {
		return ErrNilImage
	}
	if w == nil {
		return errors.New("nil writer")
	}
	quality = clampQuality(quality, DefaultJPEGQuality)

	c := &countingWriter{w: w}
	if err := jpeg.Encode(c, img, &jpeg.Options{Quality: quality}); err != nil {
		return err
	}

	log.Printf("jpeg encoded size=%d quality=%d", c.n, quality)
	return nil
}

// clampQuality bounds quality to 0-100, substituting def for values <= 0
// when def is positive.
func clampQuality(quality, def int) int {
	if quality <= 0 && def > 0 {
		return def
	}
	if quality < 0 {
		return 0
	}
	if quality > 100 {
		return 100
	}
	return quality
}

// countingWriter wraps an io.Writer and counts bytes written.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	m, err := c.w.Write(p)
	c.n += int64(m)
	return m, err
}
