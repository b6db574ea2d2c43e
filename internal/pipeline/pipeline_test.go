package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"fitrender/internal/objectfit"
	"fitrender/internal/testutil"
)

func TestProcess_AppliesOrientationBeforeFitting(t *testing.T) {
	data := testutil.JPEGWithOrientation(t, testutil.GradientImage(40, 20), 6)

	res, err := Process(context.Background(), bytes.NewReader(data), Request{
		Render:   RenderOptions{Width: 10, Height: 10, Fit: objectfit.Contain, Position: objectfit.DefaultPosition},
		Format:   FormatPNG,
		MaxBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.ContentType != "image/png" || res.Width != 10 || res.Height != 10 {
		t.Fatalf("unexpected result %s %dx%d", res.ContentType, res.Width, res.Height)
	}
	if res.Placement.Src != objectfit.NewRect(0, 0, 20, 40) {
		t.Errorf("expected upright 20x40 source, got %+v", res.Placement.Src)
	}
	if res.Placement.Dest != objectfit.NewRect(2.5, 0, 5, 10) {
		t.Errorf("unexpected dest %+v", res.Placement.Dest)
	}

	img, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Errorf("decoded %v, want 10x10", img.Bounds())
	}
}

func TestProcess_WebPDefaultQuality(t *testing.T) {
	data := testutil.EncodePNG(t, testutil.GradientImage(64, 64))

	res, err := Process(context.Background(), bytes.NewReader(data), Request{
		Render:   RenderOptions{Width: 32, Height: 16, Fit: objectfit.Cover, Position: objectfit.DefaultPosition},
		Format:   FormatWebP,
		MaxBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.ContentType != "image/webp" || len(res.Data) == 0 {
		t.Fatalf("unexpected result %s with %d bytes", res.ContentType, len(res.Data))
	}
}

func TestProcess_Errors(t *testing.T) {
	valid := testutil.EncodePNG(t, testutil.GradientImage(8, 8))
	opts := RenderOptions{Width: 4, Height: 4}

	_, err := Process(context.Background(), bytes.NewReader([]byte("nope")), Request{Render: opts, Format: FormatPNG, MaxBytes: 1024})
	if !errors.Is(err, ErrNotAnImage) {
		t.Errorf("expected ErrNotAnImage, got %v", err)
	}

	_, err = Process(context.Background(), bytes.NewReader(valid), Request{Render: opts, Format: FormatPNG, MaxBytes: 10})
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}

	_, err = Process(context.Background(), bytes.NewReader(valid), Request{Render: opts, Format: Format("bmp"), MaxBytes: 1 << 20})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Process(ctx, bytes.NewReader(valid), Request{Render: opts, Format: FormatPNG, MaxBytes: 1 << 20})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
