package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// Request bundles everything Process needs besides the source image.
type Request struct {
	Render   RenderOptions
	Format   Format
	Quality  int
	MaxBytes int64
}

// Result is an encoded render.
type Result struct {
	Data        []byte
	ContentType string
	Format      Format
	Width       int
	Height      int
	Placement   Placement
}

// Process runs the full pipeline: validate+decode -> exif -> fit -> encode.
func Process(ctx context.Context, src io.ReadSeeker, req Request) (*Result, error) {
	img, _, err := ValidateAndDecode(src, req.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("validate decode: %w", err)
	}

	// Apply EXIF orientation so fitting sees upright natural dimensions
	if img, err = ApplyEXIFOrientation(img, src); err != nil {
		return nil, fmt.Errorf("exif orientation: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canvas, placement, err := Render(img, req.Render)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := Encode(canvas, &buf, req.Format, req.Quality); err != nil {
		return nil, fmt.Errorf("encode %s: %w", req.Format, err)
	}

	return &Result{
		Data:        buf.Bytes(),
		ContentType: req.Format.ContentType(),
		Format:      req.Format,
		Width:       canvas.Bounds().Dx(),
		Height:      canvas.Bounds().Dy(),
		Placement:   placement,
	}, nil
}
