package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"

	"fitrender/internal/objectfit"
)

// RenderOptions describes the viewport an image is drawn into.
type RenderOptions struct {
	Width      int
	Height     int
	Fit        objectfit.FitMode
	Position   objectfit.Position
	Background color.Color
	// Filter names the resampling filter, see ParseFilter. Empty means Lanczos.
	Filter string
	// Rotate is a counter-clockwise rotation in degrees applied before fitting.
	Rotate int
}

// Placement records where the image was sampled from and drawn to.
type Placement struct {
	Fit  objectfit.FitMode `json:"fit"`
	Src  objectfit.Rect    `json:"src"`
	Dest objectfit.Rect    `json:"dest"`
}

var filters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

// ParseFilter returns the resampling filter with the given name.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return imaging.Lanczos, nil
	}
	f, ok := filters[name]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter %q", name)
	}
	return f, nil
}

// Render draws img into a new Width x Height canvas according to the fit mode
// and position in opts. Areas the image does not cover are filled with
// opts.Background, or left transparent when it is nil.
func Render(img image.Image, opts RenderOptions) (*image.NRGBA, Placement, error) {
	if img == nil {
		return nil, Placement{}, ErrNilImage
	}
	if opts.Width > MaxDimension || opts.Height > MaxDimension {
		return nil, Placement{}, ErrInvalidDimensions
	}
	filter, err := ParseFilter(opts.Filter)
	if err != nil {
		return nil, Placement{}, err
	}
	if opts.Rotate != 0 {
		if img, err = rotate(img, opts.Rotate); err != nil {
			return nil, Placement{}, err
		}
	}

	b := img.Bounds()
	nw, nh := float64(b.Dx()), float64(b.Dy())
	cw, ch := float64(opts.Width), float64(opts.Height)
	if err := objectfit.ValidateDimensions(nw, nh, cw, ch); err != nil {
		return nil, Placement{}, fmt.Errorf("render %dx%d into %dx%d: %w: %w", b.Dx(), b.Dy(), opts.Width, opts.Height, ErrInvalidDimensions, err)
	}

	src, dest := objectfit.Align(opts.Fit, opts.Position, nw, nh, cw, ch)
	src, dest = clipToImage(src, dest, nw, nh)
	placement := Placement{Fit: opts.Fit, Src: src, Dest: dest}

	bg := opts.Background
	if bg == nil {
		bg = color.Transparent
	}
	canvas := imaging.New(opts.Width, opts.Height, bg)

	srcRect := src.Image().Add(b.Min).Intersect(b)
	destRect := dest.Image()
	if srcRect.Empty() || destRect.Empty() {
		return canvas, placement, nil
	}

	part := imaging.Crop(img, srcRect)
	if part.Bounds().Dx() != destRect.Dx() || part.Bounds().Dy() != destRect.Dy() {
		part = imaging.Resize(part, destRect.Dx(), destRect.Dy(), filter)
	}
	if opts.Background == nil {
		// nothing to blend against, copy pixels as they are
		return imaging.Paste(canvas, part, destRect.Min), placement, nil
	}
	return imaging.Overlay(canvas, part, destRect.Min, 1.0), placement, nil
}

// clipToImage trims src to the natural image and shrinks dest by the same
// amount in client space, so a clipped source is never stretched over the
// full destination.
func clipToImage(src, dest objectfit.Rect, nw, nh float64) (objectfit.Rect, objectfit.Rect) {
	src.X, src.W, dest.X, dest.W = clipAxis(src.X, src.W, dest.X, dest.W, nw)
	src.Y, src.H, dest.Y, dest.H = clipAxis(src.Y, src.H, dest.Y, dest.H, nh)
	return src, dest
}

func clipAxis(srcOff, srcLen, destOff, destLen, natural float64) (float64, float64, float64, float64) {
	if !(srcLen > 0) {
		return srcOff, srcLen, destOff, destLen
	}
	scale := destLen / srcLen
	if srcOff < 0 {
		destOff -= srcOff * scale
		destLen += srcOff * scale
		srcLen += srcOff
		srcOff = 0
	}
	if over := srcOff + srcLen - natural; over > 0 {
		destLen -= over * scale
		srcLen -= over
	}
	if srcLen <= 0 || destLen <= 0 {
		return srcOff, 0, destOff, 0
	}
	return srcOff, srcLen, destOff, destLen
}
