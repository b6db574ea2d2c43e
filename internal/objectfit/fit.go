// Package objectfit computes source and destination rectangles for drawing an
// image into a viewport with CSS object-fit semantics.
package objectfit

import (
	"errors"
	"math"
)

// ErrInvalidDimensions is returned by ValidateDimensions when a width or
// height is not a positive finite number.
var ErrInvalidDimensions = errors.New("dimensions must be positive and finite")

// Compute returns the region of the natural image to sample (src) and the
// region of the client viewport to draw it into (dest).
//
// offset is an already resolved alignment and is used verbatim on whichever
// axis the mode leaves free. Ratio comparisons are strict, so equal aspect
// ratios take the width-pinned branch of Contain and the height-pinned branch
// of Cover. Unrecognised modes behave as Fill.
//
// Compute never fails. Heights are used as divisors without guarding, so a
// zero or non-finite dimension propagates into the result as Inf or NaN in
// every mode; callers that need clean output check ValidateDimensions first.
func Compute(mode FitMode, offset Offset, naturalWidth, naturalHeight, clientWidth, clientHeight float64) (src, dest Rect) {
	naturalRatio := naturalWidth / naturalHeight
	clientRatio := clientWidth / clientHeight

	if mode == ScaleDown {
		if naturalWidth < clientWidth && naturalHeight < clientHeight {
			mode = None
		} else {
			mode = Contain
		}
	}

	switch mode {
	case Contain:
		src = NewRect(0, 0, naturalWidth, naturalHeight)
		if naturalRatio < clientRatio {
			// pinned top and bottom, letterboxed left and right
			w := clientHeight * naturalRatio
			dest = NewRect(offset.X, 0, w, clientHeight)
		} else {
			// pinned left and right, letterboxed top and bottom
			h := clientWidth / naturalRatio
			dest = NewRect(0, offset.Y, clientWidth, h)
		}

	case Cover:
		dest = NewRect(0, 0, clientWidth, clientHeight)
		if naturalRatio < clientRatio {
			h := clientHeight * (naturalWidth / clientWidth)
			src = NewRect(0, offset.Y, naturalWidth, h)
		} else {
			w := clientWidth * (naturalHeight / clientHeight)
			src = NewRect(offset.X, 0, w, naturalHeight)
		}

	case None:
		srcX, srcW, destX, destW := intrinsicAxis(naturalWidth, clientWidth, offset.X)
		srcY, srcH, destY, destH := intrinsicAxis(naturalHeight, clientHeight, offset.Y)
		src = NewRect(srcX, srcY, srcW, srcH)
		dest = NewRect(destX, destY, destW, destH)

	case Fill:
		fallthrough
	default:
		src = NewRect(0, 0, naturalWidth, naturalHeight)
		dest = NewRect(0, 0, clientWidth, clientHeight)
	}

	return src, dest
}

// intrinsicAxis resolves one axis of the None mode. A smaller image is placed
// inside the viewport; a larger one is cropped by it.
func intrinsicAxis(natural, client, offset float64) (srcOff, srcExt, destOff, destExt float64) {
	if natural < client {
		return 0, natural, offset, natural
	}
	return offset, client, 0, client
}

// ComputeAt resolves pos against the differences between natural and client
// dimensions and passes the result to Compute. This matches renderers that
// resolve object-position once, before the fit mode is known.
func ComputeAt(mode FitMode, pos Position, naturalWidth, naturalHeight, clientWidth, clientHeight float64) (src, dest Rect) {
	offset := Resolve(pos, naturalWidth-clientWidth, naturalHeight-clientHeight)
	return Compute(mode, offset, naturalWidth, naturalHeight, clientWidth, clientHeight)
}

// Align is like ComputeAt but places the image the way browsers position
// replaced elements. The mode fixes the size of the whole image in client
// space; pos then moves it within the client box, percentages against the
// free space (negative when the image is cropped) and pixel lengths as a
// plain shift. Whatever falls outside the client box is clipped from both
// rectangles, so src always lies within the natural image and dest within
// the client box.
func Align(mode FitMode, pos Position, naturalWidth, naturalHeight, clientWidth, clientHeight float64) (src, dest Rect) {
	src, dest = Compute(mode, Offset{}, naturalWidth, naturalHeight, clientWidth, clientHeight)
	src.X, src.W, dest.X, dest.W = alignAxis(pos.X, naturalWidth, clientWidth, src.W, dest.W)
	src.Y, src.H, dest.Y, dest.H = alignAxis(pos.Y, naturalHeight, clientHeight, src.H, dest.H)
	return src, dest
}

// alignAxis positions one axis. srcExt and destExt are the extents Compute
// chose for the mode; their ratio is the sampling scale.
func alignAxis(lp LengthPercentage, natural, client, srcExt, destExt float64) (srcOff, srcLen, destOff, destLen float64) {
	scaled := destExt
	if srcExt < natural {
		scaled = natural * destExt / srcExt
	}
	origin := lp.Resolve(client - scaled)

	lo := math.Max(origin, 0)
	hi := math.Min(origin+scaled, client)
	if !(hi > lo) {
		return 0, 0, math.Min(lo, client), 0
	}

	k := srcExt / destExt
	start := (lo - origin) * k
	end := natural
	if hi < origin+scaled {
		end = (hi - origin) * k
	}
	return start, end - start, lo, hi - lo
}

// ValidateDimensions reports ErrInvalidDimensions unless every argument is a
// positive finite number.
func ValidateDimensions(naturalWidth, naturalHeight, clientWidth, clientHeight float64) error {
	for _, v := range [...]float64{naturalWidth, naturalHeight, clientWidth, clientHeight} {
		if !(v > 0) || math.IsInf(v, 0) {
			return ErrInvalidDimensions
		}
	}
	return nil
}
