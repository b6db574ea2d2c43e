package pipeline

import "errors"

var (
	ErrNotAnImage        = errors.New("input is not a supported image")
	ErrTooLarge          = errors.New("image exceeds size limit")
	ErrInvalidDimensions = errors.New("image dimensions out of range")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrNilImage          = errors.New("nil image")
	ErrOriginalNotFound  = errors.New("original image not found")
)

// Default maximum dimension (width or height) accepted on decode and
// requested on render.
const MaxDimension = 8000
