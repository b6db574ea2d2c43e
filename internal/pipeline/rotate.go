package pipeline

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// NormalizeRotation maps angle onto 0, 90, 180 or 270 degrees. Only quarter
// turns are supported so no pixels are resampled; negative angles turn
// clockwise.
func NormalizeRotation(angle int) (int, error) {
	if angle%90 != 0 {
		return 0, fmt.Errorf("rotate by %d degrees: only multiples of 90 are supported", angle)
	}
	return ((angle % 360) + 360) % 360, nil
}

// rotate turns img counter-clockwise by angle degrees.
func rotate(img image.Image, angle int) (image.Image, error) {
	angle, err := NormalizeRotation(angle)
	if err != nil {
		return nil, err
	}
	switch angle {
	case 90:
		return imaging.Rotate90(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate270(img), nil
	default:
		return img, nil
	}
}
