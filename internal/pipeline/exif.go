package pipeline

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// ApplyEXIFOrientation reads the EXIF orientation tag from r and returns img
// rotated or flipped upright. Missing or unreadable EXIF data leaves img
// untouched; only a failed seek is reported.
func ApplyEXIFOrientation(img image.Image, r io.ReadSeeker) (image.Image, error) {
	if r == nil {
		return img, nil
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return img, err
	}

	x, err := exif.Decode(r)
	if err != nil {
		return img, nil
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return img, nil
	}
	orient, err := tag.Int(0)
	if err != nil {
		return img, nil
	}

	return orientationTransform(img, orient), nil
}

// orientations maps EXIF orientation values 2-8 to the transform that makes
// the image upright. Value 1 and unknown values need none.
var orientations = map[int]func(image.Image) *image.NRGBA{
	2: imaging.FlipH,
	3: imaging.Rotate180,
	4: imaging.FlipV,
	5: imaging.Transpose,
	6: imaging.Rotate270,
	7: imaging.Transverse,
	8: imaging.Rotate90,
}

func orientationTransform(img image.Image, orientation int) image.Image {
	if fn, ok := orientations[orientation]; ok {
		return fn(img)
	}
	return img
}
