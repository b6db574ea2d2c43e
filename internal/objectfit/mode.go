package objectfit

import (
	"errors"
	"strings"
)

// FitMode selects how natural dimensions are reconciled with client dimensions.
type FitMode uint8

const (
	// Fill stretches the image to the client box, ignoring aspect ratio.
	Fill FitMode = iota
	// Contain scales the image to fit entirely inside the client box,
	// letterboxing the remaining axis.
	Contain
	// Cover scales the image to cover the client box, cropping the overflow.
	Cover
	// None draws the image at its natural size.
	None
	// ScaleDown behaves as None when the image is smaller than the client box
	// on both axes and as Contain otherwise.
	ScaleDown
)

// ErrUnknownFitMode is returned by ParseFitMode for unrecognised keywords.
var ErrUnknownFitMode = errors.New("unknown object-fit mode")

var fitModeNames = [...]string{
	Fill:      "fill",
	Contain:   "contain",
	Cover:     "cover",
	None:      "none",
	ScaleDown: "scale-down",
}

// String returns the CSS keyword for m.
func (m FitMode) String() string {
	if int(m) < len(fitModeNames) {
		return fitModeNames[m]
	}
	return "unknown"
}

// ParseFitMode maps a CSS object-fit keyword to a FitMode. An empty string
// yields Fill, the CSS initial value.
func ParseFitMode(s string) (FitMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Fill, nil
	}
	for i, name := range fitModeNames {
		if s == name {
			return FitMode(i), nil
		}
	}
	return Fill, ErrUnknownFitMode
}

// MarshalText implements encoding.TextMarshaler.
func (m FitMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *FitMode) UnmarshalText(text []byte) error {
	parsed, err := ParseFitMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
