package objectfit

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidPosition is returned by ParsePosition for values outside the
// supported grammar.
var ErrInvalidPosition = errors.New("invalid object-position")

// LengthPercentage is either an absolute length in pixels or a percentage of
// a reference range.
type LengthPercentage struct {
	Value   float64
	Percent bool
}

// Px returns an absolute length.
func Px(v float64) LengthPercentage {
	return LengthPercentage{Value: v}
}

// Pct returns a percentage.
func Pct(v float64) LengthPercentage {
	return LengthPercentage{Value: v, Percent: true}
}

// Resolve returns the absolute value of lp against the given range.
func (lp LengthPercentage) Resolve(span float64) float64 {
	if lp.Percent {
		return lp.Value / 100 * span
	}
	return lp.Value
}

func (lp LengthPercentage) String() string {
	v := strconv.FormatFloat(lp.Value, 'f', -1, 64)
	if lp.Percent {
		return v + "%"
	}
	return v + "px"
}

// Position is an unresolved two-component alignment, analogous to the CSS
// object-position property.
type Position struct {
	X LengthPercentage
	Y LengthPercentage
}

// DefaultPosition is the CSS initial value "50% 50%".
var DefaultPosition = Position{X: Pct(50), Y: Pct(50)}

func (p Position) String() string {
	return p.X.String() + " " + p.Y.String()
}

// Offset is a resolved alignment offset in pixels.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Resolve turns pos into an absolute Offset, using rangeX and rangeY as the
// reference spans for percentage components.
func Resolve(pos Position, rangeX, rangeY float64) Offset {
	return Offset{X: pos.X.Resolve(rangeX), Y: pos.Y.Resolve(rangeY)}
}

type axis uint8

const (
	axisEither axis = iota
	axisHorizontal
	axisVertical
)

// ParsePosition parses a restricted object-position value: one or two
// components, each a percentage ("25%"), a pixel length ("10px" or "10"), or
// one of the keywords left, center, right, top and bottom. Components may be
// separated by spaces or a comma. An empty string yields DefaultPosition.
func ParsePosition(s string) (Position, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})

	switch len(fields) {
	case 0:
		return DefaultPosition, nil
	case 1:
		lp, ax, err := parseComponent(fields[0])
		if err != nil {
			return Position{}, err
		}
		if ax == axisVertical {
			return Position{X: Pct(50), Y: lp}, nil
		}
		return Position{X: lp, Y: Pct(50)}, nil
	case 2:
		x, xAxis, err := parseComponent(fields[0])
		if err != nil {
			return Position{}, err
		}
		y, yAxis, err := parseComponent(fields[1])
		if err != nil {
			return Position{}, err
		}
		// "top left" is as valid as "left top".
		if xAxis == axisVertical || yAxis == axisHorizontal {
			x, y = y, x
			xAxis, yAxis = yAxis, xAxis
		}
		if xAxis == axisVertical || yAxis == axisHorizontal {
			return Position{}, ErrInvalidPosition
		}
		return Position{X: x, Y: y}, nil
	default:
		return Position{}, ErrInvalidPosition
	}
}

func parseComponent(tok string) (LengthPercentage, axis, error) {
	switch strings.ToLower(tok) {
	case "left":
		return Pct(0), axisHorizontal, nil
	case "right":
		return Pct(100), axisHorizontal, nil
	case "top":
		return Pct(0), axisVertical, nil
	case "bottom":
		return Pct(100), axisVertical, nil
	case "center":
		return Pct(50), axisEither, nil
	}

	percent := false
	num := tok
	switch {
	case strings.HasSuffix(tok, "%"):
		percent = true
		num = strings.TrimSuffix(tok, "%")
	case strings.HasSuffix(strings.ToLower(tok), "px"):
		num = tok[:len(tok)-2]
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return LengthPercentage{}, axisEither, ErrInvalidPosition
	}
	return LengthPercentage{Value: v, Percent: percent}, axisEither, nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
