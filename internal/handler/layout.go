package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"fitrender/internal/objectfit"
)

// LayoutResponse is the JSON body of GET /layout.
type LayoutResponse struct {
	Fit      objectfit.FitMode  `json:"fit"`
	Position objectfit.Position `json:"position"`
	Mode     string             `json:"mode"`
	Src      objectfit.Rect     `json:"src"`
	Dest     objectfit.Rect     `json:"dest"`
}

// Layout computes source and destination rectangles without touching an
// image: GET /layout?nw=&nh=&cw=&ch=&fit=&pos=&mode=align|compat.
//
// mode=compat resolves the position against the plain size difference before
// fitting; the default mode=align resolves it against the space actually left
// after fitting, which is what browsers do.
func (h *Handler) Layout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var dims [4]float64
	for i, key := range []string{"nw", "nh", "cw", "ch"} {
		v, err := parseDimension(q.Get(key))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", key, err))
			return
		}
		dims[i] = v
	}
	nw, nh, cw, ch := dims[0], dims[1], dims[2], dims[3]
	if err := objectfit.ValidateDimensions(nw, nh, cw, ch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fit, pos, err := h.fitAndPosition(q.Get("fit"), q.Get("pos"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := LayoutResponse{Fit: fit, Position: pos, Mode: q.Get("mode")}
	switch resp.Mode {
	case "", "align":
		resp.Mode = "align"
		resp.Src, resp.Dest = objectfit.Align(fit, pos, nw, nh, cw, ch)
	case "compat":
		resp.Src, resp.Dest = objectfit.ComputeAt(fit, pos, nw, nh, cw, ch)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", resp.Mode))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

var errMissing = errors.New("missing")

func parseDimension(s string) (float64, error) {
	if s == "" {
		return 0, errMissing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not finite")
	}
	return v, nil
}

// fitAndPosition parses the fit and pos query values, falling back to the
// configured defaults when a value is empty.
func (h *Handler) fitAndPosition(fitParam, posParam string) (objectfit.FitMode, objectfit.Position, error) {
	fit := h.defaults.fit
	if fitParam != "" {
		f, err := objectfit.ParseFitMode(fitParam)
		if err != nil {
			return fit, objectfit.Position{}, err
		}
		fit = f
	}

	pos := h.defaults.position
	if posParam != "" {
		p, err := objectfit.ParsePosition(posParam)
		if err != nil {
			return fit, pos, err
		}
		pos = p
	}
	return fit, pos, nil
}
