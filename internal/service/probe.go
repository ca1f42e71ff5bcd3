package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/csconv"
	"github.com/mohammed-shakir/cs-wkt/internal/geodesy"
	"github.com/mohammed-shakir/cs-wkt/internal/namemap"
	"github.com/mohammed-shakir/cs-wkt/internal/wkt"
)

type ProbeResult struct {
	Import *csconv.ImportResult `json:"import"`
	Lon    float64              `json:"lon"`
	Lat    float64              `json:"lat"`
	Point  geodesy.Point        `json:"point"`
}

// Probe imports text and forward-projects lon/lat through the result.
func (t *Translator) Probe(ctx context.Context, text string, preferred model.Flavor, lon, lat float64) (*ProbeResult, error) {
	res, err := t.Import(ctx, text, preferred)
	if err != nil {
		return nil, err
	}
	if res.CoordSys.Projection == "" {
		return nil, fmt.Errorf("%w: a %s has no coordinate system to probe", geodesy.ErrUnsupported, res.Kind)
	}
	p, err := geodesy.Forward(res.CoordSys, res.Ellipsoid, lon, lat)
	if err != nil {
		return nil, err
	}
	return &ProbeResult{Import: res, Lon: lon, Lat: lat, Point: p}, nil
}

// Outcome classifies an error for metrics labels.
func Outcome(err error) string {
	var se *wkt.SyntaxError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, csconv.ErrBadFormat), errors.As(err, &se), errors.Is(err, ErrInvalidRequest):
		return "bad_format"
	case errors.Is(err, csconv.ErrFlavorUndetermined):
		return "undetermined"
	case errors.Is(err, csconv.ErrMissingRequiredElement):
		return "missing_element"
	case errors.Is(err, csconv.ErrUnsupportedProjection),
		errors.Is(err, csconv.ErrUnsupportedParameterization),
		errors.Is(err, csconv.ErrUnsupportedUnit),
		errors.Is(err, geodesy.ErrUnsupported):
		return "unsupported"
	case errors.Is(err, geodesy.ErrInvalid):
		return "invalid"
	case errors.Is(err, namemap.ErrUnavailable):
		return "unavailable"
	}
	return "error"
}
