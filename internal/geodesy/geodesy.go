// Package geodesy forward-projects geographic points through imported
// coordinate system definitions. It is a sanity check for translations, not
// a general projection library.
package geodesy

import (
	"errors"
	"fmt"
	"math"

	"github.com/wroge/wgs84"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
)

var (
	ErrUnsupported = errors.New("geodesy: projection not supported")
	ErrInvalid     = errors.New("geodesy: invalid definition")
)

// spheroid adapts an EllipsoidDef to wgs84.Spheroid.
type spheroid struct {
	a, fi float64
}

func (s spheroid) A() float64  { return s.a }
func (s spheroid) Fi() float64 { return s.fi }

func datumOf(el model.EllipsoidDef) (wgs84.Datum, error) {
	if el.SemiMajor <= 0 {
		return wgs84.Datum{}, fmt.Errorf("%w: ellipsoid %q has no semi-major axis", ErrInvalid, el.Key)
	}
	fi := el.InverseFlattening()
	if fi == 0 {
		fi = math.Inf(1)
	}
	return wgs84.Datum{
		Spheroid: spheroid{a: el.SemiMajor, fi: fi},
		Area:     wgs84.AreaFunc(func(lon, lat float64) bool { return true }),
	}, nil
}

// Point is a projected coordinate in the system's own unit.
type Point struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Unit string  `json:"unit"`
}

// Forward projects lon/lat (degrees, on the system's own datum) into cs.
// Geographic systems return the input unchanged.
func Forward(cs model.CoordSystemDef, el model.EllipsoidDef, lon, lat float64) (Point, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 || math.IsNaN(lon) || math.IsNaN(lat) {
		return Point{}, fmt.Errorf("%w: point (%v, %v) out of range", ErrInvalid, lon, lat)
	}
	if cs.IsGeographic() {
		return Point{X: lon, Y: lat, Unit: cs.Unit}, nil
	}

	unit := cs.UnitScale
	if unit <= 0 {
		unit = 1
	}
	tm, err := tmFor(cs, unit)
	if err != nil {
		return Point{}, err
	}
	d, err := datumOf(el)
	if err != nil {
		return Point{}, err
	}

	proj := d.TransverseMercator(tm.lon0, tm.lat0, tm.scale, tm.fe, tm.fn)
	x, y, _ := wgs84.Transform(d.LonLat(), proj)(lon, lat, 0)
	if math.IsNaN(x) || math.IsNaN(y) {
		return Point{}, fmt.Errorf("%w: point (%v, %v) does not project", ErrInvalid, lon, lat)
	}
	return Point{X: x / unit, Y: y / unit, Unit: cs.Unit}, nil
}

// tmDef holds a transverse Mercator parameterization in degrees and metres.
type tmDef struct {
	lon0, lat0, scale, fe, fn float64
}

func tmFor(cs model.CoordSystemDef, unit float64) (tmDef, error) {
	switch cs.Projection {
	case "TM", "GAUSSK":
		p := tmDef{
			lon0:  cs.Param(1),
			lat0:  cs.OriginLatitude,
			scale: cs.ScaleReduction,
			fe:    cs.FalseEasting * unit,
			fn:    cs.FalseNorthing * unit,
		}
		if p.scale == 0 {
			p.scale = 1
		}
		return p, nil
	case "UTM":
		zone := int(math.Round(cs.Param(1)))
		if zone < 1 || zone > 60 {
			return tmDef{}, fmt.Errorf("%w: UTM zone %d", ErrInvalid, zone)
		}
		p := tmDef{lon0: float64(zone*6 - 183), scale: 0.9996, fe: 500000}
		if cs.Param(2) < 0 {
			p.fn = 10000000
		}
		return p, nil
	}
	return tmDef{}, fmt.Errorf("%w: %s", ErrUnsupported, cs.Projection)
}
