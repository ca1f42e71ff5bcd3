// Package model defines the geodetic definition records shared across the service.
package model

import (
	"errors"
	"fmt"
	"math"
)

// MaxParams is the number of generic projection parameter slots in a CoordSystemDef.
const MaxParams = 24

// Quadrant encodes axis direction and order. 1 is (East,North); 2 (West,North);
// 3 (West,South); 4 (East,South). A negative value swaps the axis order.
type Quadrant int

const DefaultQuadrant Quadrant = 1

// IsDefault reports whether q needs no AXIS clause. Zero is treated as the default.
func (q Quadrant) IsDefault() bool { return q == 0 || q == DefaultQuadrant }

type DatumMethod string

const (
	MethodNone       DatumMethod = "NONE"
	MethodGeocentric DatumMethod = "GEOCENTRIC_TRANSLATION"
	MethodBursaWolf  DatumMethod = "BURSA_WOLF"
	MethodWGS84Equiv DatumMethod = "WGS84"
	MethodCoordFrame DatumMethod = "COORDINATE_FRAME"
)

type EllipsoidDef struct {
	Key          string  `json:"key" yaml:"key"`
	Description  string  `json:"description,omitempty" yaml:"description,omitempty"`
	SemiMajor    float64 `json:"semi_major" yaml:"semi_major"`
	SemiMinor    float64 `json:"semi_minor" yaml:"semi_minor"`
	Flattening   float64 `json:"flattening" yaml:"flattening"`
	Eccentricity float64 `json:"eccentricity" yaml:"eccentricity"`
	EPSG         int     `json:"epsg,omitempty" yaml:"epsg,omitempty"`
}

// ErrInvalidEllipsoid reports axes or a flattening that describe no oblate
// ellipsoid.
var ErrInvalidEllipsoid = errors.New("invalid ellipsoid")

// CheckEllipsoid validates a semi-major axis and a reciprocal flattening
// before NewEllipsoid derives from them. Zero is a sphere; otherwise the
// reciprocal flattening must exceed 1.
func CheckEllipsoid(semiMajor, invFlat float64) error {
	if !(semiMajor > 0) || math.IsInf(semiMajor, 0) {
		return fmt.Errorf("%w: semi-major axis %v", ErrInvalidEllipsoid, semiMajor)
	}
	if math.IsNaN(invFlat) || math.IsInf(invFlat, 0) || invFlat < 0 || (invFlat > 0 && invFlat <= 1) {
		return fmt.Errorf("%w: reciprocal flattening %v", ErrInvalidEllipsoid, invFlat)
	}
	return nil
}

// NewEllipsoid derives the dependent fields from a semi-major axis and a reciprocal
// flattening. A reciprocal flattening of zero or above 1000 denotes a sphere.
// Values rejected by CheckEllipsoid also yield a sphere.
func NewEllipsoid(key string, semiMajor, invFlat float64) EllipsoidDef {
	e := EllipsoidDef{Key: key, SemiMajor: semiMajor}
	if invFlat > 1 && invFlat <= 1000 {
		e.Flattening = 1 / invFlat
	}
	e.derive()
	return e
}

// NewEllipsoidAxes derives flattening and eccentricity from both semi-axes.
func NewEllipsoidAxes(key string, semiMajor, semiMinor float64) EllipsoidDef {
	e := EllipsoidDef{Key: key, SemiMajor: semiMajor}
	if semiMajor > 0 && semiMinor > 0 && semiMinor < semiMajor {
		e.Flattening = (semiMajor - semiMinor) / semiMajor
	}
	e.derive()
	return e
}

func (e *EllipsoidDef) derive() {
	e.SemiMinor = e.SemiMajor * (1 - e.Flattening)
	e.Eccentricity = math.Sqrt(2*e.Flattening - e.Flattening*e.Flattening)
}

// InverseFlattening returns 0 for a sphere.
func (e EllipsoidDef) InverseFlattening() float64 {
	if e.Flattening == 0 {
		return 0
	}
	return 1 / e.Flattening
}

func (e EllipsoidDef) IsSphere() bool { return e.Flattening == 0 }

// EccentricitySquared is e².
func (e EllipsoidDef) EccentricitySquared() float64 { return e.Eccentricity * e.Eccentricity }

type DatumDef struct {
	Key          string      `json:"key" yaml:"key"`
	Description  string      `json:"description,omitempty" yaml:"description,omitempty"`
	EllipsoidKey string      `json:"ellipsoid" yaml:"ellipsoid"`
	DeltaX       float64     `json:"delta_x" yaml:"delta_x"`
	DeltaY       float64     `json:"delta_y" yaml:"delta_y"`
	DeltaZ       float64     `json:"delta_z" yaml:"delta_z"`
	RotX         float64     `json:"rot_x" yaml:"rot_x"`
	RotY         float64     `json:"rot_y" yaml:"rot_y"`
	RotZ         float64     `json:"rot_z" yaml:"rot_z"`
	Scale        float64     `json:"scale_ppm" yaml:"scale_ppm"`
	Method       DatumMethod `json:"method" yaml:"method"`
	// NoTransform is set when the definition carries no transformation to WGS84.
	NoTransform bool   `json:"no_transform" yaml:"no_transform"`
	EPSG        int    `json:"epsg,omitempty" yaml:"epsg,omitempty"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
}

// Coefficients returns the seven transformation parameters in TOWGS84 order.
func (d DatumDef) Coefficients() [7]float64 {
	return [7]float64{d.DeltaX, d.DeltaY, d.DeltaZ, d.RotX, d.RotY, d.RotZ, d.Scale}
}

// SetCoefficients stores up to seven TOWGS84 values and infers the method.
func (d *DatumDef) SetCoefficients(v []float64) {
	var c [7]float64
	copy(c[:], v)
	d.DeltaX, d.DeltaY, d.DeltaZ = c[0], c[1], c[2]
	d.RotX, d.RotY, d.RotZ, d.Scale = c[3], c[4], c[5], c[6]
	d.NoTransform = false
	switch {
	case c[3] != 0 || c[4] != 0 || c[5] != 0 || c[6] != 0:
		d.Method = MethodBursaWolf
	case c[0] != 0 || c[1] != 0 || c[2] != 0:
		d.Method = MethodGeocentric
	default:
		d.Method = MethodWGS84Equiv
	}
}

// HasRotation reports whether the rotation or scale terms are in use.
func (d DatumDef) HasRotation() bool {
	return d.RotX != 0 || d.RotY != 0 || d.RotZ != 0 || d.Scale != 0
}

type CoordSystemDef struct {
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
	Projection  string `json:"projection"`
	// Exactly one of DatumKey and EllipsoidKey is authoritative; DatumKey wins when set.
	DatumKey        string             `json:"datum,omitempty"`
	EllipsoidKey    string             `json:"ellipsoid,omitempty"`
	Unit            string             `json:"unit"`
	UnitScale       float64            `json:"unit_scale"`
	OriginLongitude float64            `json:"org_lng"`
	OriginLatitude  float64            `json:"org_lat"`
	ScaleReduction  float64            `json:"scl_red"`
	FalseEasting    float64            `json:"x_off"`
	FalseNorthing   float64            `json:"y_off"`
	Params          [MaxParams]float64 `json:"params"`
	Quadrant        Quadrant           `json:"quad"`
	EPSG            int                `json:"epsg,omitempty"`
	Flavor          Flavor             `json:"flavor"`
}

// Param returns 1-based parameter slot n.
func (c CoordSystemDef) Param(n int) float64 {
	if n < 1 || n > MaxParams {
		return 0
	}
	return c.Params[n-1]
}

func (c *CoordSystemDef) SetParam(n int, v float64) {
	if n < 1 || n > MaxParams {
		return
	}
	c.Params[n-1] = v
}

// IsGeographic reports whether the system is an unprojected lat/long system.
func (c CoordSystemDef) IsGeographic() bool { return c.Projection == "LL" }

func (c CoordSystemDef) String() string {
	return fmt.Sprintf("%s(%s, %s)", c.Key, c.Projection, c.Unit)
}
