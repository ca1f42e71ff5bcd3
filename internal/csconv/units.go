package csconv

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/namemap"
)

type unitDef struct {
	generic uint32
	key     string
	// factor converts to metres (linear) or radians (angular).
	factor  float64
	angular bool
}

const degree = math.Pi / 180

var units = []unitDef{
	{9001, "Meter", 1, false},
	{9002, "Foot", 0.3048, false},
	{9003, "US Foot", 1200.0 / 3937.0, false},
	{9036, "Kilometer", 1000, false},
	{9080, "IndianFoot", 0.3047995102481469, false},
	{9005, "ClarkeFoot", 0.3047972654, false},
	{9097, "Chain", 20.1168, false},
	{9096, "Yard", 0.9144, false},
	{9098, "Link", 0.201168, false},
	{9102, "Degree", degree, true},
	{9105, "Grad", math.Pi / 200, true},
	{9101, "Radian", 1, true},
	{9104, "Second", math.Pi / 648000, true},
	{9103, "Minute", math.Pi / 10800, true},
}

var (
	meter     = units[0]
	degreeDef = units[9]
)

func unitByGeneric(id uint32) (unitDef, bool) {
	for _, u := range units {
		if u.generic == id {
			return u, true
		}
	}
	return unitDef{}, false
}

func unitByKey(key string) (unitDef, bool) {
	for _, u := range units {
		if u.key == key {
			return u, true
		}
	}
	return unitDef{}, false
}

func unitByFactor(factor float64, angular bool) (unitDef, bool) {
	for _, u := range units {
		if u.angular == angular && scalar.EqualWithinRel(u.factor, factor, 1e-9) {
			return u, true
		}
	}
	return unitDef{}, false
}

// resolveUnit identifies a WKT UNIT by name in the flavor, by name in any
// flavor, then by factor. An unknown unit with a usable factor is kept under
// its own name.
func (c *Converter) resolveUnit(flavor model.Flavor, name string, factor float64, angular bool) (unitDef, bool, error) {
	typ := namemap.TypeLinearUnit
	if angular {
		typ = namemap.TypeAngularUnit
	}
	if id, ok := c.names.Locate(typ, flavor, name); ok {
		if u, ok := unitByGeneric(id); ok {
			return withFactor(u, factor), true, nil
		}
	}
	if id, _, ok := c.names.LocateAny(typ, name); ok {
		if u, ok := unitByGeneric(id); ok {
			return withFactor(u, factor), true, nil
		}
	}
	if u, ok := unitByFactor(factor, angular); ok {
		return u, true, nil
	}
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return unitDef{}, false, fmt.Errorf("%w: %q with factor %v", ErrUnsupportedUnit, name, factor)
	}
	return unitDef{key: name, factor: factor, angular: angular}, false, nil
}

// withFactor keeps the table factor unless the text disagrees materially.
func withFactor(u unitDef, factor float64) unitDef {
	if factor > 0 && !scalar.EqualWithinRel(u.factor, factor, 1e-6) {
		u.factor = factor
	}
	return u
}

// toDegrees converts an angle given in an angular unit of factor radians.
func toDegrees(v, factor float64) float64 {
	if factor <= 0 || scalar.EqualWithinRel(factor, degree, 1e-10) {
		return v
	}
	return v * factor / degree
}

func (c *Converter) unitName(flavor model.Flavor, u unitDef) string {
	typ := namemap.TypeLinearUnit
	if u.angular {
		typ = namemap.TypeAngularUnit
	}
	if u.generic != 0 {
		if n, ok := c.names.NameFor(typ, flavor, u.generic); ok {
			return n
		}
		if n, ok := c.names.NameFor(typ, model.FlavorOGC, u.generic); ok {
			return n
		}
	}
	return u.key
}

type primeMeridian struct {
	generic uint32
	name    string
	lng     float64
}

var primeMeridians = []primeMeridian{
	{8901, "Greenwich", 0},
	{8903, "Paris", 2.33722917},
	{8909, "Ferro", -17.6666666666667},
	{8904, "Bogota", -74.0809166666667},
}

func (c *Converter) primeMeridianName(flavor model.Flavor, lng float64) string {
	for _, pm := range primeMeridians {
		if scalar.EqualWithinAbs(pm.lng, lng, 1e-9) {
			if n, ok := c.names.NameFor(namemap.TypePrimeMeridian, flavor, pm.generic); ok {
				return n
			}
			return pm.name
		}
	}
	return "Unknown"
}
