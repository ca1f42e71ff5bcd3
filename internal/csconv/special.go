package csconv

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
)

// UTM constants shared by every zone.
const (
	utmScale         = 0.9996
	utmFalseEasting  = 500000.0
	utmFalseNorthing = 10000000.0
)

// utmToTM rewrites a zone/hemisphere UTM system as the equivalent Transverse
// Mercator parameter set. Only the Autodesk flavor encodes UTM natively.
func utmToTM(x *exportCtx) error {
	if x.flavor == model.FlavorAutodesk {
		return nil
	}
	zone := int(math.Round(x.cs.Param(1)))
	if zone < 1 || zone > 60 {
		return fmt.Errorf("%w: UTM zone %d", ErrUnsupportedParameterization, zone)
	}
	unit := x.cs.UnitScale
	if unit <= 0 {
		unit = 1
	}
	south := x.cs.Param(2) < 0

	cs := &x.cs
	cs.Projection = "TM"
	cs.Params = [model.MaxParams]float64{}
	cs.SetParam(1, float64(zone*6-183))
	cs.OriginLatitude = 0
	cs.ScaleReduction = utmScale
	cs.FalseEasting = utmFalseEasting / unit
	cs.FalseNorthing = 0
	if south {
		cs.FalseNorthing = utmFalseNorthing / unit
	}
	x.proj = projByKey["TM"]
	return nil
}

// mercatorParallelFromScale derives the standard parallel at which a Mercator
// with scale factor k is true to scale: sin(phi) = sqrt((1-k^2)/(1-k^2 e^2)).
func mercatorParallelFromScale(x *exportCtx) error {
	if !esri.Has(x.flavor) {
		return nil
	}
	k := x.cs.ScaleReduction
	if k <= 0 || k > 1 {
		return fmt.Errorf("%w: Mercator scale factor %v has no standard parallel", ErrUnsupportedParameterization, k)
	}
	e2 := x.ell.EccentricitySquared()
	s := math.Sqrt((1 - k*k) / (1 - k*k*e2))
	slotAux.set(&x.cs, math.Asin(s)/degree)
	return nil
}

// lambertImport turns a one-parallel Lambert (as ESRI writes it) into LM1SP and
// orders true two-parallel definitions.
func lambertImport(x *importCtx) error {
	has1, has2 := x.set[prm(1)], x.set[prm(2)]
	sp1, sp2 := x.cs.Param(1), x.cs.Param(2)
	if !has1 && has2 {
		sp1, has1, has2 = sp2, true, false
	}
	if has1 && (!has2 || scalar.EqualWithinAbs(sp1, sp2, snapTolerance)) {
		if x.set[slotOrgLat] && !scalar.EqualWithinAbs(x.cs.OriginLatitude, sp1, 1e-9) {
			return fmt.Errorf("%w: Lambert standard parallel %v differs from latitude of origin %v",
				ErrUnsupportedParameterization, sp1, x.cs.OriginLatitude)
		}
		x.proj = projByKey["LM1SP"]
		x.cs.Projection = x.proj.key
		x.cs.OriginLatitude = sp1
		x.cs.SetParam(1, 0)
		x.cs.SetParam(2, 0)
		x.cs.ScaleReduction = 1
		if k, ok := x.raw[prmScaleFactor]; ok && k > 0 {
			x.cs.ScaleReduction = k
		}
		return nil
	}
	return orderParallels(x)
}

// orderParallels keeps the northern standard parallel in slot 1.
func orderParallels(x *importCtx) error {
	if p1, p2 := x.cs.Param(1), x.cs.Param(2); p1 < p2 {
		x.cs.SetParam(1, p2)
		x.cs.SetParam(2, p1)
	}
	return nil
}

func polarOrigin(x *importCtx) error {
	x.cs.OriginLatitude = 90
	if x.cs.Param(1) < 0 {
		x.cs.OriginLatitude = -90
	}
	return nil
}

// krovakPole rebuilds the oblique pole from the EPSG parameterization when the
// native pole parameters are absent. The pole sits on the central longitude at
// 90 degrees minus the co-latitude of the cone axis.
func krovakPole(x *importCtx) error {
	if !x.set[prm(1)] {
		x.cs.SetParam(1, x.cs.OriginLongitude)
	}
	if !x.set[prm(2)] {
		az, ok := x.raw[prmAzimuth]
		if !ok {
			az, ok = x.raw[prmColatConeAxis]
		}
		if !ok {
			return fmt.Errorf("%w: Krovak needs an azimuth or a pole latitude", ErrMissingRequiredElement)
		}
		x.cs.SetParam(2, 90-az)
	}
	return nil
}

func krovakAzimuth(x *exportCtx) error {
	slotAux.set(&x.cs, 90-x.cs.Param(2))
	return nil
}
