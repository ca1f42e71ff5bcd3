package csconv

import (
	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
)

// slot names a numeric field of a CoordSystemDef.
type slot uint8

const (
	slotNone slot = iota
	slotOrgLng
	slotOrgLat
	slotScale
	slotFE
	slotFN
	slotPrm1
)

// slotAux is scratch space for values derived during export or consumed by an
// import fixup. It is always cleared on import.
const slotAux = slotPrm1 + model.MaxParams - 1

func prm(n int) slot { return slotPrm1 + slot(n-1) }

func (s slot) get(cs *model.CoordSystemDef) float64 {
	switch s {
	case slotOrgLng:
		return cs.OriginLongitude
	case slotOrgLat:
		return cs.OriginLatitude
	case slotScale:
		return cs.ScaleReduction
	case slotFE:
		return cs.FalseEasting
	case slotFN:
		return cs.FalseNorthing
	case slotNone:
		return 0
	}
	return cs.Param(int(s-slotPrm1) + 1)
}

func (s slot) set(cs *model.CoordSystemDef, v float64) {
	switch s {
	case slotOrgLng:
		cs.OriginLongitude = v
	case slotOrgLat:
		cs.OriginLatitude = v
	case slotScale:
		cs.ScaleReduction = v
	case slotFE:
		cs.FalseEasting = v
	case slotFN:
		cs.FalseNorthing = v
	case slotNone:
	default:
		cs.SetParam(int(s-slotPrm1)+1, v)
	}
}

// binding ties a WKT parameter to a slot. alt lists extra parameter ids
// accepted on import. A constant binding is emitted with value and ignored on
// import. An optional binding is emitted only when its value is nonzero.
type binding struct {
	param    uint32
	alt      []uint32
	slot     slot
	constant bool
	optional bool
	value    float64
}

func bind(param uint32, s slot, alt ...uint32) binding {
	return binding{param: param, slot: s, alt: alt}
}

func opt(param uint32, s slot) binding {
	return binding{param: param, slot: s, optional: true}
}

func fixed(param uint32, v float64) binding {
	return binding{param: param, constant: true, value: v}
}

func (b binding) emit(cs *model.CoordSystemDef) float64 {
	if b.constant {
		return b.value
	}
	return b.slot.get(cs)
}

// variant overrides the emitted name and parameter list for a set of flavors.
type variant struct {
	flavors model.FlavorSet
	name    string
	params  []binding
}

type projection struct {
	key     string
	generic uint32
	// wktName is used when a flavor has no name of its own.
	wktName  string
	params   []binding
	variants []variant
	// usesScale marks projections whose missing scale factor defaults to 1.
	usesScale bool

	importFix func(*importCtx) error
	exportFix func(*exportCtx) error

	byParam map[uint32]binding
}

func (p *projection) variantFor(f model.Flavor) (variant, bool) {
	for _, v := range p.variants {
		if v.flavors.Has(f) {
			return v, true
		}
	}
	return variant{}, false
}

func (p *projection) paramsFor(f model.Flavor) []binding {
	if v, ok := p.variantFor(f); ok && v.params != nil {
		return v.params
	}
	return p.params
}

func (p *projection) index() {
	p.byParam = make(map[uint32]binding)
	add := func(bs []binding) {
		for _, b := range bs {
			if b.constant {
				continue
			}
			for _, id := range append([]uint32{b.param}, b.alt...) {
				if _, dup := p.byParam[id]; !dup {
					p.byParam[id] = b
				}
			}
		}
	}
	add(p.params)
	for _, v := range p.variants {
		add(v.params)
	}
}

var (
	esri   = model.SetOf(model.FlavorESRI)
	oracle = model.SetOf(model.FlavorOracle, model.FlavorOracle9)
)

// Common parameter lists.
var (
	fe = bind(prmFalseEasting, slotFE, prmEastingFalseOrigin)
	fn = bind(prmFalseNorthing, slotFN, prmNorthingFalseOrigin)

	tmParams = []binding{
		bind(prmLatOrigin, slotOrgLat),
		bind(prmCentralMeridian, prm(1)),
		bind(prmScaleFactor, slotScale),
		fe, fn,
	}
	tmESRI = []binding{
		fe, fn,
		bind(prmCentralMeridian, prm(1)),
		bind(prmScaleFactor, slotScale),
		bind(prmLatOrigin, slotOrgLat),
	}

	// Two standard parallel conics: prm1 north, prm2 south.
	conicParams = []binding{
		bind(prmStdParallel1, prm(1)),
		bind(prmStdParallel2, prm(2)),
		bind(prmLatOrigin, slotOrgLat, prmLatFalseOrigin, prmLatCenter),
		bind(prmCentralMeridian, slotOrgLng, prmLngFalseOrigin, prmLngCenter),
		fe, fn,
	}
	conicCenterParams = []binding{
		bind(prmStdParallel1, prm(1)),
		bind(prmStdParallel2, prm(2)),
		bind(prmLatCenter, slotOrgLat, prmLatOrigin, prmLatFalseOrigin),
		bind(prmLngCenter, slotOrgLng, prmCentralMeridian, prmLngFalseOrigin),
		fe, fn,
	}
	conicESRI = []binding{
		fe, fn,
		bind(prmCentralMeridian, slotOrgLng),
		bind(prmStdParallel1, prm(1)),
		bind(prmStdParallel2, prm(2)),
		bind(prmLatOrigin, slotOrgLat),
	}

	originParams = []binding{
		bind(prmLatOrigin, slotOrgLat, prmLatCenter),
		bind(prmCentralMeridian, slotOrgLng, prmLngCenter),
		fe, fn,
	}
	centerParams = []binding{
		bind(prmLatCenter, slotOrgLat, prmLatOrigin),
		bind(prmLngCenter, slotOrgLng, prmCentralMeridian),
		fe, fn,
	}
	originESRI = []binding{
		fe, fn,
		bind(prmCentralMeridian, slotOrgLng),
		bind(prmLatOrigin, slotOrgLat),
	}

	worldParams = []binding{
		bind(prmCentralMeridian, slotOrgLng, prmLngCenter),
		fe, fn,
	}
	worldESRI = []binding{
		fe, fn,
		bind(prmCentralMeridian, slotOrgLng),
	}

	homParams = []binding{
		bind(prmLatCenter, slotOrgLat),
		bind(prmLngCenter, slotOrgLng),
		bind(prmAzimuth, prm(1)),
		bind(prmRectifiedAngle, prm(2)),
		bind(prmScaleFactor, slotScale, prmScaleInitialLine),
		fe, fn,
	}
	homESRI = []binding{
		fe, fn,
		bind(prmScaleFactor, slotScale),
		bind(prmAzimuth, prm(1)),
		bind(prmLngCenter, slotOrgLng),
		bind(prmLatCenter, slotOrgLat),
		opt(prmXYRotation, prm(2)),
	}
)

var projections = []*projection{
	{
		key: "TM", generic: 9807, wktName: "Transverse_Mercator", usesScale: true,
		params:   tmParams,
		variants: []variant{{flavors: esri, params: tmESRI}},
	},
	{
		key: "UTM", generic: 500001, usesScale: false,
		params: []binding{
			bind(prmUTMZone, prm(1)),
			bind(prmHemisphere, prm(2)),
		},
		exportFix: utmToTM,
	},
	{
		key: "GAUSSK", generic: 500002, wktName: "Transverse_Mercator", usesScale: true,
		params:   tmParams,
		variants: []variant{{flavors: esri, params: tmESRI}},
	},
	{
		key: "SYS34", generic: 500003,
		params: []binding{bind(prmSys34Zone, prm(1))},
	},
	{
		key: "MRCAT", generic: 9805, wktName: "Mercator_2SP",
		params: []binding{
			bind(prmStdParallel1, prm(2)),
			bind(prmCentralMeridian, prm(1)),
			bind(prmLatOrigin, slotOrgLat),
			fe, fn,
		},
		variants: []variant{{flavors: esri, params: []binding{
			fe, fn,
			bind(prmCentralMeridian, prm(1)),
			bind(prmStdParallel1, prm(2)),
			opt(prmLatOrigin, slotOrgLat),
		}}},
	},
	{
		key: "MRCATK", generic: 9804, wktName: "Mercator_1SP", usesScale: true,
		params: []binding{
			bind(prmCentralMeridian, prm(1)),
			bind(prmScaleFactor, slotScale),
			fe, fn,
		},
		variants: []variant{{flavors: esri, name: "Mercator", params: []binding{
			fe, fn,
			bind(prmCentralMeridian, prm(1)),
			bind(prmStdParallel1, slotAux),
		}}},
		exportFix: mercatorParallelFromScale,
	},
	{
		key: "MRCATPV", generic: 1024, wktName: "Popular_Visualisation_Pseudo_Mercator",
		params: []binding{
			bind(prmLatOrigin, slotOrgLat),
			bind(prmCentralMeridian, prm(1)),
			fe, fn,
		},
		variants: []variant{{flavors: esri, params: []binding{
			fe, fn,
			bind(prmCentralMeridian, prm(1)),
			bind(prmStdParallel1, slotOrgLat),
			fixed(prmAuxSphereType, 0),
		}}},
	},
	{
		key: "LM1SP", generic: 9801, wktName: "Lambert_Conformal_Conic_1SP", usesScale: true,
		params: []binding{
			bind(prmLatOrigin, slotOrgLat),
			bind(prmCentralMeridian, slotOrgLng),
			bind(prmScaleFactor, slotScale),
			fe, fn,
		},
		variants: []variant{{flavors: esri, name: "Lambert_Conformal_Conic", params: []binding{
			fe, fn,
			bind(prmCentralMeridian, slotOrgLng),
			bind(prmStdParallel1, slotOrgLat),
			bind(prmScaleFactor, slotScale),
			bind(prmLatOrigin, slotOrgLat),
		}}},
	},
	{
		key: "LM2SP", generic: 9802, wktName: "Lambert_Conformal_Conic_2SP",
		params:    conicParams,
		variants:  []variant{{flavors: esri, params: conicESRI}},
		importFix: lambertImport,
	},
	{
		key: "LMBLGN", generic: 9803, wktName: "Lambert_Conformal_Conic_2SP_Belgium",
		params:    conicParams,
		importFix: orderParallels,
	},
	{
		key: "AE", generic: 9822, wktName: "Albers_Conic_Equal_Area",
		params:    conicCenterParams,
		variants:  []variant{{flavors: esri, params: conicESRI}},
		importFix: orderParallels,
	},
	{
		key: "EDCNC", generic: 1119, wktName: "Equidistant_Conic",
		params:    conicCenterParams,
		variants:  []variant{{flavors: esri, params: conicESRI}},
		importFix: orderParallels,
	},
	{
		key: "AZMEA", generic: 9820, wktName: "Lambert_Azimuthal_Equal_Area",
		params:   centerParams,
		variants: []variant{{flavors: esri, params: originESRI}},
	},
	{
		key: "AZMED", generic: 1125, wktName: "Azimuthal_Equidistant",
		params:   centerParams,
		variants: []variant{{flavors: esri, params: originESRI}},
	},
	{
		key: "PSTRO", generic: 9810, wktName: "Polar_Stereographic", usesScale: true,
		params: []binding{
			bind(prmLatOrigin, slotOrgLat),
			bind(prmCentralMeridian, slotOrgLng, prmLngOrigin),
			bind(prmScaleFactor, slotScale),
			fe, fn,
		},
	},
	{
		key: "PSTROSL", generic: 9829, wktName: "Polar_Stereographic_Variant_B",
		params: []binding{
			bind(prmStdParallel1, prm(1)),
			bind(prmCentralMeridian, slotOrgLng, prmLngOrigin),
			fe, fn,
		},
		importFix: polarOrigin,
	},
	{
		key: "OSTRO", generic: 9809, wktName: "Oblique_Stereographic", usesScale: true,
		params: []binding{
			bind(prmLatOrigin, slotOrgLat),
			bind(prmCentralMeridian, slotOrgLng),
			bind(prmScaleFactor, slotScale),
			fe, fn,
		},
		variants: []variant{{flavors: esri, params: []binding{
			fe, fn,
			bind(prmCentralMeridian, slotOrgLng),
			bind(prmScaleFactor, slotScale),
			bind(prmLatOrigin, slotOrgLat),
		}}},
	},
	{
		key: "KROVAK", generic: 9819, wktName: "Krovak", usesScale: true,
		params: []binding{
			bind(prmLatCenter, slotOrgLat),
			bind(prmLngCenter, slotOrgLng, prmLngOrigin),
			bind(prmAzimuth, slotAux, prmColatConeAxis),
			bind(prmPseudoParallel, prm(3)),
			bind(prmScaleFactor, slotScale, prmScalePseudoParallel),
			fe, fn,
		},
		variants: []variant{{flavors: model.SetOf(model.FlavorAutodesk), params: []binding{
			bind(prmPoleLng, prm(1)),
			bind(prmPoleLat, prm(2)),
			bind(prmLatCenter, slotOrgLat),
			bind(prmLngCenter, slotOrgLng, prmLngOrigin),
			bind(prmPseudoParallel, prm(3)),
			bind(prmScaleFactor, slotScale, prmScalePseudoParallel),
			fe, fn,
		}}},
		importFix: krovakPole,
		exportFix: krovakAzimuth,
	},
	{
		key: "CSINI", generic: 9806, wktName: "Cassini_Soldner",
		params: originParams,
		variants: []variant{{flavors: esri, params: []binding{
			fe, fn,
			bind(prmCentralMeridian, slotOrgLng),
			fixed(prmScaleFactor, 1),
			bind(prmLatOrigin, slotOrgLat),
		}}},
	},
	{key: "PLYCN", generic: 9818, wktName: "Polyconic", params: originParams, variants: []variant{{flavors: esri, params: originESRI}}},
	{key: "MILLER", generic: 500005, wktName: "Miller_Cylindrical", params: worldParams, variants: []variant{{flavors: esri, params: worldESRI}}},
	{key: "ROBINSON", generic: 500006, wktName: "Robinson", params: worldParams, variants: []variant{{flavors: esri, params: worldESRI}}},
	{key: "SINUS", generic: 500007, wktName: "Sinusoidal", params: worldParams, variants: []variant{{flavors: esri, params: worldESRI}}},
	{key: "MOLWD", generic: 500008, wktName: "Mollweide", params: worldParams, variants: []variant{{flavors: esri, params: worldESRI}}},
	{key: "VDGRNTN", generic: 500010, wktName: "VanDerGrinten", params: worldParams, variants: []variant{{flavors: esri, params: worldESRI}}},
	{
		key: "EDCYL", generic: 1028, wktName: "Equirectangular",
		params: []binding{
			bind(prmStdParallel1, prm(1), prmLatOrigin),
			bind(prmCentralMeridian, slotOrgLng),
			fe, fn,
		},
		variants: []variant{{flavors: esri, params: []binding{
			fe, fn,
			bind(prmCentralMeridian, slotOrgLng),
			bind(prmStdParallel1, prm(1)),
		}}},
	},
	{key: "GNOMONIC", generic: 500009, wktName: "Gnomonic", params: originParams, variants: []variant{{flavors: esri, params: []binding{
		fe, fn,
		bind(prmLngCenter, slotOrgLng),
		bind(prmLatCenter, slotOrgLat),
	}}}},
	{key: "ORTHO", generic: 9840, wktName: "Orthographic", params: originParams, variants: []variant{{flavors: esri, params: []binding{
		fe, fn,
		bind(prmLngCenter, slotOrgLng),
		bind(prmLatCenter, slotOrgLat),
	}}}},
	{
		key: "HOM1XY", generic: 9812, wktName: "Hotine_Oblique_Mercator", usesScale: true,
		params:   homParams,
		variants: []variant{{flavors: esri, params: homESRI}},
	},
	{
		key: "RSKEW", generic: 9815, wktName: "Oblique_Mercator", usesScale: true,
		params:   homParams,
		variants: []variant{{flavors: esri, params: homESRI}},
	},
	{key: "NZEALAND", generic: 9811, wktName: "New_Zealand_Map_Grid", params: originParams},
	{key: "SWISS", generic: 500011, wktName: "Swiss_Oblique_Cylindrical", params: centerParams},
	{
		key: "BONNE", generic: 9827, wktName: "Bonne",
		params: []binding{
			bind(prmLatOrigin, slotOrgLat, prmStdParallel1),
			bind(prmCentralMeridian, slotOrgLng),
			fe, fn,
		},
		variants: []variant{{flavors: esri, params: []binding{
			fe, fn,
			bind(prmCentralMeridian, slotOrgLng),
			bind(prmStdParallel1, slotOrgLat),
		}}},
	},
}

var (
	projByKey     = map[string]*projection{}
	projByGeneric = map[uint32]*projection{}
)

func init() {
	for _, p := range projections {
		p.index()
		projByKey[p.key] = p
		if _, dup := projByGeneric[p.generic]; !dup {
			projByGeneric[p.generic] = p
		}
	}
}

// Projections lists the supported projection keys in table order.
func Projections() []string {
	out := make([]string, len(projections))
	for i, p := range projections {
		out[i] = p.key
	}
	return out
}

// oracleOps maps ranges of EPSG coordinate operation codes found in Oracle
// "(EPSG OP nnnn)" projection names to projection keys.
var oracleOps = []struct {
	lo, hi int
	key    string
}{
	{16001, 16060, "TM"}, // UTM north
	{16101, 16160, "TM"}, // UTM south
	{16201, 16260, "TM"}, // 6 degree Gauss-Kruger
	{16261, 16299, "TM"}, // 3 degree Gauss-Kruger
	{16301, 16360, "TM"},
	{17001, 17099, "TM"},
	{17101, 17199, "TM"},
	{18001, 18099, "TM"},
	{19916, 19916, "TM"}, // British National Grid
	{10101, 10199, "TM"},
	{10401, 10499, "LM2SP"},
	{11001, 11099, "LM2SP"},
	{18101, 18199, "LM2SP"},
	{19986, 19986, "AZMEA"},
	{19846, 19846, "AE"},
	{19847, 19847, "AE"},
	{16400, 16499, "MRCAT"},
	{19883, 19883, "MRCATK"},
	{19985, 19985, "AE"},
}

func oracleOpProjection(code int) (*projection, bool) {
	if p, ok := projByGeneric[uint32(code)]; ok {
		return p, true
	}
	for _, r := range oracleOps {
		if code >= r.lo && code <= r.hi {
			p, ok := projByKey[r.key]
			return p, ok
		}
	}
	return nil, false
}
