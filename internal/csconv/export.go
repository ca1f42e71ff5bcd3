package csconv

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/namemap"
	"github.com/mohammed-shakir/cs-wkt/internal/wkt"
)

// Output precision for SPHEROID and TOWGS84 values.
const (
	semiMajorDecimals = 3
	invFlatDecimals   = 9
	towgs84Decimals   = 9
)

// exportCtx is the state a projection export fixup works on. cs is a copy
// the fixup may rewrite freely.
type exportCtx struct {
	flavor model.Flavor
	cs     model.CoordSystemDef
	ell    model.EllipsoidDef
	proj   *projection
}

// errNoFlavorName marks a projection the target flavor has no name for.
var errNoFlavorName = errors.New("projection not representable in flavor")

type exporter struct {
	c      *Converter
	opts   ExportOptions
	flavor model.Flavor
	res    *ExportResult
}

func (c *Converter) newExporter(opts ExportOptions) *exporter {
	f := opts.flavor()
	return &exporter{
		c:      c,
		opts:   opts,
		flavor: f,
		res:    &ExportResult{Flavor: f, Requested: f},
	}
}

func (e *exporter) warn(format string, args ...any) {
	e.res.Warnings = append(e.res.Warnings, fmt.Sprintf(format, args...))
}

// ExportCoordSys writes a coordinate system as WKT. dt may be the zero value
// for a system referenced to its ellipsoid alone, and el may be the zero value
// when the dictionary can supply it. When the requested flavor has no name for
// the projection the Autodesk flavor is written instead and the result is
// marked Substituted, unless substitution is disabled.
func (c *Converter) ExportCoordSys(cs model.CoordSystemDef, dt model.DatumDef, el model.EllipsoidDef, opts ExportOptions) (*ExportResult, error) {
	e := c.newExporter(opts)
	if cs.Projection == "NERTH" {
		e.res.WKT = e.local(cs).String()
		return e.res, nil
	}
	dt, el, err := c.complete(cs, dt, el)
	if err != nil {
		return nil, err
	}
	b, err := e.coordSys(cs, dt, el)
	if errors.Is(err, errNoFlavorName) {
		if opts.DisableSubstitution {
			return nil, fmt.Errorf("%w: %s has no %s name", ErrUnsupportedProjection, cs.Projection, e.flavor)
		}
		e.flavor = model.FlavorAutodesk
		e.res.Flavor = model.FlavorAutodesk
		e.res.Substituted = true
		e.res.Warnings = nil
		b, err = e.coordSys(cs, dt, el)
	}
	if err != nil {
		return nil, err
	}
	e.res.WKT = b.String()
	return e.res, nil
}

// ExportGeogCS writes the Greenwich, degree based geographic system of a datum.
func (c *Converter) ExportGeogCS(dt model.DatumDef, el model.EllipsoidDef, opts ExportOptions) (*ExportResult, error) {
	dt, el, err := c.complete(model.CoordSystemDef{DatumKey: dt.Key}, dt, el)
	if err != nil {
		return nil, err
	}
	e := c.newExporter(opts)
	datum := e.datum(dt, el)
	g := wkt.New(wkt.GeogCS, e.geogName(dt, datumName(datum))).Add(
		datum,
		e.primeMeridian(0, degreeDef),
		e.unit(degreeDef),
	)
	e.res.WKT = g.String()
	return e.res, nil
}

func (c *Converter) ExportDatum(dt model.DatumDef, el model.EllipsoidDef, opts ExportOptions) (*ExportResult, error) {
	dt, el, err := c.complete(model.CoordSystemDef{DatumKey: dt.Key}, dt, el)
	if err != nil {
		return nil, err
	}
	e := c.newExporter(opts)
	e.res.WKT = e.datum(dt, el).String()
	return e.res, nil
}

func (c *Converter) ExportEllipsoid(el model.EllipsoidDef, opts ExportOptions) (*ExportResult, error) {
	if el.SemiMajor <= 0 {
		d, ok := c.dict.Ellipsoid(el.Key)
		if !ok {
			return nil, fmt.Errorf("%w: ellipsoid %q has no semi-major axis", ErrMissingRequiredElement, el.Key)
		}
		el = d
	}
	e := c.newExporter(opts)
	e.res.WKT = e.spheroid(el).String()
	return e.res, nil
}

// complete fills a datum or ellipsoid given only by key from the dictionary.
func (c *Converter) complete(cs model.CoordSystemDef, dt model.DatumDef, el model.EllipsoidDef) (model.DatumDef, model.EllipsoidDef, error) {
	if dt.EllipsoidKey == "" && cs.DatumKey != "" {
		d, ok := c.dict.Datum(cs.DatumKey)
		if !ok {
			return dt, el, fmt.Errorf("%w: datum %q is not defined", ErrMissingRequiredElement, cs.DatumKey)
		}
		dt = d
	}
	if el.SemiMajor <= 0 {
		key := dt.EllipsoidKey
		if key == "" {
			key = cs.EllipsoidKey
		}
		if key == "" {
			key = el.Key
		}
		d, ok := c.dict.Ellipsoid(key)
		if !ok {
			return dt, el, fmt.Errorf("%w: ellipsoid %q is not defined", ErrMissingRequiredElement, key)
		}
		el = d
	}
	return dt, el, nil
}

func (e *exporter) coordSys(cs model.CoordSystemDef, dt model.DatumDef, el model.EllipsoidDef) (*wkt.Builder, error) {
	if cs.IsGeographic() {
		return e.geographic(cs, dt, el), nil
	}
	return e.projected(cs, dt, el)
}

func (e *exporter) geographic(cs model.CoordSystemDef, dt model.DatumDef, el model.EllipsoidDef) *wkt.Builder {
	ang := e.unitOf(cs, true)
	datum := e.datum(dt, el)
	name := e.name(namemap.TypeProjectedOrGeographic, cs.Key, cs.Description)
	if cs.Key == "" && cs.Description == "" {
		name = e.geogName(dt, datumName(datum))
	}
	return wkt.New(wkt.GeogCS, name).Add(
		datum,
		e.primeMeridian(cs.OriginLongitude, ang),
		e.unit(ang),
	).Add(axesFor(cs.Quadrant, true)...).Add(
		e.authority(namemap.TypeProjectedOrGeographic, cs.Key, cs.EPSG),
	)
}

func (e *exporter) projected(cs model.CoordSystemDef, dt model.DatumDef, el model.EllipsoidDef) (*wkt.Builder, error) {
	p, ok := projByKey[cs.Projection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProjection, cs.Projection)
	}
	x := &exportCtx{flavor: e.flavor, cs: cs, ell: el, proj: p}
	if p.exportFix != nil {
		if err := p.exportFix(x); err != nil {
			return nil, err
		}
	}
	projName, ok := e.c.projectionName(x.flavor, x.proj)
	if !ok {
		return nil, errNoFlavorName
	}

	datum := e.datum(dt, el)
	geog := wkt.New(wkt.GeogCS, e.geogName(dt, datumName(datum))).Add(
		datum,
		e.primeMeridian(0, degreeDef),
		e.unit(degreeDef),
	)
	b := wkt.New(wkt.ProjCS, e.name(namemap.TypeProjectedOrGeographic, cs.Key, cs.Description)).Add(
		geog,
		wkt.New(wkt.Projection, projName),
	)
	for _, bd := range x.proj.paramsFor(x.flavor) {
		if bd.optional && bd.emit(&x.cs) == 0 {
			continue
		}
		name, ok := e.c.paramName(x.flavor, bd.param)
		if !ok {
			return nil, fmt.Errorf("%w: parameter %d has no name", ErrUnsupportedParameterization, bd.param)
		}
		b.Add(wkt.New(wkt.Parameter, name).Num(formatParam(bd.param, bd.emit(&x.cs))))
	}
	b.Add(e.unit(e.unitOf(cs, false)))
	b.Add(axesFor(cs.Quadrant, false)...)
	b.Add(e.authority(namemap.TypeProjectedOrGeographic, cs.Key, cs.EPSG))
	return b, nil
}

func (e *exporter) local(cs model.CoordSystemDef) *wkt.Builder {
	return wkt.New(wkt.LocalCS, e.name(namemap.TypeProjectedOrGeographic, cs.Key, cs.Description)).Add(
		wkt.New(wkt.LocalDatum, "Local Datum").Num("0"),
		e.unit(e.unitOf(cs, false)),
	).Add(axesFor(cs.Quadrant, false)...)
}

func (e *exporter) datum(dt model.DatumDef, el model.EllipsoidDef) *wkt.Builder {
	name := e.name(namemap.TypeDatum, dt.Key, dt.Description)
	if dt.Key == "" && dt.Description == "" {
		// Referenced to an ellipsoid only.
		name = fmt.Sprintf("Not specified (based on %s ellipsoid)", e.name(namemap.TypeEllipsoid, el.Key, el.Description))
	}
	b := wkt.New(wkt.Datum, name).Add(e.spheroid(el))
	if e.flavor != model.FlavorESRI && !dt.NoTransform && dt.Method != model.MethodNone && dt.Method != "" {
		tw := wkt.Bare(wkt.ToWGS84)
		for _, v := range dt.Coefficients() {
			tw.Num(formatFixed(v, towgs84Decimals))
		}
		b.Add(tw)
	}
	return b.Add(e.authority(namemap.TypeDatum, dt.Key, dt.EPSG))
}

func (e *exporter) spheroid(el model.EllipsoidDef) *wkt.Builder {
	rf := "0.0"
	if !el.IsSphere() {
		rf = formatFixed(el.InverseFlattening(), invFlatDecimals)
	}
	return wkt.New(wkt.Spheroid, e.name(namemap.TypeEllipsoid, el.Key, el.Description)).
		Num(formatFixed(el.SemiMajor, semiMajorDecimals)).
		Num(rf).
		Add(e.authority(namemap.TypeEllipsoid, el.Key, el.EPSG))
}

func (e *exporter) primeMeridian(lng float64, ang unitDef) *wkt.Builder {
	return wkt.New(wkt.PrimeM, e.c.primeMeridianName(e.flavor, lng)).
		Num(formatFixed(fromDegrees(lng, ang.factor), precLng.decimals()))
}

func (e *exporter) unit(u unitDef) *wkt.Builder {
	return wkt.New(wkt.Unit, e.c.unitName(e.flavor, u)).Num(formatFactor(u.factor))
}

// unitOf resolves the unit of a definition, keeping an unlisted unit under its
// own name and factor.
func (e *exporter) unitOf(cs model.CoordSystemDef, angular bool) unitDef {
	if u, ok := unitByKey(cs.Unit); ok && u.angular == angular {
		return withFactor(u, cs.UnitScale)
	}
	if cs.Unit != "" && cs.UnitScale > 0 {
		return unitDef{key: cs.Unit, factor: cs.UnitScale, angular: angular}
	}
	if angular {
		return degreeDef
	}
	return meter
}

// name gives a key its name in the target flavor, falling back to the key
// itself and then the description.
func (e *exporter) name(typ namemap.ObjectType, key, desc string) string {
	if key != "" {
		if n, ok := e.c.names.MapName(typ, e.flavor, model.FlavorAutodesk, key); ok {
			return n
		}
		if e.flavor != model.FlavorAutodesk {
			e.warn("%s %q has no %s name; key written", typ, key, e.flavor)
		}
		return key
	}
	if desc != "" {
		return desc
	}
	return "Unnamed"
}

// geogName names the geographic system under a projected one: the flavor's
// name for the system whose code accompanies the datum code, else an ESRI
// style "GCS_" name, else the datum name.
func (e *exporter) geogName(dt model.DatumDef, datumName string) string {
	m := e.c.names
	if dt.Key != "" {
		if gid, ok := m.Locate(namemap.TypeDatum, model.FlavorAutodesk, dt.Key); ok && gid > 2000 && gid < namemap.SyntheticBase {
			if n, ok := m.NameFor(namemap.TypeGeographicCS, e.flavor, gid-2000); ok {
				return n
			}
		}
	}
	if e.flavor == model.FlavorESRI {
		return "GCS_" + strings.TrimPrefix(datumName, "D_")
	}
	return datumName
}

func datumName(b *wkt.Builder) string { return b.Name() }

func (e *exporter) authority(typ namemap.ObjectType, key string, code int) *wkt.Builder {
	if !e.opts.Authority {
		return nil
	}
	if code <= 0 && key != "" {
		m := e.c.names
		if gid, ok := m.Locate(typ, model.FlavorAutodesk, key); ok {
			if n, ok := m.NumberFor(typ, model.FlavorEPSG, gid); ok {
				code = int(n)
			}
		}
	}
	if code <= 0 {
		return nil
	}
	return wkt.New(wkt.Authority, "EPSG").Str(strconv.Itoa(code))
}

// projectionName is the variant name, the flavor's own name, then the
// canonical WKT name. The Autodesk flavor can always fall back to the key.
func (c *Converter) projectionName(flavor model.Flavor, p *projection) (string, bool) {
	if v, ok := p.variantFor(flavor); ok && v.name != "" {
		return v.name, true
	}
	if n, ok := c.names.NameFor(namemap.TypeProjection, flavor, p.generic); ok {
		return n, true
	}
	if p.wktName != "" {
		return p.wktName, true
	}
	if flavor == model.FlavorAutodesk {
		return p.key, true
	}
	return "", false
}

func (c *Converter) paramName(flavor model.Flavor, id uint32) (string, bool) {
	for _, f := range [...]model.Flavor{flavor, model.FlavorOGC, model.FlavorEPSG, model.FlavorAutodesk} {
		if n, ok := c.names.NameFor(namemap.TypeParameter, f, id); ok {
			return n, true
		}
	}
	return "", false
}

// fromDegrees converts an angle in degrees to a unit of factor radians.
func fromDegrees(v, factor float64) float64 {
	if factor <= 0 || scalar.EqualWithinRel(factor, degree, 1e-10) {
		return v
	}
	return v * degree / factor
}
