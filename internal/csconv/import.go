package csconv

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/namemap"
	"github.com/mohammed-shakir/cs-wkt/internal/wkt"
)

// ellipsoidTolerance is how far, in metres, each semi-axis of a dictionary
// ellipsoid may be from the parsed one and still count as the same.
const ellipsoidTolerance = 5e-3

// importCtx is the state a projection import fixup works on.
type importCtx struct {
	flavor model.Flavor
	cs     *model.CoordSystemDef
	proj   *projection
	// raw holds every recognized parameter by generic id, after angle
	// normalization, whether or not the projection binds it.
	raw map[uint32]float64
	set map[slot]bool
}

type importer struct {
	c      *Converter
	flavor model.Flavor
	res    *ImportResult
}

func (im *importer) warn(format string, args ...any) {
	im.res.Warnings = append(im.res.Warnings, fmt.Sprintf(format, args...))
}

// Import parses text and converts it to definition records. With a preferred
// flavor the text is converted in that flavor first; if that fails the flavor
// is detected and the conversion retried. Without one the flavor must be
// detectable.
func (c *Converter) Import(text string, preferred model.Flavor) (*ImportResult, error) {
	tree, err := wkt.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	return c.ImportTree(tree.Root(), preferred)
}

func (c *Converter) ImportTree(root wkt.Node, preferred model.Flavor) (*ImportResult, error) {
	if root.Type() == wkt.Unknown {
		return nil, fmt.Errorf("%w: no recognized WKT element", ErrBadFormat)
	}
	if preferred.Valid() {
		res, err := c.importAs(root, preferred)
		if err == nil {
			return res, nil
		}
		detected := c.DetectFlavor(root, model.FlavorNone)
		if !detected.Valid() || detected == preferred {
			return nil, err
		}
		res, retryErr := c.importAs(root, detected)
		if retryErr != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("import as %s failed (%v); used detected flavor %s", preferred, err, detected))
		return res, nil
	}
	flavor := c.DetectFlavor(root, model.FlavorNone)
	if !flavor.Valid() {
		return nil, fmt.Errorf("%w: %s[%q]", ErrFlavorUndetermined, root.Type(), root.Name())
	}
	return c.importAs(root, flavor)
}

func (c *Converter) importAs(root wkt.Node, flavor model.Flavor) (*ImportResult, error) {
	im := &importer{
		c:      c,
		flavor: flavor,
		res:    &ImportResult{Flavor: flavor, Kind: root.Type().String()},
	}
	var err error
	switch root.Type() {
	case wkt.ProjCS:
		err = im.projected(root)
	case wkt.GeogCS:
		err = im.geographic(root)
	case wkt.LocalCS:
		err = im.local(root)
	case wkt.Datum:
		err = im.datum(root)
	case wkt.Spheroid:
		var info NameInfo
		im.res.Ellipsoid, info, err = im.ellipsoid(root)
		im.res.EllipsoidName = info
	default:
		err = fmt.Errorf("%w: cannot import a %s element", ErrBadFormat, root.Type())
	}
	if err != nil {
		return nil, err
	}
	return im.res, nil
}

// resolveName derives a key name: mapped through the name map, else through
// an EPSG authority code, else the WKT name itself when it is already a legal
// key, else a reduced form of it.
func (im *importer) resolveName(typ namemap.ObjectType, n wkt.Node) NameInfo {
	m := im.c.names
	name := n.Name()
	info := NameInfo{WKTName: name}
	if k, ok := m.MapName(typ, model.FlavorAutodesk, im.flavor, name); ok && ValidKeyName(k) {
		info.Key, info.Source = k, NameMapped
		return info
	}
	auth, code, hasAuth := n.Authority()
	if hasAuth && strings.EqualFold(auth, "EPSG") {
		if gid, ok := m.LocateNumber(typ, model.FlavorEPSG, uint32(code)); ok {
			if k, ok := m.NameFor(typ, model.FlavorAutodesk, gid); ok && ValidKeyName(k) {
				info.Key, info.Source = k, NameAuthority
				return info
			}
		}
	}
	if ValidKeyName(name) {
		info.Key, info.Source = name, NameRaw
		return info
	}
	info.Key, info.Truncated = makeKey(name, auth, code)
	info.Source = NameReduced
	if info.Truncated {
		im.warn("%s name %q truncated to %q", typ, name, info.Key)
	}
	return info
}

func (im *importer) epsgCode(typ namemap.ObjectType, n wkt.Node) int {
	if auth, code, ok := n.Authority(); ok && strings.EqualFold(auth, "EPSG") {
		return code
	}
	m := im.c.names
	if gid, ok := m.Locate(typ, im.flavor, n.Name()); ok {
		if num, ok := m.NumberFor(typ, model.FlavorEPSG, gid); ok {
			return int(num)
		}
	}
	return 0
}

func (im *importer) ellipsoid(n wkt.Node) (model.EllipsoidDef, NameInfo, error) {
	if !n.Valid() {
		im.warn("no SPHEROID element; assuming WGS 84")
		e := model.NewEllipsoid("WGS84", 6378137, 298.257223563)
		e.Description = "WGS 84"
		e.EPSG = 7030
		return e, NameInfo{Key: e.Key, Source: NameMapped}, nil
	}
	a, ok := n.FloatOK(0)
	if !ok || a <= 0 {
		return model.EllipsoidDef{}, NameInfo{}, fmt.Errorf("%w: SPHEROID[%q] has no semi-major axis", ErrMissingRequiredElement, n.Name())
	}
	rf := n.Float(1)
	if err := model.CheckEllipsoid(a, rf); err != nil {
		return model.EllipsoidDef{}, NameInfo{}, fmt.Errorf("%w: SPHEROID[%q]: %v", ErrBadFormat, n.Name(), err)
	}
	info := im.resolveName(namemap.TypeEllipsoid, n)
	e := model.NewEllipsoid(info.Key, a, rf)
	e.Description = n.Name()
	e.EPSG = im.epsgCode(namemap.TypeEllipsoid, n)
	return e, info, nil
}

func (im *importer) datum(n wkt.Node) error {
	ell, ellInfo, err := im.ellipsoid(n.Child(wkt.Spheroid))
	if err != nil {
		return err
	}
	info := im.resolveName(namemap.TypeDatum, n)
	dt := model.DatumDef{
		Key:          info.Key,
		Description:  n.Name(),
		EllipsoidKey: ell.Key,
		Method:       model.MethodNone,
		NoTransform:  true,
		EPSG:         im.epsgCode(namemap.TypeDatum, n),
	}
	if tw := n.Child(wkt.ToWGS84); tw.Valid() {
		nums := tw.Numbers()
		if len(nums) == 3 || len(nums) >= 7 {
			dt.SetCoefficients(nums)
		} else {
			im.warn("TOWGS84 with %d values ignored", len(nums))
		}
	} else if oracle.Has(im.flavor) {
		if nums := n.Numbers(); len(nums) == 3 || len(nums) == 7 {
			dt.SetCoefficients(nums)
		}
	}
	im.res.Ellipsoid, im.res.EllipsoidName = ell, ellInfo
	im.res.Datum, im.res.DatumName = dt, info
	im.supersede(ell, ellInfo, info)
	return nil
}

// supersede replaces the parsed datum with the dictionary definition when both
// names resolved and the dictionary ellipsoid matches the parsed one.
func (im *importer) supersede(ell model.EllipsoidDef, ellInfo, dtInfo NameInfo) {
	resolved := func(s NameSource) bool { return s == NameMapped || s == NameAuthority }
	if !resolved(ellInfo.Source) || !resolved(dtInfo.Source) {
		return
	}
	dd, ok := im.c.dict.Datum(dtInfo.Key)
	if !ok {
		return
	}
	de, ok := im.c.dict.Ellipsoid(dd.EllipsoidKey)
	if !ok {
		return
	}
	if !scalar.EqualWithinAbs(de.SemiMajor, ell.SemiMajor, ellipsoidTolerance) ||
		!scalar.EqualWithinAbs(de.SemiMinor, ell.SemiMinor, ellipsoidTolerance) {
		im.warn("dictionary datum %s is on a different ellipsoid; keeping the WKT definition", dd.Key)
		return
	}
	im.res.Datum = dd
	im.res.DatumSuperseded = true
}

// geog imports the geographic part shared by GEOGCS and PROJCS and returns the
// prime meridian in degrees and the angular unit.
func (im *importer) geog(g wkt.Node) (float64, unitDef, error) {
	if !g.Valid() {
		return 0, unitDef{}, fmt.Errorf("%w: no GEOGCS", ErrMissingRequiredElement)
	}
	d := g.Child(wkt.Datum)
	if !d.Valid() {
		return 0, unitDef{}, fmt.Errorf("%w: GEOGCS[%q] has no DATUM", ErrMissingRequiredElement, g.Name())
	}
	if err := im.datum(d); err != nil {
		return 0, unitDef{}, err
	}
	un := g.Child(wkt.Unit)
	if !un.Valid() {
		un = g.Child(wkt.AngUnit)
	}
	if !un.Valid() {
		return 0, unitDef{}, fmt.Errorf("%w: GEOGCS[%q] has no UNIT", ErrMissingRequiredElement, g.Name())
	}
	ang, known, err := im.c.resolveUnit(im.flavor, un.Name(), un.Float(0), true)
	if err != nil {
		return 0, unitDef{}, err
	}
	if !known {
		im.warn("angular unit %q not recognized; using its factor", un.Name())
	}
	pm := 0.0
	if p := g.Child(wkt.PrimeM); p.Valid() {
		pm = snapAngle(toDegrees(p.Float(0), ang.factor))
	}
	return pm, ang, nil
}

func (im *importer) geographic(root wkt.Node) error {
	pm, ang, err := im.geog(root)
	if err != nil {
		return err
	}
	cs := model.CoordSystemDef{
		Projection:      "LL",
		Unit:            ang.key,
		UnitScale:       ang.factor,
		OriginLongitude: pm,
		Quadrant:        quadrantFromAxes(root.ChildrenOf(wkt.Axis)),
		Flavor:          im.flavor,
	}
	im.finish(&cs, root)
	return nil
}

func (im *importer) local(root wkt.Node) error {
	un := root.Child(wkt.Unit)
	if !un.Valid() {
		return fmt.Errorf("%w: LOCAL_CS[%q] has no UNIT", ErrMissingRequiredElement, root.Name())
	}
	lin, known, err := im.c.resolveUnit(im.flavor, un.Name(), un.Float(0), false)
	if err != nil {
		return err
	}
	if !known {
		im.warn("linear unit %q not recognized; using its factor", un.Name())
	}
	cs := model.CoordSystemDef{
		Projection:     "NERTH",
		Unit:           lin.key,
		UnitScale:      lin.factor,
		ScaleReduction: 1,
		Quadrant:       quadrantFromAxes(root.ChildrenOf(wkt.Axis)),
		Flavor:         im.flavor,
	}
	im.finish(&cs, root)
	return nil
}

func (im *importer) projected(root wkt.Node) error {
	pm, ang, err := im.geog(root.Child(wkt.GeogCS))
	if err != nil {
		return err
	}
	pn := root.Child(wkt.Projection)
	if !pn.Valid() {
		return fmt.Errorf("%w: PROJCS[%q] has no PROJECTION", ErrMissingRequiredElement, root.Name())
	}
	un := root.Child(wkt.Unit)
	if !un.Valid() {
		un = root.Child(wkt.LinUnit)
	}
	if !un.Valid() {
		return fmt.Errorf("%w: PROJCS[%q] has no UNIT", ErrMissingRequiredElement, root.Name())
	}
	lin, known, err := im.c.resolveUnit(im.flavor, un.Name(), un.Float(0), false)
	if err != nil {
		return err
	}
	if !known {
		im.warn("linear unit %q not recognized; using its factor", un.Name())
	}
	proj, err := im.c.lookupProjection(im.flavor, pn.Name())
	if err != nil {
		return err
	}

	cs := model.CoordSystemDef{
		Projection: proj.key,
		Unit:       lin.key,
		UnitScale:  lin.factor,
		Quadrant:   quadrantFromAxes(root.ChildrenOf(wkt.Axis)),
		Flavor:     im.flavor,
	}
	x := &importCtx{
		flavor: im.flavor,
		cs:     &cs,
		proj:   proj,
		raw:    make(map[uint32]float64),
		set:    make(map[slot]bool),
	}
	for _, p := range root.ChildrenOf(wkt.Parameter) {
		id, ok := im.c.paramID(im.flavor, p.Name())
		if !ok {
			im.warn("unknown parameter %q ignored", p.Name())
			continue
		}
		v, ok := p.FloatOK(0)
		if !ok {
			im.warn("parameter %q has no numeric value", p.Name())
			continue
		}
		prec := precisionOf(id)
		if prec.angular() {
			v = toDegrees(v, ang.factor)
		}
		switch prec {
		case precLng:
			v = snapAngle(v + pm)
		case precLat:
			v = snapAngle(v)
		}
		x.raw[id] = v
		if b, ok := proj.byParam[id]; ok {
			b.slot.set(&cs, v)
			x.set[b.slot] = true
		}
	}
	if proj.usesScale && !x.set[slotScale] {
		cs.ScaleReduction = 1
	}
	if proj.importFix != nil {
		if err := proj.importFix(x); err != nil {
			return err
		}
	}
	slotAux.set(&cs, 0)
	im.finish(&cs, root)
	return nil
}

// finish names the coordinate system and links it to its geodetic basis. A
// datum that resolved to nothing known and carries no transformation leaves
// the system referenced to its ellipsoid alone.
func (im *importer) finish(cs *model.CoordSystemDef, root wkt.Node) {
	info := im.resolveName(namemap.TypeProjectedOrGeographic, root)
	cs.Key = info.Key
	cs.Description = root.Name()
	cs.EPSG = im.epsgCode(namemap.TypeProjectedOrGeographic, root)
	im.res.CoordSysName = info
	if im.res.Datum.Key != "" {
		dt := im.res.Datum
		unresolved := im.res.DatumName.Source == NameRaw || im.res.DatumName.Source == NameReduced
		if unresolved && dt.NoTransform && !im.res.DatumSuperseded {
			cs.EllipsoidKey = im.res.Ellipsoid.Key
		} else {
			cs.DatumKey = dt.Key
		}
	}
	im.res.CoordSys = *cs
}

var oracleOpPattern = regexp.MustCompile(`\(EPSG OP (\d+)\)`)

// lookupProjection resolves a PROJECTION name: the flavor's own name, then an
// Oracle operation code, then the canonical WKT name.
func (c *Converter) lookupProjection(flavor model.Flavor, name string) (*projection, error) {
	if id, ok := c.names.Locate(namemap.TypeProjection, flavor, name); ok {
		if p, ok := projByGeneric[id]; ok {
			return p, nil
		}
	}
	if oracle.Has(flavor) {
		if m := oracleOpPattern.FindStringSubmatch(name); m != nil {
			if code, err := strconv.Atoi(m[1]); err == nil {
				if p, ok := oracleOpProjection(code); ok {
					return p, nil
				}
			}
		}
	}
	for _, p := range projections {
		if p.wktName != "" && strings.EqualFold(p.wktName, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in flavor %s", ErrUnsupportedProjection, name, flavor)
}

func (c *Converter) paramID(flavor model.Flavor, name string) (uint32, bool) {
	if id, ok := c.names.Locate(namemap.TypeParameter, flavor, name); ok {
		return id, true
	}
	id, _, ok := c.names.LocateAny(namemap.TypeParameter, name)
	return id, ok
}
