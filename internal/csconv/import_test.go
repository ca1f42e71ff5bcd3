package csconv

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/dictionary"
	"github.com/mohammed-shakir/cs-wkt/internal/namemap"
)

func newTestConverter(t *testing.T, dict dictionary.Source) *Converter {
	t.Helper()
	m, err := namemap.Default()
	require.NoError(t, err)
	return New(m, dict)
}

func defaultDictionary(t *testing.T) *dictionary.Store {
	t.Helper()
	d, err := dictionary.Default()
	require.NoError(t, err)
	return d
}

const (
	wgs84Geog = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.0174532925199433]]`

	utm18OGC = `PROJCS["WGS 84 / UTM zone 18N",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],` +
		`PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],` +
		`PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",-75],PARAMETER["scale_factor",0.9996],` +
		`PARAMETER["false_easting",500000],PARAMETER["false_northing",0],UNIT["metre",1]]`

	utm17ESRI = `PROJCS["WGS_1984_UTM_Zone_17N",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],` +
		`PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],` +
		`PARAMETER["False_Easting",500000.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",-81.0],` +
		`PARAMETER["Scale_Factor",0.9996],PARAMETER["Latitude_Of_Origin",0.0],UNIT["Meter",1.0]]`
)

func TestImportGeographicWithoutTransform(t *testing.T) {
	c := newTestConverter(t, dictionary.Empty{})

	res, err := c.Import(wgs84Geog, model.FlavorNone)
	require.NoError(t, err)

	assert.Equal(t, model.FlavorOGC, res.Flavor)
	assert.Equal(t, "GEOGCS", res.Kind)
	assert.Equal(t, 6378137.0, res.Ellipsoid.SemiMajor)
	assert.InDelta(t, 1/298.257223563, res.Ellipsoid.Flattening, 1e-15)
	assert.True(t, res.Datum.NoTransform)
	assert.Equal(t, model.MethodNone, res.Datum.Method)
	assert.False(t, res.DatumSuperseded)

	assert.Equal(t, "LL", res.CoordSys.Projection)
	assert.Equal(t, "LL84", res.CoordSys.Key)
	assert.Equal(t, "WGS84", res.CoordSys.DatumKey)
	assert.Equal(t, "Degree", res.CoordSys.Unit)
	assert.Equal(t, NameMapped, res.DatumName.Source)
	assert.Equal(t, NameMapped, res.EllipsoidName.Source)
}

func TestImportGeographicSupersededByDictionary(t *testing.T) {
	c := newTestConverter(t, defaultDictionary(t))

	res, err := c.Import(wgs84Geog, model.FlavorNone)
	require.NoError(t, err)

	assert.Equal(t, model.FlavorOGC, res.Flavor)
	assert.True(t, res.DatumSuperseded)
	assert.Equal(t, "WGS84", res.Datum.Key)
	assert.Equal(t, "WGS84", res.Datum.EllipsoidKey)
	assert.Equal(t, model.MethodWGS84Equiv, res.Datum.Method)
	assert.False(t, res.Datum.NoTransform)
	assert.Equal(t, "World", res.Datum.Location)
	assert.Equal(t, 6326, res.Datum.EPSG)

	assert.Equal(t, "WGS84", res.Ellipsoid.Key)
	assert.Equal(t, 6378137.0, res.Ellipsoid.SemiMajor)
	assert.Equal(t, "LL84", res.CoordSys.Key)
	assert.Equal(t, "WGS84", res.CoordSys.DatumKey)
}

func TestImportTransverseMercatorVerbatim(t *testing.T) {
	c := newTestConverter(t, dictionary.Empty{})

	res, err := c.Import(utm18OGC, model.FlavorNone)
	require.NoError(t, err)

	cs := res.CoordSys
	assert.Equal(t, model.FlavorOGC, res.Flavor)
	assert.Equal(t, "TM", cs.Projection)
	assert.Equal(t, 500000.0, cs.FalseEasting)
	assert.Equal(t, 0.0, cs.FalseNorthing)
	assert.Equal(t, 0.9996, cs.ScaleReduction)
	assert.Equal(t, -75.0, cs.Param(1))
	assert.Equal(t, 0.0, cs.OriginLatitude)
	assert.Equal(t, "Meter", cs.Unit)
	assert.Equal(t, 1.0, cs.UnitScale)
	assert.Equal(t, "UTM84-18N", cs.Key)
	assert.Equal(t, 32618, cs.EPSG)
}

func TestImportMalformed(t *testing.T) {
	c := newTestConverter(t, nil)

	res, err := c.Import(`PROJCS["X",GEOGCS[`, model.FlavorNone)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadFormat), "got %v", err)
	assert.Nil(t, res)

	_, err = c.Import(`PROJCS["X",GEOGCS[`, model.FlavorESRI)
	assert.True(t, errors.Is(err, ErrBadFormat), "got %v", err)
}

func TestImportFlavorUndetermined(t *testing.T) {
	c := newTestConverter(t, nil)
	text := `GEOGCS["Foo",DATUM["Bar",SPHEROID["Baz",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Qux",0.0174532925199433]]`

	_, err := c.Import(text, model.FlavorNone)
	assert.True(t, errors.Is(err, ErrFlavorUndetermined), "got %v", err)

	// A caller-supplied flavor is used even when nothing confirms it.
	res, err := c.Import(text, model.FlavorOGC)
	require.NoError(t, err)
	assert.Equal(t, "Foo", res.CoordSys.Key)
	assert.Equal(t, NameRaw, res.CoordSysName.Source)
}

func TestImportMissingElements(t *testing.T) {
	c := newTestConverter(t, nil)
	cases := map[string]string{
		"no datum":      `GEOGCS["WGS 84",PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`,
		"no geog unit":  `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0]]`,
		"no projection": `PROJCS["P",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],UNIT["degree",0.0174532925199433]],UNIT["metre",1]]`,
		"no linear unit": `PROJCS["P",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],UNIT["degree",0.0174532925199433]],` +
			`PROJECTION["Transverse_Mercator"]]`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Import(text, model.FlavorOGC)
			assert.True(t, errors.Is(err, ErrMissingRequiredElement), "got %v", err)
		})
	}
}

func TestImportRejectsBadFlattening(t *testing.T) {
	c := newTestConverter(t, nil)
	cases := map[string]string{
		"negative":       `SPHEROID["Bad",6378137,-5]`,
		"below one":      `SPHEROID["Bad",6378137,0.5]`,
		"inside geogcs":  `GEOGCS["G",DATUM["D",SPHEROID["S",6378137,-298.257]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`,
		"zero semimajor": `SPHEROID["Bad",0,298.257]`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := c.Import(text, model.FlavorOGC)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrBadFormat) || errors.Is(err, ErrMissingRequiredElement), "got %v", err)
		})
	}

	_, err := c.Import(`SPHEROID["Bad",6378137,-5]`, model.FlavorOGC)
	assert.True(t, errors.Is(err, ErrBadFormat), "got %v", err)

	// A sphere is still accepted and serializes cleanly.
	res, err := c.Import(`SPHEROID["Sphere",6371000,0]`, model.FlavorOGC)
	require.NoError(t, err)
	assert.True(t, res.Ellipsoid.IsSphere())
	_, err = json.Marshal(res)
	require.NoError(t, err)
}

func TestImportMissingSpheroidDefaultsToWGS84(t *testing.T) {
	c := newTestConverter(t, nil)
	text := `GEOGCS["Local",DATUM["Local_Datum"],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`

	res, err := c.Import(text, model.FlavorOGC)
	require.NoError(t, err)
	assert.Equal(t, "WGS84", res.Ellipsoid.Key)
	assert.Equal(t, 6378137.0, res.Ellipsoid.SemiMajor)
	assert.NotEmpty(t, res.Warnings)
}

func TestImportUnsupportedProjection(t *testing.T) {
	c := newTestConverter(t, nil)
	text := `PROJCS["P",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],UNIT["degree",0.0174532925199433]],` +
		`PROJECTION["Hyperbolic_Cassini_Soldner_Variant_Z"],UNIT["metre",1]]`

	_, err := c.Import(text, model.FlavorOGC)
	assert.True(t, errors.Is(err, ErrUnsupportedProjection), "got %v", err)
}

func TestImportToWGS84(t *testing.T) {
	c := newTestConverter(t, nil)
	cases := []struct {
		name   string
		tw     string
		method model.DatumMethod
	}{
		{"seven", `TOWGS84[446.448,-125.157,542.06,0.15,0.247,0.842,-20.489]`, model.MethodBursaWolf},
		{"three", `TOWGS84[-87,-98,-121]`, model.MethodGeocentric},
		{"zero", `TOWGS84[0,0,0,0,0,0,0]`, model.MethodWGS84Equiv},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := `DATUM["My_Datum",SPHEROID["Airy 1830",6377563.396,299.3249646],` + tc.tw + `]`
			res, err := c.Import(text, model.FlavorOGC)
			require.NoError(t, err)
			assert.Equal(t, tc.method, res.Datum.Method)
			assert.False(t, res.Datum.NoTransform)
		})
	}

	res, err := c.Import(`DATUM["My_Datum",SPHEROID["Airy 1830",6377563.396,299.3249646],TOWGS84[446.448,-125.157,542.06,0.15,0.247,0.842,-20.489]]`, model.FlavorOGC)
	require.NoError(t, err)
	assert.Equal(t, 446.448, res.Datum.DeltaX)
	assert.Equal(t, -20.489, res.Datum.Scale)
}

func TestImportOracleTrailingDatumNumbers(t *testing.T) {
	c := newTestConverter(t, nil)
	text := `DATUM["NAD 27",SPHEROID["Clarke 1866",6378206.4,294.978698213898],-8,160,176]`

	res, err := c.Import(text, model.FlavorOracle)
	require.NoError(t, err)
	assert.Equal(t, model.MethodGeocentric, res.Datum.Method)
	assert.Equal(t, 160.0, res.Datum.DeltaY)

	res, err = c.Import(text, model.FlavorOGC)
	require.NoError(t, err)
	assert.True(t, res.Datum.NoTransform)
}

func TestImportSupersedesFromDictionary(t *testing.T) {
	c := newTestConverter(t, defaultDictionary(t))

	res, err := c.Import(utm17ESRI, model.FlavorNone)
	require.NoError(t, err)
	assert.Equal(t, model.FlavorESRI, res.Flavor)
	assert.True(t, res.DatumSuperseded)
	assert.Equal(t, "WGS84", res.Datum.Key)
	assert.Equal(t, "World", res.Datum.Location)
	assert.Equal(t, "UTM84-17N", res.CoordSys.Key)
	assert.Equal(t, -81.0, res.CoordSys.Param(1))
}

func TestImportKeepsDatumOnEllipsoidMismatch(t *testing.T) {
	c := newTestConverter(t, defaultDictionary(t))
	text := `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378000.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

	res, err := c.Import(text, model.FlavorESRI)
	require.NoError(t, err)
	assert.False(t, res.DatumSuperseded)
	assert.True(t, res.Datum.NoTransform)
	assert.NotEmpty(t, res.Warnings)
}

func TestImportCartographicReference(t *testing.T) {
	c := newTestConverter(t, defaultDictionary(t))
	text := `GEOGCS["Unknown datum based upon the Airy 1830 ellipsoid",DATUM["Not specified (based on Airy 1830 ellipsoid)",` +
		`SPHEROID["Airy 1830",6377563.396,299.3249646]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`

	res, err := c.Import(text, model.FlavorEPSG)
	require.NoError(t, err)
	assert.Empty(t, res.CoordSys.DatumKey)
	assert.Equal(t, "AIRY30", res.CoordSys.EllipsoidKey)
	assert.Equal(t, NameReduced, res.DatumName.Source)
	assert.True(t, res.CoordSysName.Truncated || res.CoordSysName.Source == NameReduced)
}

func TestImportAuthorityName(t *testing.T) {
	c := newTestConverter(t, nil)
	text := `GEOGCS["My WGS",DATUM["My datum",SPHEROID["Whatever it is called",6378137,298.257223563,AUTHORITY["EPSG","7030"]]],` +
		`PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`

	res, err := c.Import(text, model.FlavorOGC)
	require.NoError(t, err)
	assert.Equal(t, "WGS84", res.Ellipsoid.Key)
	assert.Equal(t, NameAuthority, res.EllipsoidName.Source)
	assert.Equal(t, 7030, res.Ellipsoid.EPSG)
}

func TestImportEsriOneParallelLambert(t *testing.T) {
	c := newTestConverter(t, nil)
	text := func(origin string) string {
		return `PROJCS["Test_LCC",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],` +
			`PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Lambert_Conformal_Conic"],` +
			`PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",-100.0],` +
			`PARAMETER["Standard_Parallel_1",45.0],PARAMETER["Scale_Factor",0.9999],PARAMETER["Latitude_Of_Origin",` + origin + `],` +
			`UNIT["Meter",1.0]]`
	}

	res, err := c.Import(text("45.0"), model.FlavorESRI)
	require.NoError(t, err)
	cs := res.CoordSys
	assert.Equal(t, "LM1SP", cs.Projection)
	assert.Equal(t, 45.0, cs.OriginLatitude)
	assert.Equal(t, -100.0, cs.OriginLongitude)
	assert.Equal(t, 0.9999, cs.ScaleReduction)

	_, err = c.Import(text("40.0"), model.FlavorESRI)
	assert.True(t, errors.Is(err, ErrUnsupportedParameterization), "got %v", err)
}

func TestImportLambertParallelOrdering(t *testing.T) {
	c := newTestConverter(t, nil)
	build := func(sp1, sp2 string) string {
		return `PROJCS["LCC",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],` +
			`UNIT["degree",0.0174532925199433]],PROJECTION["Lambert_Conformal_Conic_2SP"],PARAMETER["standard_parallel_1",` + sp1 + `],` +
			`PARAMETER["standard_parallel_2",` + sp2 + `],PARAMETER["latitude_of_origin",23],PARAMETER["central_meridian",-96],` +
			`PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1]]`
	}
	for _, proj := range []string{"Lambert_Conformal_Conic_2SP", "Albers_Conic_Equal_Area"} {
		for _, pair := range [][2]string{{"29.5", "45.5"}, {"45.5", "29.5"}} {
			text := strings.Replace(build(pair[0], pair[1]), "Lambert_Conformal_Conic_2SP", proj, 1)
			res, err := c.Import(text, model.FlavorOGC)
			require.NoError(t, err)
			assert.Equal(t, 45.5, res.CoordSys.Param(1), "%s %v", proj, pair)
			assert.Equal(t, 29.5, res.CoordSys.Param(2), "%s %v", proj, pair)
		}
	}
}

func TestImportLongitudeSnapping(t *testing.T) {
	c := newTestConverter(t, nil)
	build := func(cm string) string {
		return `PROJCS["TM",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],` +
			`UNIT["degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["central_meridian",` + cm + `],` +
			`PARAMETER["scale_factor",1],PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1]]`
	}
	cases := map[string]float64{
		"180.0000000000001":  180,
		"179.9999999999999":  180,
		"-180.0000000000001": -180,
		"-179.9999999999999": -180,
	}
	for in, want := range cases {
		res, err := c.Import(build(in), model.FlavorOGC)
		require.NoError(t, err)
		assert.Equal(t, want, res.CoordSys.Param(1), in)
	}

	res, err := c.Import(build("179.99999"), model.FlavorOGC)
	require.NoError(t, err)
	assert.Equal(t, 179.99999, res.CoordSys.Param(1))
}

func TestImportPrimeMeridianAndGrads(t *testing.T) {
	c := newTestConverter(t, nil)
	text := `PROJCS["NTF (Paris) / Lambert zone II",GEOGCS["NTF (Paris)",DATUM["Nouvelle_Triangulation_Francaise_Paris",` +
		`SPHEROID["Clarke 1880 (IGN)",6378249.2,293.4660212936269]],PRIMEM["Paris",2.5969213],UNIT["grad",0.01570796326794897]],` +
		`PROJECTION["Lambert_Conformal_Conic_1SP"],PARAMETER["latitude_of_origin",52],PARAMETER["central_meridian",0],` +
		`PARAMETER["scale_factor",0.99987742],PARAMETER["false_easting",600000],PARAMETER["false_northing",2200000],UNIT["metre",1]]`

	res, err := c.Import(text, model.FlavorOGC)
	require.NoError(t, err)
	cs := res.CoordSys
	assert.Equal(t, "LM1SP", cs.Projection)
	assert.InDelta(t, 46.8, cs.OriginLatitude, 1e-12)
	assert.InDelta(t, 2.33722917, cs.OriginLongitude, 1e-9)
	assert.Equal(t, 0.99987742, cs.ScaleReduction)
}

func TestImportAxisOrder(t *testing.T) {
	c := newTestConverter(t, nil)
	text := utm18OGC[:len(utm18OGC)-1] + `,AXIS["Northing",NORTH],AXIS["Easting",EAST]]`

	res, err := c.Import(text, model.FlavorOGC)
	require.NoError(t, err)
	assert.Equal(t, model.Quadrant(-1), res.CoordSys.Quadrant)
}

func TestImportLocalCS(t *testing.T) {
	c := newTestConverter(t, nil)
	text := `LOCAL_CS["Site grid",LOCAL_DATUM["Local Datum",0],UNIT["US survey foot",0.304800609601219],AXIS["X",EAST],AXIS["Y",NORTH]]`

	res, err := c.Import(text, model.FlavorNone)
	require.NoError(t, err)
	assert.Equal(t, "NERTH", res.CoordSys.Projection)
	assert.Equal(t, "US Foot", res.CoordSys.Unit)
	assert.InDelta(t, 1200.0/3937.0, res.CoordSys.UnitScale, 1e-15)
	assert.Equal(t, model.DefaultQuadrant, res.CoordSys.Quadrant)
}

func TestImportRetriesDetectedFlavor(t *testing.T) {
	c := newTestConverter(t, nil)

	// The projection name exists only in the ESRI namespace.
	text := `PROJCS["Test",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],` +
		`PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Mercator_Auxiliary_Sphere"],` +
		`PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",0.0],` +
		`PARAMETER["Standard_Parallel_1",0.0],PARAMETER["Auxiliary_Sphere_Type",0.0],UNIT["Meter",1.0]]`

	res, err := c.Import(text, model.FlavorOGC)
	require.NoError(t, err)
	assert.Equal(t, model.FlavorESRI, res.Flavor)
	assert.Equal(t, "MRCATPV", res.CoordSys.Projection)
	assert.NotEmpty(t, res.Warnings)
}

func TestLookupProjectionOracleOperation(t *testing.T) {
	c := newTestConverter(t, nil)

	p, err := c.lookupProjection(model.FlavorOracle, "UTM zone 17N (EPSG OP 16017)")
	require.NoError(t, err)
	assert.Equal(t, "TM", p.key)

	p, err = c.lookupProjection(model.FlavorOracle9, "Lambert (EPSG OP 9802)")
	require.NoError(t, err)
	assert.Equal(t, "LM2SP", p.key)

	_, err = c.lookupProjection(model.FlavorOGC, "UTM zone 17N (EPSG OP 16017)")
	assert.True(t, errors.Is(err, ErrUnsupportedProjection))
}

// S-JTSK / Krovak as published for EPSG:5513. The oblique pole lies on the
// central longitude (42°30' east of Ferro) at 90° minus the cone axis azimuth.
func TestImportKrovakPoleFromAzimuth(t *testing.T) {
	c := newTestConverter(t, defaultDictionary(t))
	const azimuth = 30.28813972222222
	build := func(primem, lng, azName string) string {
		return `PROJCS["S-JTSK / Krovak",GEOGCS["S-JTSK",DATUM["System_Jednotne_Trigonometricke_Site_Katastralni",` +
			`SPHEROID["Bessel 1841",6377397.155,299.1528128],TOWGS84[589,76,480,0,0,0,0]],` + primem +
			`,UNIT["degree",0.0174532925199433]],PROJECTION["Krovak"],PARAMETER["latitude_of_center",49.5],` +
			`PARAMETER["longitude_of_center",` + lng + `],PARAMETER["` + azName + `",30.28813972222222],` +
			`PARAMETER["pseudo_standard_parallel_1",78.5],PARAMETER["scale_factor",0.9999],` +
			`PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1]]`
	}
	cases := map[string]string{
		"greenwich":    build(`PRIMEM["Greenwich",0]`, "24.83333333333333", "azimuth"),
		"ferro":        build(`PRIMEM["Ferro",-17.66666666666667]`, "42.5", "azimuth"),
		"cone co-lat.": build(`PRIMEM["Greenwich",0]`, "24.83333333333333", "co_latitude_of_cone_axis"),
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := c.Import(text, model.FlavorOGC)
			require.NoError(t, err)
			cs := res.CoordSys
			assert.Equal(t, "KROVAK", cs.Projection)
			assert.InDelta(t, 24.833333333333333, cs.OriginLongitude, 1e-9)
			assert.Equal(t, cs.OriginLongitude, cs.Param(1), "pole longitude is the central longitude")
			assert.InDelta(t, 90-azimuth, cs.Param(2), 1e-12)
			assert.InDelta(t, 59.71186027777778, cs.Param(2), 1e-12)
			assert.InDelta(t, 78.5, cs.Param(3), 1e-12)
			assert.InDelta(t, 49.5, cs.OriginLatitude, 1e-12)
			assert.Equal(t, 0.9999, cs.ScaleReduction)

			// The azimuth is rebuilt from the pole latitude on export.
			out, err := c.ExportCoordSys(cs, res.Datum, res.Ellipsoid, ExportOptions{Flavor: model.FlavorOGC})
			require.NoError(t, err)
			az, err := strconv.ParseFloat(parameters(t, out.WKT)["azimuth"], 64)
			require.NoError(t, err)
			assert.InDelta(t, azimuth, az, 1e-9)
		})
	}

	noAzimuth := strings.Replace(cases["greenwich"], `PARAMETER["azimuth",30.28813972222222],`, "", 1)
	_, err := c.Import(noAzimuth, model.FlavorOGC)
	assert.True(t, errors.Is(err, ErrMissingRequiredElement), "got %v", err)
}
