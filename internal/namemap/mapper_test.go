package namemap

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
)

func mustDefault(t *testing.T) *Mapper {
	t.Helper()
	m, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	return m
}

func TestDefault_LocateIsCaseInsensitive(t *testing.T) {
	m := mustDefault(t)
	for _, name := range []string{"Transverse_Mercator", "TRANSVERSE_MERCATOR", "  transverse_mercator "} {
		id, ok := m.Locate(TypeProjection, model.FlavorOGC, name)
		if !ok || id != 9807 {
			t.Fatalf("Locate(%q)=%d,%v want 9807", name, id, ok)
		}
	}
}

func TestMapName_CrossFlavor(t *testing.T) {
	m := mustDefault(t)
	got, ok := m.MapName(TypeDatum, model.FlavorESRI, model.FlavorOGC, "WGS_1984")
	if !ok || got != "D_WGS_1984" {
		t.Fatalf("MapName=%q,%v", got, ok)
	}
	got, ok = m.MapName(TypeEllipsoid, model.FlavorAutodesk, model.FlavorEPSG, "GRS 1980")
	if !ok || got != "GRS1980" {
		t.Fatalf("MapName=%q,%v", got, ok)
	}
	if _, ok := m.MapName(TypeDatum, model.FlavorESRI, model.FlavorOGC, "no such datum"); ok {
		t.Fatalf("unknown name must not map")
	}
}

func TestPseudoTypes(t *testing.T) {
	m := mustDefault(t)
	if id, ok := m.Locate(TypeUnit, model.FlavorESRI, "Foot_US"); !ok || id != 9003 {
		t.Fatalf("linear unit via Unit: %d %v", id, ok)
	}
	if id, ok := m.Locate(TypeUnit, model.FlavorESRI, "Degree"); !ok || id != 9102 {
		t.Fatalf("angular unit via Unit: %d %v", id, ok)
	}
	if id, ok := m.Locate(TypeProjectedOrGeographic, model.FlavorESRI, "GCS_WGS_1984"); !ok || id != 4326 {
		t.Fatalf("geographic via ProjectedOrGeographic: %d %v", id, ok)
	}
	if id, ok := m.Locate(TypeProjectedOrGeographic, model.FlavorAutodesk, "UTM84-17N"); !ok || id != 32617 {
		t.Fatalf("projected via ProjectedOrGeographic: %d %v", id, ok)
	}
	name, ok := m.MapName(TypeProjectedOrGeographic, model.FlavorAutodesk, model.FlavorEPSG, "WGS 84")
	if !ok || name != "LL84" {
		t.Fatalf("MapName geographic=%q,%v", name, ok)
	}
}

func TestAliasesMatchButAreNotExported(t *testing.T) {
	m := mustDefault(t)
	if id, ok := m.Locate(TypeLinearUnit, model.FlavorEPSG, "meter"); !ok || id != 9001 {
		t.Fatalf("alias lookup: %d %v", id, ok)
	}
	name, ok := m.NameFor(TypeLinearUnit, model.FlavorEPSG, 9001)
	if !ok || name != "metre" {
		t.Fatalf("NameFor=%q want metre", name)
	}
}

func TestNumbers(t *testing.T) {
	m := mustDefault(t)
	if id, ok := m.LocateNumber(TypeGeographicCS, model.FlavorEPSG, 4326); !ok || id != 4326 {
		t.Fatalf("LocateNumber=%d %v", id, ok)
	}
	if _, ok := m.NumberFor(TypeEllipsoid, model.FlavorESRI, 7030); ok {
		t.Fatalf("ESRI rows carry no numeric id")
	}
	if n, ok := m.NumberFor(TypeEllipsoid, model.FlavorEPSG, 7030); !ok || n != 7030 {
		t.Fatalf("NumberFor=%d %v", n, ok)
	}
	if _, ok := m.LocateNumber(TypeEllipsoid, model.FlavorEPSG, 0); ok {
		t.Fatalf("zero is never a valid numeric id")
	}
}

func TestFlavors(t *testing.T) {
	m := mustDefault(t)
	set := m.Flavors(TypeDatum, "WGS_1984")
	if !set.Has(model.FlavorOGC) || set.Has(model.FlavorESRI) {
		t.Fatalf("datum flavors=%v", set)
	}
	if !m.Flavors(TypeProjection, "nonsense").Empty() {
		t.Fatalf("unknown name must produce an empty set")
	}
}

func TestDuplicateRank(t *testing.T) {
	m := NewMapper()
	add := func(e Entry) {
		t.Helper()
		if err := m.Add(e); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	add(Entry{GenericID: 10, Type: TypeDatum, Flavor: model.FlavorUser, Name: "Local", DupRank: 2})
	add(Entry{GenericID: 11, Type: TypeDatum, Flavor: model.FlavorUser, Name: "local", DupRank: 1})
	add(Entry{GenericID: 12, Type: TypeDatum, Flavor: model.FlavorUser, Name: "LOCAL", Alias: true})
	if id, _ := m.Locate(TypeDatum, model.FlavorUser, "Local"); id != 11 {
		t.Fatalf("lowest rank non-alias must win, got %d", id)
	}
	err := m.Add(Entry{GenericID: 13, Type: TypeDatum, Flavor: model.FlavorUser, Name: "LoCaL", DupRank: 1})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
}

func TestAddAlias(t *testing.T) {
	m := mustDefault(t)
	if err := m.AddAlias(TypeDatum, model.FlavorUser, 6326, "My WGS"); err != nil {
		t.Fatalf("AddAlias: %v", err)
	}
	name, ok := m.MapName(TypeDatum, model.FlavorAutodesk, model.FlavorUser, "my wgs")
	if !ok || name != "WGS84" {
		t.Fatalf("alias mapping=%q %v", name, ok)
	}
	if err := m.AddAlias(TypeDatum, model.FlavorUser, 999999, "x"); err == nil {
		t.Fatalf("alias for unknown id must fail")
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":        "# only comments\n",
		"bad type":     "1,Planet,EPSG,0,x\n",
		"bad flavor":   "1,Datum,Vendor,0,x\n",
		"missing name": "1,Datum,EPSG,0,\n",
		"short row":    "1,Datum,EPSG\n",
		"zero id":      "0,Datum,EPSG,0,x\n",
		"duplicate":    "1,Datum,EPSG,0,x\n2,Datum,EPSG,0,X\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(src)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoad_NumericCodes(t *testing.T) {
	m, err := Load(strings.NewReader("GenericId,Type,Flavor,NumericId,Name\n6326,2,1,6326,World Geodetic System 1984\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if id, ok := m.Locate(TypeDatum, model.FlavorEPSG, "world geodetic system 1984"); !ok || id != 6326 {
		t.Fatalf("Locate=%d %v", id, ok)
	}
}

func TestRegistry_CachesFailure(t *testing.T) {
	calls := 0
	r := NewRegistryFunc(func() (*Mapper, error) {
		calls++
		return nil, errors.New("disk on fire")
	})
	for i := 0; i < 3; i++ {
		if _, err := r.Get(); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("want ErrUnavailable, got %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("load attempted %d times, want 1", calls)
	}
}

func TestRegistry_LazyAndRelease(t *testing.T) {
	calls := 0
	r := NewRegistryFunc(func() (*Mapper, error) {
		calls++
		return Default()
	})
	if r.Loaded() {
		t.Fatalf("registry must be lazy")
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Get(); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()
	if calls != 1 {
		t.Fatalf("concurrent first access built the table %d times", calls)
	}
	r.Release()
	if r.Loaded() {
		t.Fatalf("Release must drop the table")
	}
	if _, err := r.Get(); err != nil || calls != 2 {
		t.Fatalf("Get after Release: err=%v calls=%d", err, calls)
	}
}

func TestRegistry_MissingFile(t *testing.T) {
	r := NewRegistry("/nonexistent/namemap.csv")
	if _, err := r.Get(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}
