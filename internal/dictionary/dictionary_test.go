package dictionary

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
)

func TestDefault(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	e, ok := s.Ellipsoid("wgs84")
	if !ok {
		t.Fatalf("WGS84 ellipsoid missing")
	}
	if e.SemiMajor != 6378137 || math.Abs(e.SemiMinor-6356752.314245) > 1e-3 {
		t.Fatalf("WGS84 axes %v %v", e.SemiMajor, e.SemiMinor)
	}
	if sp, _ := s.Ellipsoid("SPHERE"); !sp.IsSphere() {
		t.Fatalf("SPHERE must have zero flattening")
	}
	d, ok := s.Datum("NAD27")
	if !ok || d.Method != model.MethodGeocentric || d.DeltaY != 160 || d.NoTransform {
		t.Fatalf("NAD27=%+v", d)
	}
	if c, _ := s.Ellipsoid("CLRK66"); math.Abs(c.SemiMinor-6356583.8) > 1e-6 {
		t.Fatalf("CLRK66 semi-minor %v", c.SemiMinor)
	}
}

func TestLoad_RejectsDanglingEllipsoid(t *testing.T) {
	doc := "datums:\n  - key: X\n    ellipsoid: NOPE\n"
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatalf("expected error for unknown ellipsoid")
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	doc := "ellipsoids:\n  - key: X\n    semi_major: 1\n    colour: red\n"
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestLoad_RejectsBadFlattening(t *testing.T) {
	for _, rf := range []string{"-298.257", "0.5", "1"} {
		doc := "ellipsoids:\n  - key: X\n    semi_major: 6378137\n    inv_flat: " + rf + "\n"
		_, err := Load(strings.NewReader(doc))
		if !errors.Is(err, model.ErrInvalidEllipsoid) {
			t.Fatalf("inv_flat %s: err=%v", rf, err)
		}
	}
	// Explicit axes bypass the flattening.
	doc := "ellipsoids:\n  - key: X\n    semi_major: 6378137\n    semi_minor: 6356752.3142\n    inv_flat: -1\n"
	if _, err := Load(strings.NewReader(doc)); err != nil {
		t.Fatalf("axes with stray inv_flat: %v", err)
	}
}

func TestLoad_MethodlessDatumHasNoTransform(t *testing.T) {
	doc := "ellipsoids:\n  - key: E\n    semi_major: 6378000\n    inv_flat: 300\ndatums:\n  - key: D\n    ellipsoid: E\n"
	s, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d, _ := s.Datum("d")
	if !d.NoTransform || d.Method != model.MethodNone {
		t.Fatalf("datum=%+v", d)
	}
}

func TestReplace(t *testing.T) {
	s := NewStore()
	s.PutEllipsoid(model.NewEllipsoid("OLD", 1, 0))
	next := NewStore()
	next.PutEllipsoid(model.NewEllipsoid("NEW", 2, 0))
	s.Replace(next)
	if _, ok := s.Ellipsoid("OLD"); ok {
		t.Fatalf("OLD survived Replace")
	}
	if _, ok := s.Ellipsoid("NEW"); !ok {
		t.Fatalf("NEW missing after Replace")
	}
	if e, d := s.Len(); e != 1 || d != 0 {
		t.Fatalf("Len=%d,%d", e, d)
	}
}

func TestEmpty(t *testing.T) {
	var src Source = Empty{}
	if _, ok := src.Datum("WGS84"); ok {
		t.Fatalf("Empty must resolve nothing")
	}
}

func TestDelete(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if !s.DeleteDatum(" nad27 ") {
		t.Fatalf("expected NAD27 to be deleted")
	}
	if _, ok := s.Datum("NAD27"); ok {
		t.Fatalf("NAD27 still present")
	}
	if s.DeleteDatum("NAD27") {
		t.Fatalf("second delete must report false")
	}
	if !s.DeleteEllipsoid("CLRK66") {
		t.Fatalf("expected CLRK66 to be deleted")
	}
	if _, ok := s.Ellipsoid("clrk66"); ok {
		t.Fatalf("CLRK66 still present")
	}
}
