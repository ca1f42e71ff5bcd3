// Package wkt parses coordinate-system Well-Known Text into an element tree.
//
// The tree is an arena: elements live in one slice owned by the Tree and refer to
// their children by index. Nodes are cheap value handles into that arena.
package wkt

import "strings"

type ElementType uint8

const (
	Unknown ElementType = iota
	ProjCS
	GeogCS
	GeocCS
	VertCS
	LocalCS
	CompdCS
	FittedCS
	Datum
	VertDatum
	LocalDatum
	Spheroid
	PrimeM
	Unit
	Axis
	Parameter
	Authority
	ToWGS84
	Projection
	Method
	GeogTran
	ParamMT
	ConcatMT
	InverseMT
	PassthroughMT
	Extension
	LinUnit
	AngUnit
)

type elementInfo struct {
	keyword string
	// named elements carry an initial quoted name field.
	named bool
}

var elements = [...]elementInfo{
	Unknown:       {"", false},
	ProjCS:        {"PROJCS", true},
	GeogCS:        {"GEOGCS", true},
	GeocCS:        {"GEOCCS", true},
	VertCS:        {"VERT_CS", true},
	LocalCS:       {"LOCAL_CS", true},
	CompdCS:       {"COMPD_CS", true},
	FittedCS:      {"FITTED_CS", true},
	Datum:         {"DATUM", true},
	VertDatum:     {"VERT_DATUM", true},
	LocalDatum:    {"LOCAL_DATUM", true},
	Spheroid:      {"SPHEROID", true},
	PrimeM:        {"PRIMEM", true},
	Unit:          {"UNIT", true},
	Axis:          {"AXIS", true},
	Parameter:     {"PARAMETER", true},
	Authority:     {"AUTHORITY", true},
	ToWGS84:       {"TOWGS84", false},
	Projection:    {"PROJECTION", true},
	Method:        {"METHOD", true},
	GeogTran:      {"GEOGTRAN", true},
	ParamMT:       {"PARAM_MT", true},
	ConcatMT:      {"CONCAT_MT", false},
	InverseMT:     {"INVERSE_MT", false},
	PassthroughMT: {"PASSTHROUGH_MT", false},
	Extension:     {"EXTENSION", true},
	LinUnit:       {"LINUNIT", true},
	AngUnit:       {"ANGUNIT", true},
}

var byKeyword = func() map[string]ElementType {
	m := make(map[string]ElementType, len(elements))
	for i, e := range elements {
		if e.keyword != "" {
			m[e.keyword] = ElementType(i)
		}
	}
	// Common synonyms.
	m["ELLIPSOID"] = Spheroid
	m["PRIMEMERIDIAN"] = PrimeM
	return m
}()

func (t ElementType) String() string {
	if int(t) < len(elements) && t != Unknown {
		return elements[t].keyword
	}
	return "Unknown"
}

// Named reports whether the element grammar has an initial quoted name.
func (t ElementType) Named() bool {
	return int(t) < len(elements) && elements[t].named
}

// IsCoordSys reports whether t is one of the coordinate system elements.
func (t ElementType) IsCoordSys() bool {
	switch t {
	case ProjCS, GeogCS, GeocCS, VertCS, LocalCS, CompdCS, FittedCS:
		return true
	}
	return false
}

// Lookup maps a keyword to its element type. Matching is exact: WKT keywords are upper case.
func Lookup(keyword string) ElementType {
	return byKeyword[keyword]
}

// Keywords returns every recognized keyword.
func Keywords() []string {
	out := make([]string, 0, len(byKeyword))
	for k := range byKeyword {
		out = append(out, k)
	}
	return out
}

// Quote renders s as a WKT quoted string, doubling embedded quotes.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
