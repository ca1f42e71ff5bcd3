// Package namemap cross-references object names between WKT flavors.
//
// Every row binds a name in one flavor's namespace to a flavor-independent
// generic id. Lookups go name -> generic id -> name, so any flavor can be
// translated to any other through the generic id.
package namemap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
)

// SyntheticBase is the first generic id assigned to objects without an EPSG code.
const SyntheticBase = 500000

type ObjectType uint8

const (
	TypeNone ObjectType = iota
	TypeEllipsoid
	TypeDatum
	TypeProjectedCS
	TypeGeographicCS
	TypeProjection
	TypeParameter
	TypeLinearUnit
	TypeAngularUnit
	TypePrimeMeridian

	// Pseudo types, valid for lookups only. Each resolves against two
	// concrete namespaces in order.
	TypeUnit
	TypeProjectedOrGeographic
)

var typeNames = [...]string{
	TypeNone:                  "None",
	TypeEllipsoid:             "Ellipsoid",
	TypeDatum:                 "Datum",
	TypeProjectedCS:           "ProjectedCS",
	TypeGeographicCS:          "GeographicCS",
	TypeProjection:            "Projection",
	TypeParameter:             "Parameter",
	TypeLinearUnit:            "LinearUnit",
	TypeAngularUnit:           "AngularUnit",
	TypePrimeMeridian:         "PrimeMeridian",
	TypeUnit:                  "Unit",
	TypeProjectedOrGeographic: "ProjectedOrGeographic",
}

func (t ObjectType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "ObjectType(" + strconv.Itoa(int(t)) + ")"
}

// Concrete reports whether rows can be stored under t.
func (t ObjectType) Concrete() bool {
	return t > TypeNone && t < TypeUnit
}

// expand returns the concrete namespaces a lookup of type t searches, in order.
func (t ObjectType) expand() []ObjectType {
	switch t {
	case TypeUnit:
		return []ObjectType{TypeLinearUnit, TypeAngularUnit}
	case TypeProjectedOrGeographic:
		return []ObjectType{TypeProjectedCS, TypeGeographicCS}
	}
	return []ObjectType{t}
}

// ParseObjectType accepts a type name (case-insensitive) or its numeric code.
func ParseObjectType(s string) (ObjectType, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		t := ObjectType(n)
		if !t.Concrete() {
			return TypeNone, fmt.Errorf("unknown object type code %d", n)
		}
		return t, nil
	}
	for i, name := range typeNames {
		t := ObjectType(i)
		if t.Concrete() && strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return TypeNone, fmt.Errorf("unknown object type %q", s)
}

// Entry is one name binding.
type Entry struct {
	GenericID  uint32       `json:"generic_id"`
	Type       ObjectType   `json:"type"`
	Flavor     model.Flavor `json:"flavor"`
	NumericID  uint32       `json:"numeric_id,omitempty"`
	Name       string       `json:"name"`
	DupRank    int          `json:"dup_rank,omitempty"`
	Alias      bool         `json:"alias,omitempty"`
	Flags      uint32       `json:"flags,omitempty"`
	Deprecated uint32       `json:"deprecated,omitempty"`
	Remarks    string       `json:"remarks,omitempty"`
	Comments   string       `json:"comments,omitempty"`
}

// better reports whether e should win over o when both match a lookup.
func (e Entry) better(o Entry) bool {
	if e.Alias != o.Alias {
		return !e.Alias
	}
	return e.DupRank < o.DupRank
}
