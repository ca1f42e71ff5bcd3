package model

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Flavor identifies a vendor WKT dialect and its naming namespace.
type Flavor uint8

const (
	FlavorNone Flavor = iota
	FlavorEPSG
	FlavorESRI
	FlavorOracle
	FlavorOracle9
	FlavorAutodesk
	FlavorOGC
	FlavorGeoTiff
	FlavorGeoTools
	FlavorIBM
	FlavorUser
	FlavorLegacy
	flavorCount
)

var flavorNames = [...]string{
	FlavorNone:     "None",
	FlavorEPSG:     "EPSG",
	FlavorESRI:     "ESRI",
	FlavorOracle:   "Oracle",
	FlavorOracle9:  "Oracle9",
	FlavorAutodesk: "Autodesk",
	FlavorOGC:      "OGC",
	FlavorGeoTiff:  "GeoTiff",
	FlavorGeoTools: "GeoTools",
	FlavorIBM:      "IBM",
	FlavorUser:     "User",
	FlavorLegacy:   "Legacy",
}

// Precedence is the order in which a detected flavor is chosen from a bitmap.
var Precedence = []Flavor{
	FlavorUser,
	FlavorESRI,
	FlavorOracle,
	FlavorAutodesk,
	FlavorOGC,
	FlavorOracle9,
	FlavorIBM,
	FlavorGeoTools,
	FlavorEPSG,
	FlavorGeoTiff,
	FlavorLegacy,
}

func (f Flavor) String() string {
	if int(f) < len(flavorNames) {
		return flavorNames[f]
	}
	return "Flavor(" + strconv.Itoa(int(f)) + ")"
}

func (f Flavor) Valid() bool { return f > FlavorNone && f < flavorCount }

func (f Flavor) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Flavor) UnmarshalText(b []byte) error {
	v, err := ParseFlavor(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseFlavor accepts a flavor name (case-insensitive) or its numeric code.
// The empty string parses to FlavorNone.
func ParseFlavor(s string) (Flavor, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "auto") {
		return FlavorNone, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		f := Flavor(n)
		if !f.Valid() {
			return FlavorNone, fmt.Errorf("unknown flavor code %d", n)
		}
		return f, nil
	}
	for i, name := range flavorNames {
		if strings.EqualFold(name, s) && Flavor(i) != FlavorNone {
			return Flavor(i), nil
		}
	}
	return FlavorNone, fmt.Errorf("unknown flavor %q", s)
}

// AllFlavors lists every valid flavor in code order.
func AllFlavors() []Flavor {
	out := make([]Flavor, 0, int(flavorCount)-1)
	for f := FlavorNone + 1; f < flavorCount; f++ {
		out = append(out, f)
	}
	return out
}

// FlavorSet is a bitmap of flavors.
type FlavorSet uint32

func SetOf(fs ...Flavor) FlavorSet {
	var s FlavorSet
	for _, f := range fs {
		s = s.With(f)
	}
	return s
}

func (s FlavorSet) Has(f Flavor) bool         { return s&(1<<f) != 0 }
func (s FlavorSet) With(f Flavor) FlavorSet   { return s | 1<<f }
func (s FlavorSet) And(o FlavorSet) FlavorSet { return s & o }
func (s FlavorSet) Empty() bool               { return s == 0 }
func (s FlavorSet) Len() int                  { return bits.OnesCount32(uint32(s)) }

// First returns the highest-precedence member, or FlavorNone.
func (s FlavorSet) First() Flavor {
	for _, f := range Precedence {
		if s.Has(f) {
			return f
		}
	}
	return FlavorNone
}

func (s FlavorSet) Flavors() []Flavor {
	var out []Flavor
	for _, f := range AllFlavors() {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s FlavorSet) String() string {
	fs := s.Flavors()
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}
