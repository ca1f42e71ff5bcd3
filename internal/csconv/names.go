package csconv

import (
	"strconv"
	"strings"
)

// MaxKeyLen is the longest canonical key name.
const MaxKeyLen = 23

// NameSource records which step of name resolution produced a key.
type NameSource string

const (
	NameMapped    NameSource = "mapped"
	NameAuthority NameSource = "authority"
	NameRaw       NameSource = "raw"
	NameReduced   NameSource = "reduced"
)

// NameInfo describes how a key name was derived from its WKT name.
type NameInfo struct {
	WKTName   string     `json:"wkt_name"`
	Key       string     `json:"key"`
	Source    NameSource `json:"source"`
	Truncated bool       `json:"truncated,omitempty"`
}

// Applied in order. Earlier entries may create text later ones match.
var reductions = []struct{ old, new string }{
	{"Spheroid", ""},
	{"spheroid", ""},
	{"Adjustment)", "Adj)"},
	{"Adjustment", "Adj"},
	{"Universal Transverse Mercator", "UTM"},
	{"Transverse Mercator", "TM"},
	{"Transverse_Mercator", "TM"},
	{"UTM zone ", "UTM"},
	{"UTM_Zone_", "UTM"},
	{"Lambert Conformal Conic", "LCC"},
	{"Lambert_Conformal_Conic", "LCC"},
	{"North American Datum", "NAD"},
	{"North_American_Datum", "NAD"},
	{"World Geodetic System", "WGS"},
	{"European Terrestrial Reference System", "ETRS"},
	{"International", "Intl"},
	{"National", "Natl"},
	{"Geodetic", "Geod"},
	{"Coordinate System", "CS"},
	{"Projection", "Proj"},
	{"State Plane", "SP"},
	{"StatePlane", "SP"},
	{" / ", "."},
	{"(", ""},
	{")", ""},
}

func keyChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '.', c == '$', c == ':':
		return true
	}
	return false
}

// ValidKeyName reports whether s can be used as a key name unchanged.
func ValidKeyName(s string) bool {
	if s == "" || len(s) > MaxKeyLen {
		return false
	}
	c := s[0]
	if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !keyChar(s[i]) {
			return false
		}
	}
	return true
}

// reduceName shrinks a descriptive name toward a legal key name.
func reduceName(name string) string {
	s := strings.TrimSpace(name)
	for _, r := range reductions {
		s = strings.ReplaceAll(s, r.old, r.new)
	}
	var b strings.Builder
	prevUnderscore := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !keyChar(c) {
			c = '_'
		}
		if c == '_' {
			if prevUnderscore {
				continue
			}
			prevUnderscore = true
		} else {
			prevUnderscore = false
		}
		b.WriteByte(c)
	}
	return strings.Trim(b.String(), "_.-")
}

// makeKey derives a key from a WKT name. When the reduced name is still too
// long, an AUTHORITY code is preferred; otherwise the name is cut and
// truncated is set.
func makeKey(name, authority string, code int) (key string, truncated bool) {
	reduced := reduceName(name)
	if ValidKeyName(reduced) {
		return reduced, false
	}
	if authority != "" && code > 0 {
		k := strings.ToUpper(authority) + ":" + strconv.Itoa(code)
		if ValidKeyName(k) {
			return k, false
		}
	}
	if reduced == "" {
		return "UNNAMED", true
	}
	if len(reduced) > MaxKeyLen {
		reduced = strings.TrimRight(reduced[:MaxKeyLen], "_.-")
	}
	return reduced, true
}
