package csconv

import (
	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/namemap"
	"github.com/mohammed-shakir/cs-wkt/internal/wkt"
)

type nameRef struct {
	typ  namemap.ObjectType
	name string
	// geogcs marks the geographic system name, the only name subject to the
	// Oracle9 widening.
	geogcs bool
}

func addRef(out []nameRef, typ namemap.ObjectType, n wkt.Node) []nameRef {
	if n.Valid() && n.Name() != "" {
		out = append(out, nameRef{typ: typ, name: n.Name()})
	}
	return out
}

func geogRefs(out []nameRef, geog wkt.Node) []nameRef {
	if !geog.Valid() {
		return out
	}
	if geog.Name() != "" {
		out = append(out, nameRef{typ: namemap.TypeGeographicCS, name: geog.Name(), geogcs: true})
	}
	datum := geog.Child(wkt.Datum)
	out = addRef(out, namemap.TypeDatum, datum)
	out = addRef(out, namemap.TypeEllipsoid, datum.Child(wkt.Spheroid))
	return addRef(out, namemap.TypeAngularUnit, geog.Child(wkt.Unit))
}

// nameRefs collects the names whose namespaces identify a flavor.
func nameRefs(root wkt.Node) []nameRef {
	var out []nameRef
	switch root.Type() {
	case wkt.ProjCS:
		out = addRef(out, namemap.TypeProjectedCS, root)
		out = geogRefs(out, root.Child(wkt.GeogCS))
		out = addRef(out, namemap.TypeProjection, root.Child(wkt.Projection))
		for _, p := range root.ChildrenOf(wkt.Parameter) {
			out = addRef(out, namemap.TypeParameter, p)
		}
		out = addRef(out, namemap.TypeLinearUnit, root.Child(wkt.Unit))
	case wkt.GeogCS:
		out = geogRefs(out, root)
	case wkt.LocalCS:
		out = addRef(out, namemap.TypeLinearUnit, root.Child(wkt.Unit))
	case wkt.Datum:
		out = addRef(out, namemap.TypeDatum, root)
		out = addRef(out, namemap.TypeEllipsoid, root.Child(wkt.Spheroid))
	case wkt.Spheroid:
		out = addRef(out, namemap.TypeEllipsoid, root)
	}
	return out
}

// FlavorBitmap intersects the flavor sets of every recognized name under
// root. A name known to no flavor leaves the intersection unchanged.
func (c *Converter) FlavorBitmap(root wkt.Node) model.FlavorSet {
	var acc *model.FlavorSet
	for _, p := range nameRefs(root) {
		bits := c.names.Flavors(p.typ, p.name)
		if bits.Empty() {
			continue
		}
		// Oracle 9 and later Oracle releases name geographic systems
		// inconsistently; a 9-style name also counts as Oracle.
		if p.geogcs && bits.Has(model.FlavorOracle9) {
			bits = bits.With(model.FlavorOracle)
		}
		if acc == nil {
			acc = &bits
			continue
		}
		narrowed := acc.And(bits)
		acc = &narrowed
	}
	if acc == nil {
		return 0
	}
	return *acc
}

// DetectFlavor picks the preferred flavor when the names allow it, otherwise
// the highest-precedence candidate. FlavorNone means undetermined.
func (c *Converter) DetectFlavor(root wkt.Node, preferred model.Flavor) model.Flavor {
	set := c.FlavorBitmap(root)
	if preferred.Valid() && set.Has(preferred) {
		return preferred
	}
	return set.First()
}
