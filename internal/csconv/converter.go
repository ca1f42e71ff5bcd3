// Package csconv translates between coordinate-system WKT and the geodetic
// definition records in internal/core/model.
//
// A Converter holds no mutable state of its own. Import and export calls may
// run concurrently once the name map they share has been built.
package csconv

import (
	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/dictionary"
	"github.com/mohammed-shakir/cs-wkt/internal/namemap"
)

type Converter struct {
	names *namemap.Mapper
	dict  dictionary.Source
}

// New returns a Converter over a loaded name map. A nil dictionary disables
// datum completion.
func New(names *namemap.Mapper, dict dictionary.Source) *Converter {
	if dict == nil {
		dict = dictionary.Empty{}
	}
	return &Converter{names: names, dict: dict}
}

func (c *Converter) Names() *namemap.Mapper { return c.names }

func (c *Converter) Dictionary() dictionary.Source { return c.dict }

// ImportResult is the outcome of one Import.
type ImportResult struct {
	Flavor model.Flavor `json:"flavor"`
	// Kind is the root keyword: PROJCS, GEOGCS, LOCAL_CS, DATUM or SPHEROID.
	Kind      string              `json:"kind"`
	CoordSys  model.CoordSystemDef `json:"coordsys"`
	Datum     model.DatumDef       `json:"datum"`
	Ellipsoid model.EllipsoidDef   `json:"ellipsoid"`

	CoordSysName  NameInfo `json:"coordsys_name"`
	DatumName     NameInfo `json:"datum_name"`
	EllipsoidName NameInfo `json:"ellipsoid_name"`

	// DatumSuperseded is set when the dictionary definition replaced the
	// datum assembled from the text.
	DatumSuperseded bool     `json:"datum_superseded,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// ExportOptions control Export calls. The zero value exports OGC WKT and
// allows flavor substitution.
type ExportOptions struct {
	Flavor model.Flavor `json:"flavor"`
	// DisableSubstitution turns an unrepresentable projection into an error
	// instead of falling back to the Autodesk flavor.
	DisableSubstitution bool `json:"disable_substitution,omitempty"`
	// Authority emits AUTHORITY["EPSG",code] where a code is known.
	Authority bool `json:"authority,omitempty"`
}

func (o ExportOptions) flavor() model.Flavor {
	if o.Flavor.Valid() {
		return o.Flavor
	}
	return model.FlavorOGC
}

type ExportResult struct {
	WKT string `json:"wkt"`
	// Flavor is the flavor actually written.
	Flavor      model.Flavor `json:"flavor"`
	Requested   model.Flavor `json:"requested"`
	Substituted bool         `json:"substituted,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"`
}
