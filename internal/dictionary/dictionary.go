// Package dictionary holds canonical ellipsoid and datum definitions keyed by
// canonical key name. The converters consult it to complete datums that WKT
// names without parameters.
package dictionary

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
)

//go:embed data/dictionary.yaml
var defaultData []byte

// Source resolves canonical key names to full definitions.
type Source interface {
	Ellipsoid(key string) (model.EllipsoidDef, bool)
	Datum(key string) (model.DatumDef, bool)
}

type ellipsoidRecord struct {
	Key         string  `yaml:"key"`
	Description string  `yaml:"description"`
	SemiMajor   float64 `yaml:"semi_major"`
	SemiMinor   float64 `yaml:"semi_minor"`
	InvFlat     float64 `yaml:"inv_flat"`
	EPSG        int     `yaml:"epsg"`
}

type document struct {
	Ellipsoids []ellipsoidRecord `yaml:"ellipsoids"`
	Datums     []model.DatumDef  `yaml:"datums"`
}

// Store is an in-memory Source. It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	ellipsoids map[string]model.EllipsoidDef
	datums     map[string]model.DatumDef
}

func NewStore() *Store {
	return &Store{
		ellipsoids: make(map[string]model.EllipsoidDef),
		datums:     make(map[string]model.DatumDef),
	}
}

func key(k string) string { return strings.ToUpper(strings.TrimSpace(k)) }

func Default() (*Store, error) {
	return Load(bytes.NewReader(defaultData))
}

func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer func() { _ = f.Close() }()
	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Load decodes a YAML document. Every datum must name an ellipsoid the
// document defines.
func Load(r io.Reader) (*Store, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}
	s := NewStore()
	for _, rec := range doc.Ellipsoids {
		if rec.Key == "" || rec.SemiMajor <= 0 {
			return nil, fmt.Errorf("dictionary: ellipsoid %q needs a key and a positive semi_major", rec.Key)
		}
		var e model.EllipsoidDef
		if rec.SemiMinor > 0 {
			e = model.NewEllipsoidAxes(rec.Key, rec.SemiMajor, rec.SemiMinor)
		} else {
			if err := model.CheckEllipsoid(rec.SemiMajor, rec.InvFlat); err != nil {
				return nil, fmt.Errorf("dictionary: ellipsoid %q: %w", rec.Key, err)
			}
			e = model.NewEllipsoid(rec.Key, rec.SemiMajor, rec.InvFlat)
		}
		e.Description = rec.Description
		e.EPSG = rec.EPSG
		s.PutEllipsoid(e)
	}
	for _, d := range doc.Datums {
		if d.Key == "" {
			return nil, errors.New("dictionary: datum without key")
		}
		if _, ok := s.Ellipsoid(d.EllipsoidKey); !ok {
			return nil, fmt.Errorf("dictionary: datum %q references unknown ellipsoid %q", d.Key, d.EllipsoidKey)
		}
		if d.Method == "" {
			d.Method = model.MethodNone
		}
		d.NoTransform = d.Method == model.MethodNone
		s.PutDatum(d)
	}
	return s, nil
}

func (s *Store) Ellipsoid(k string) (model.EllipsoidDef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.ellipsoids[key(k)]
	return e, ok
}

func (s *Store) Datum(k string) (model.DatumDef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.datums[key(k)]
	return d, ok
}

func (s *Store) PutEllipsoid(e model.EllipsoidDef) {
	s.mu.Lock()
	s.ellipsoids[key(e.Key)] = e
	s.mu.Unlock()
}

func (s *Store) PutDatum(d model.DatumDef) {
	s.mu.Lock()
	s.datums[key(d.Key)] = d
	s.mu.Unlock()
}

// DeleteEllipsoid removes an ellipsoid. Datums that reference it are kept.
func (s *Store) DeleteEllipsoid(k string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ellipsoids[key(k)]
	delete(s.ellipsoids, key(k))
	return ok
}

func (s *Store) DeleteDatum(k string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.datums[key(k)]
	delete(s.datums, key(k))
	return ok
}

// Replace swaps in the contents of other, used when the dictionary is reloaded.
func (s *Store) Replace(other *Store) {
	other.mu.RLock()
	ells := make(map[string]model.EllipsoidDef, len(other.ellipsoids))
	for k, v := range other.ellipsoids {
		ells[k] = v
	}
	dts := make(map[string]model.DatumDef, len(other.datums))
	for k, v := range other.datums {
		dts[k] = v
	}
	other.mu.RUnlock()

	s.mu.Lock()
	s.ellipsoids, s.datums = ells, dts
	s.mu.Unlock()
}

func (s *Store) Len() (ellipsoids, datums int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ellipsoids), len(s.datums)
}

// Empty is a Source with no entries.
type Empty struct{}

func (Empty) Ellipsoid(string) (model.EllipsoidDef, bool) { return model.EllipsoidDef{}, false }
func (Empty) Datum(string) (model.DatumDef, bool)         { return model.DatumDef{}, false }
