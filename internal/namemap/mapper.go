package namemap

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
)

var ErrDuplicate = errors.New("namemap: duplicate entry")

type nameKey struct {
	typ    ObjectType
	flavor model.Flavor
	name   string
}

type idKey struct {
	typ    ObjectType
	flavor model.Flavor
	id     uint32
}

type uniqKey struct {
	nameKey
	alias bool
	rank  int
}

// Mapper is an in-memory name map. Lookups are safe for concurrent use; Add and
// AddAlias take the write lock.
type Mapper struct {
	mu        sync.RWMutex
	entries   []Entry
	byName    map[nameKey][]int
	byGeneric map[idKey][]int
	byNumber  map[idKey][]int
	uniq      map[uniqKey]struct{}
}

func NewMapper() *Mapper {
	return &Mapper{
		byName:    make(map[nameKey][]int),
		byGeneric: make(map[idKey][]int),
		byNumber:  make(map[idKey][]int),
		uniq:      make(map[uniqKey]struct{}),
	}
}

// fold normalizes a name for case-insensitive matching. A Caser keeps state,
// so each call gets its own.
func fold(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func (m *Mapper) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Add inserts e. Rows are a set under (type, flavor, alias, folded name, rank).
func (m *Mapper) Add(e Entry) error {
	if !e.Type.Concrete() {
		return fmt.Errorf("namemap: cannot store entries of type %s", e.Type)
	}
	if !e.Flavor.Valid() {
		return fmt.Errorf("namemap: invalid flavor %d", e.Flavor)
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("namemap: empty name for generic id %d", e.GenericID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(e)
}

func (m *Mapper) addLocked(e Entry) error {
	nk := nameKey{typ: e.Type, flavor: e.Flavor, name: fold(e.Name)}
	uk := uniqKey{nameKey: nk, alias: e.Alias, rank: e.DupRank}
	if _, dup := m.uniq[uk]; dup {
		return fmt.Errorf("%w: %s/%s %q rank %d", ErrDuplicate, e.Type, e.Flavor, e.Name, e.DupRank)
	}
	m.uniq[uk] = struct{}{}
	idx := len(m.entries)
	m.entries = append(m.entries, e)
	m.byName[nk] = append(m.byName[nk], idx)
	gk := idKey{typ: e.Type, flavor: e.Flavor, id: e.GenericID}
	m.byGeneric[gk] = append(m.byGeneric[gk], idx)
	if e.NumericID != 0 {
		nk := idKey{typ: e.Type, flavor: e.Flavor, id: e.NumericID}
		m.byNumber[nk] = append(m.byNumber[nk], idx)
	}
	return nil
}

// AddAlias binds an extra import-only name to an existing generic id.
func (m *Mapper) AddAlias(typ ObjectType, flavor model.Flavor, genericID uint32, alias string) error {
	if !m.known(typ, genericID) {
		return fmt.Errorf("namemap: unknown %s generic id %d", typ, genericID)
	}
	return m.Add(Entry{GenericID: genericID, Type: typ, Flavor: flavor, Name: alias, Alias: true})
}

func (m *Mapper) known(typ ObjectType, genericID uint32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range model.AllFlavors() {
		if len(m.byGeneric[idKey{typ: typ, flavor: f, id: genericID}]) > 0 {
			return true
		}
	}
	return false
}

func (m *Mapper) best(idxs []int, skipAlias bool) (Entry, bool) {
	var out Entry
	found := false
	for _, i := range idxs {
		e := m.entries[i]
		if skipAlias && e.Alias {
			continue
		}
		if !found || e.better(out) {
			out, found = e, true
		}
	}
	return out, found
}

// Find returns the best entry named name in the (typ, flavor) namespace.
// Non-alias rows win over aliases, then the lowest duplicate rank.
func (m *Mapper) Find(typ ObjectType, flavor model.Flavor, name string) (Entry, bool) {
	key := fold(name)
	if key == "" {
		return Entry{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range typ.expand() {
		if e, ok := m.best(m.byName[nameKey{typ: t, flavor: flavor, name: key}], false); ok {
			return e, true
		}
	}
	return Entry{}, false
}

// Locate returns the generic id for name in the (typ, flavor) namespace.
func (m *Mapper) Locate(typ ObjectType, flavor model.Flavor, name string) (uint32, bool) {
	e, ok := m.Find(typ, flavor, name)
	return e.GenericID, ok
}

// LocateAny searches every flavor in precedence order and reports where name matched.
func (m *Mapper) LocateAny(typ ObjectType, name string) (uint32, model.Flavor, bool) {
	for _, f := range model.Precedence {
		if id, ok := m.Locate(typ, f, name); ok {
			return id, f, true
		}
	}
	return 0, model.FlavorNone, false
}

// LocateNumber resolves a flavor-specific numeric id to its generic id.
func (m *Mapper) LocateNumber(typ ObjectType, flavor model.Flavor, number uint32) (uint32, bool) {
	if number == 0 {
		return 0, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range typ.expand() {
		if e, ok := m.best(m.byNumber[idKey{typ: t, flavor: flavor, id: number}], false); ok {
			return e.GenericID, true
		}
	}
	return 0, false
}

// NameFor returns the name flavor uses for genericID. Alias rows are never returned.
func (m *Mapper) NameFor(typ ObjectType, flavor model.Flavor, genericID uint32) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range typ.expand() {
		if e, ok := m.best(m.byGeneric[idKey{typ: t, flavor: flavor, id: genericID}], true); ok {
			return e.Name, true
		}
	}
	return "", false
}

// NumberFor returns the numeric id flavor assigns to genericID, if any.
func (m *Mapper) NumberFor(typ ObjectType, flavor model.Flavor, genericID uint32) (uint32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range typ.expand() {
		for _, i := range m.byGeneric[idKey{typ: t, flavor: flavor, id: genericID}] {
			if n := m.entries[i].NumericID; n != 0 {
				return n, true
			}
		}
	}
	return 0, false
}

// MapName translates name from the source flavor's namespace to the target's.
func (m *Mapper) MapName(typ ObjectType, target, source model.Flavor, name string) (string, bool) {
	e, ok := m.Find(typ, source, name)
	if !ok {
		return "", false
	}
	// Keep the concrete namespace the name was found in.
	return m.NameFor(e.Type, target, e.GenericID)
}

// Flavors returns every flavor in which name is a valid entry of type typ.
func (m *Mapper) Flavors(typ ObjectType, name string) model.FlavorSet {
	key := fold(name)
	var set model.FlavorSet
	if key == "" {
		return set
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range typ.expand() {
		for _, f := range model.AllFlavors() {
			if len(m.byName[nameKey{typ: t, flavor: f, name: key}]) > 0 {
				set = set.With(f)
			}
		}
	}
	return set
}

// Entries returns a copy of the rows of type typ, or every row for TypeNone.
func (m *Mapper) Entries(typ ObjectType) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if typ == TypeNone || e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
