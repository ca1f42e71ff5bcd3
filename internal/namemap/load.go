package namemap

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
)

//go:embed data/namemap.csv
var defaultTable []byte

var header = []string{"GenericId", "Type", "Flavor", "NumericId", "Name", "DupRank", "Alias", "Flags", "Deprecated", "Remarks", "Comments"}

// Default builds a Mapper from the embedded table.
func Default() (*Mapper, error) {
	return Load(bytes.NewReader(defaultTable))
}

func LoadFile(path string) (*Mapper, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open name map: %w", err)
	}
	defer func() { _ = f.Close() }()
	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Load reads a name map table. Lines starting with '#' are comments; a header
// row is optional. Any malformed row fails the whole load.
func Load(r io.Reader) (*Mapper, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	m := NewMapper()
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("name map: %w", err)
		}
		line++
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), header[0]) {
			continue
		}
		e, err := parseRow(rec)
		if err != nil {
			row, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("name map row %d: %w", row, err)
		}
		if err := m.addLocked(e); err != nil {
			row, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("name map row %d: %w", row, err)
		}
	}
	if len(m.entries) == 0 {
		return nil, errors.New("name map: no entries")
	}
	return m, nil
}

func parseRow(rec []string) (Entry, error) {
	if len(rec) < 5 {
		return Entry{}, fmt.Errorf("want at least 5 fields, got %d", len(rec))
	}
	get := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	num := func(i int) (uint32, error) {
		s := get(i)
		if s == "" {
			return 0, nil
		}
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", header[i], err)
		}
		return uint32(v), nil
	}

	var e Entry
	var err error
	if e.GenericID, err = num(0); err != nil {
		return e, err
	}
	if e.GenericID == 0 {
		return e, errors.New("generic id is required")
	}
	if e.Type, err = ParseObjectType(get(1)); err != nil {
		return e, err
	}
	if e.Flavor, err = model.ParseFlavor(get(2)); err != nil {
		return e, err
	}
	if !e.Flavor.Valid() {
		return e, fmt.Errorf("flavor is required")
	}
	if e.NumericID, err = num(3); err != nil {
		return e, err
	}
	e.Name = get(4)
	if e.Name == "" {
		return e, errors.New("name is required")
	}
	if s := get(5); s != "" {
		if e.DupRank, err = strconv.Atoi(s); err != nil {
			return e, fmt.Errorf("DupRank: %w", err)
		}
	}
	e.Alias = get(6) == "1" || strings.EqualFold(get(6), "true")
	if e.Flags, err = num(7); err != nil {
		return e, err
	}
	if e.Deprecated, err = num(8); err != nil {
		return e, err
	}
	e.Remarks = get(9)
	e.Comments = get(10)
	return e, nil
}
