// Package invalidation defines the dictionary change events that retire
// cached translations.
package invalidation

import (
	"fmt"
	"strings"
	"time"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
)

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
	// OpReload announces a wholesale dictionary or name map change.
	OpReload = "reload"

	KindEllipsoid = "ellipsoid"
	KindDatum     = "datum"
	KindNameMap   = "namemap"
)

// DictionaryEvent reports a change to a dictionary entry. Seq increases per
// (kind, key); a replayed or older Seq is ignored.
type DictionaryEvent struct {
	Version int       `json:"version"`
	Op      string    `json:"op"`
	Kind    string    `json:"kind"`
	Key     string    `json:"key,omitempty"`
	Seq     uint64    `json:"seq"`
	TS      time.Time `json:"ts"`
	Source  string    `json:"source,omitempty"`

	// Upserts may carry the new definition so the local dictionary can be
	// updated in place.
	Ellipsoid *model.EllipsoidDef `json:"ellipsoid,omitempty"`
	Datum     *model.DatumDef     `json:"datum,omitempty"`
}

// DedupeKey identifies the entry the event sequence applies to.
func (e DictionaryEvent) DedupeKey() string {
	return e.Kind + ":" + strings.ToUpper(strings.TrimSpace(e.Key))
}

func (e DictionaryEvent) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Kind {
	case KindEllipsoid, KindDatum, KindNameMap:
	default:
		return fmt.Errorf("kind must be ellipsoid|datum|namemap")
	}
	switch e.Op {
	case OpUpsert, OpDelete:
		if e.Kind == KindNameMap {
			return fmt.Errorf("namemap events support only op=reload")
		}
		if strings.TrimSpace(e.Key) == "" {
			return fmt.Errorf("key is required for %s", e.Op)
		}
	case OpReload:
	default:
		return fmt.Errorf("op must be upsert|delete|reload")
	}
	if e.Seq == 0 {
		return fmt.Errorf("seq is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	if e.Op != OpUpsert && (e.Ellipsoid != nil || e.Datum != nil) {
		return fmt.Errorf("only upsert may carry a definition")
	}
	if e.Ellipsoid != nil && e.Datum != nil {
		return fmt.Errorf("at most one of ellipsoid or datum may be set")
	}
	if e.Ellipsoid != nil {
		if e.Kind != KindEllipsoid {
			return fmt.Errorf("ellipsoid payload on a %s event", e.Kind)
		}
		if e.Ellipsoid.SemiMajor <= 0 {
			return fmt.Errorf("ellipsoid.semi_major must be positive")
		}
		if !strings.EqualFold(strings.TrimSpace(e.Ellipsoid.Key), strings.TrimSpace(e.Key)) {
			return fmt.Errorf("ellipsoid.key must match key")
		}
	}
	if e.Datum != nil {
		if e.Kind != KindDatum {
			return fmt.Errorf("datum payload on a %s event", e.Kind)
		}
		if strings.TrimSpace(e.Datum.EllipsoidKey) == "" {
			return fmt.Errorf("datum.ellipsoid is required")
		}
		if !strings.EqualFold(strings.TrimSpace(e.Datum.Key), strings.TrimSpace(e.Key)) {
			return fmt.Errorf("datum.key must match key")
		}
	}
	return nil
}
