package internal

import (
	"reflect"
	"sort"
)

// ChangeDetector decides whether a freshly fetched snapshot is worth
// persisting over the stored one.
type ChangeDetector struct {
	schema   Schema
	volatile map[string]struct{}
	logger   *Logger
}

// NewChangeDetector creates a detector using the schema's login marker and
// volatile keys, plus any extra keys to ignore during field comparison.
func NewChangeDetector(schema Schema, extraVolatile []string, logger *Logger) *ChangeDetector {
	volatile := make(map[string]struct{})
	for _, k := range schema.VolatileKeys() {
		volatile[k] = struct{}{}
	}
	for _, k := range extraVolatile {
		volatile[k] = struct{}{}
	}
	return &ChangeDetector{
		schema:   schema,
		volatile: volatile,
		logger:   logger,
	}
}

// ShouldPersist reports whether next should replace prev.
//
// A missing prev always persists. When both snapshots carry a login marker
// the marker alone decides: different markers persist, equal markers do
// not. Otherwise the snapshots are compared key by key, ignoring volatile
// keys for values but not for key presence.
func (d *ChangeDetector) ShouldPersist(prev, next *Snapshot) bool {
	if prev == nil {
		d.logger.Debugf("no previous snapshot")
		return true
	}

	prevLogin, prevOK := d.schema.LoginMarker(prev)
	nextLogin, nextOK := d.schema.LoginMarker(next)
	if prevOK && nextOK {
		d.logger.Debugf("last login: %v, current login: %v", prevLogin, nextLogin)
		if !reflect.DeepEqual(prevLogin, nextLogin) {
			return true
		}
		d.logger.Warnf("character hasn't logged in since last fetch")
		return false
	}

	changed := d.ChangedKeys(prev, next)
	if len(changed) > 0 {
		d.logger.Debugf("changed keys: %v", changed)
		return true
	}
	return false
}

// ChangedKeys lists, in sorted order, the top-level keys that were added,
// removed, or whose value changed (volatile keys only count when added or
// removed). Non-object payloads are compared whole and reported as "$".
func (d *ChangeDetector) ChangedKeys(prev, next *Snapshot) []string {
	prevObj, prevIsObj := prev.Object()
	nextObj, nextIsObj := next.Object()
	if !prevIsObj || !nextIsObj {
		if reflect.DeepEqual(prev.Data(), next.Data()) {
			return nil
		}
		return []string{"$"}
	}

	var changed []string
	for k, pv := range prevObj {
		nv, ok := nextObj[k]
		if !ok {
			changed = append(changed, k)
			continue
		}
		if _, skip := d.volatile[k]; skip {
			continue
		}
		if !reflect.DeepEqual(pv, nv) {
			changed = append(changed, k)
		}
	}
	for k := range nextObj {
		if _, ok := prevObj[k]; !ok {
			changed = append(changed, k)
		}
	}

	sort.Strings(changed)
	return changed
}
