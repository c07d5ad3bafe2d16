package model

import "bytes"

// Snapshot is a mapping from attribute name to an optional value. The
// optionality is semantic: a present key with an absent value
// represents SQL NULL, distinct from a key that is simply missing
// (spec.md §3 Snapshot). Go has no built-in optional, so NullValue is
// used as the explicit "present but NULL" marker stored under the key.
type Snapshot map[string]any

// nullMarker is the sentinel stored for a present-but-NULL attribute.
type nullMarker struct{}

// NullValue is the Snapshot value representing an explicit SQL NULL.
var NullValue = nullMarker{}

// Has reports whether key is present at all (whether NULL or not).
func (s Snapshot) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// IsNull reports whether key is present and explicitly NULL.
func (s Snapshot) IsNull(key string) bool {
	v, ok := s[key]
	if !ok {
		return false
	}
	_, isNull := v.(nullMarker)
	return isNull
}

// Get returns the value for key, or nil if key is missing or NULL.
func (s Snapshot) Get(key string) any {
	v, ok := s[key]
	if !ok {
		return nil
	}
	if _, isNull := v.(nullMarker); isNull {
		return nil
	}
	return v
}

// Clone returns a shallow copy.
func (s Snapshot) Clone() Snapshot {
	c := make(Snapshot, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Diff returns the set of keys present in s or other whose effective
// value (via Get, NULL-aware) differs, mapped to s's value for that
// key. Used for changesFromSnapshot (spec.md §8 round-trip property).
func (s Snapshot) Diff(other Snapshot) Snapshot {
	diff := make(Snapshot)
	seen := make(map[string]bool)
	for k := range s {
		seen[k] = true
	}
	for k := range other {
		seen[k] = true
	}
	for k := range seen {
		sHas, oHas := s.Has(k), other.Has(k)
		if sHas != oHas {
			if sHas {
				diff[k] = s[k]
			}
			continue
		}
		if !sHas {
			continue
		}
		if !valuesEqual(s.Get(k), other.Get(k)) || s.IsNull(k) != other.IsNull(k) {
			diff[k] = s[k]
		}
	}
	return diff
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	// []byte (TypeBytes, see convert.go's toBytes) is not comparable
	// with ==: it would panic, not return false.
	aBytes, aIsBytes := a.([]byte)
	bBytes, bIsBytes := b.([]byte)
	if aIsBytes || bIsBytes {
		return aIsBytes && bIsBytes && bytes.Equal(aBytes, bBytes)
	}
	return a == b
}
