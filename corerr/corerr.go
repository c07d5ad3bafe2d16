// Package corerr defines the CORE's error taxonomy: a small set of
// sentinel kinds that every layer wraps context onto with fmt.Errorf's
// %w, so callers can still errors.Is against the kind while reading a
// message that names the entity, fetch specification, or SQL involved.
package corerr

import "errors"

// Kinds, not type names — every error CoreQL returns wraps one of these.
var (
	// ErrConfiguration covers missing entities, unbuildable fetch specs,
	// unresolved qualifier bindings, and entities missing a primary key
	// where one is required (e.g. a GlobalID fetch).
	ErrConfiguration = errors.New("configuration error")

	// ErrIntegrity covers results that violate a caller's cardinality
	// expectation: fetch-one returning multiple rows, a count fetch
	// returning no rows.
	ErrIntegrity = errors.New("integrity error")

	// ErrDriver covers channel acquisition failures and SQL execution
	// failures at the adaptor boundary.
	ErrDriver = errors.New("driver error")

	// ErrType covers adaptor value conversion failures and NULL landing
	// in a non-optional attribute.
	ErrType = errors.New("type error")

	// ErrLifecycle covers operations attempted against an object in the
	// wrong state: read-only, or lacking a database binding.
	ErrLifecycle = errors.New("lifecycle error")
)

// Is reports whether err wraps the given kind.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}
