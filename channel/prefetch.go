package channel

import (
	"context"
	"fmt"

	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/fetch"
	"github.com/core-orm/coreql/model"
	"github.com/core-orm/coreql/object"
	"github.com/core-orm/coreql/qualifier"
)

// selectWithPrefetch implements spec.md §4.5 step 2: acquire a
// channel, open an owned transaction if one isn't already in
// progress, run the primary select, batch-fetch every top-level
// prefetch path, then always roll back (reads never commit) and
// release the owned channel.
func (c *DatabaseChannel) selectWithPrefetch(ctx context.Context, fs *fetch.Specification, entity *model.Entity) ([]object.DatabaseObject, error) {
	if err := c.acquireChannel(ctx); err != nil {
		return nil, err
	}
	if !c.ch.IsTransactionInProgress() {
		if err := c.ch.Begin(ctx); err != nil {
			return nil, corerr.Driver(err, "channel: beginning prefetch transaction for entity %q", entity.Name)
		}
		c.ownsTransaction = true
	}
	defer c.CancelFetch()

	base, err := c.primarySelect(ctx, fs, entity)
	if err != nil {
		return nil, err
	}

	for _, path := range fs.Prefetches {
		if err := c.fetchRelated(ctx, entity, base, path); err != nil {
			return nil, err
		}
	}
	return base, nil
}

// fetchRelated resolves one top-level (possibly dotted) prefetch
// path: batch-fetches the related entity for every distinct
// source-join value across baseObjects, attaches the results back via
// the "take stored value" channel, then recurses into any sub-path
// (spec.md §4.5 step 2c: "person.addresses first fetches persons for
// accounts, then addresses for persons").
func (c *DatabaseChannel) fetchRelated(ctx context.Context, baseEntity *model.Entity, baseObjects []object.DatabaseObject, path string) error {
	rel, rest, ok := baseEntity.RelationshipForPath(path)
	if !ok {
		return corerr.Configuration(nil, "channel: entity %q has no relationship for prefetch path %q", baseEntity.Name, path)
	}
	dest := rel.Destination()
	if dest == nil {
		return corerr.Configuration(nil, "channel: relationship %q on entity %q has no connected destination", rel.Name, baseEntity.Name)
	}
	if len(rel.Joins) == 0 {
		return corerr.Configuration(nil, "channel: relationship %q on entity %q has no joins", rel.Name, baseEntity.Name)
	}
	join := rel.Joins[0]
	srcAttr, dstAttr := join.SourceAttribute(), join.DestinationAttribute()
	if srcAttr == nil || dstAttr == nil {
		return corerr.Configuration(nil, "channel: relationship %q on entity %q is not connected", rel.Name, baseEntity.Name)
	}

	// Default every base object to an empty prefetch result first, so
	// objects with no matching destination rows (or a NULL FK) still
	// report a populated (if empty) relationship.
	for _, obj := range baseObjects {
		assignRelated(obj, rel, nil)
	}

	groups := make(map[string][]object.DatabaseObject)
	var distinct []any
	seen := make(map[string]bool)
	for _, obj := range baseObjects {
		v, err := obj.Get(srcAttr.Name)
		if err != nil {
			return err
		}
		if v == nil {
			continue
		}
		key, err := prefetchKey(dest.Name, v)
		if err != nil {
			return err
		}
		groups[key] = append(groups[key], obj)
		if !seen[key] {
			seen[key] = true
			distinct = append(distinct, v)
		}
	}
	if len(distinct) == 0 {
		return nil
	}

	subSpec := fetch.ForEntity(dest).WithQualifier(qualifier.KV(dstAttr.Name, qualifier.In, distinct))
	destObjects, err := c.primarySelect(ctx, subSpec, dest)
	if err != nil {
		return corerr.Driver(err, "channel: prefetching %q", path)
	}

	byGroup := make(map[string][]object.DatabaseObject)
	for _, dObj := range destObjects {
		v, err := dObj.Get(dstAttr.Name)
		if err != nil {
			return err
		}
		if v == nil {
			continue
		}
		key, err := prefetchKey(dest.Name, v)
		if err != nil {
			return err
		}
		byGroup[key] = append(byGroup[key], dObj)
	}

	// Relationship attachment (spec.md §4.5): for each base object,
	// filter the destinations whose source-join value equals the base
	// object's destination-join value.
	for key, objs := range groups {
		related := byGroup[key]
		for _, obj := range objs {
			assignRelated(obj, rel, related)
		}
	}

	if rest != "" {
		return c.fetchRelated(ctx, dest, destObjects, rest)
	}
	return nil
}

func assignRelated(obj object.DatabaseObject, rel *model.Relationship, related []object.DatabaseObject) {
	if rel.ToMany {
		obj.SetRelated(rel.Name, related)
		return
	}
	if len(related) > 0 {
		obj.SetRelated(rel.Name, related[0])
	} else {
		obj.SetRelated(rel.Name, nil)
	}
}

// prefetchKey normalizes a source-join value into a (destination
// entity, value) key — spec.md §4.5 "Prefetch value keying" together
// with the REDESIGN FLAGS resolution that prefetch join-keys are keyed
// by (destinationEntity, value) rather than carrying an ad hoc
// entity-name hack through a scalar GlobalID. Arbitrary, non-scalar
// types fail fast with a clear error.
func prefetchKey(entityName string, value any) (string, error) {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, string, bool, float32, float64:
		return fmt.Sprintf("%s|%v", entityName, value), nil
	default:
		return "", corerr.Type(nil, "channel: prefetch join value of type %T on entity %q is not scalar-keyable", value, entityName)
	}
}
