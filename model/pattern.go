package model

import "fmt"

// BindPattern merges a concrete model (produced by reflecting the live
// database schema) into a pattern model, preserving any custom
// overrides the pattern entities already carry — spec.md §4.2:
// "When a pattern model is bound to an adaptor, the adaptor reflects
// the live schema and produces a concrete model that the pattern
// model merges with, preserving custom overrides."
//
// For each pattern entity, the matching reflected entity (by name, or
// by TableName when IsExternalNamePattern) contributes any attribute
// the pattern entity does not already declare; attributes the pattern
// entity already declares are left untouched (the "custom override").
// Reflected entities with no matching pattern entity are appended
// as-is, just like Model.Merge would.
func BindPattern(pattern, reflected *Model) (*Model, error) {
	bound := New()
	reflectedByTable := make(map[string]*Entity, len(reflected.entities))
	reflectedByName := make(map[string]*Entity, len(reflected.entities))
	for _, e := range reflected.entities {
		reflectedByName[e.Name] = e
		reflectedByTable[e.TableName()] = e
	}

	consumed := make(map[string]bool)

	for _, pe := range pattern.entities {
		var match *Entity
		if pe.IsExternalNamePattern {
			match = reflectedByTable[pe.TableName()]
		} else {
			match = reflectedByName[pe.Name]
		}
		if match == nil {
			// No concrete counterpart yet; keep the pattern entity as-is.
			if err := bound.AddEntity(pe); err != nil {
				return nil, err
			}
			continue
		}
		consumed[match.Name] = true

		merged := NewEntity(pe.Name)
		merged.ExternalName = pe.TableName()
		merged.ClassName = pe.ClassName
		merged.PrimaryKeyNames = pe.PrimaryKeyNames
		merged.RestrictingQualifier = pe.RestrictingQualifier

		existing := make(map[string]bool, len(pe.Attributes))
		for _, a := range pe.Attributes {
			existing[a.Name] = true
			if err := merged.AddAttribute(a); err != nil {
				return nil, err
			}
		}
		for _, a := range match.Attributes {
			if existing[a.Name] {
				continue // custom override wins
			}
			if err := merged.AddAttribute(a); err != nil {
				return nil, err
			}
		}
		for _, r := range pe.Relationships {
			if err := merged.AddRelationship(r); err != nil {
				return nil, err
			}
		}

		if err := bound.AddEntity(merged); err != nil {
			return nil, err
		}
	}

	for _, re := range reflected.entities {
		if consumed[re.Name] {
			continue
		}
		if err := bound.AddEntity(re); err != nil {
			return nil, fmt.Errorf("BindPattern: %w", err)
		}
	}

	bound.Tag = ""
	return bound, nil
}
