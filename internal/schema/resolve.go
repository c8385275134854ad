package schema

import (
	"fmt"
)

// Resolve merges the three schema sources into one authoritative map.
//
// Layering: the base schema comes first, extension documents follow in
// declaration order (later wins on a plain name collision), and the
// dataset's missing-property fragment is consulted last but only for
// properties no other source defines. A type conflict on a property
// that any source marks required is rejected outright instead of being
// resolved by priority, since silently retyping a required property
// would corrupt downstream consumers.
func Resolve(base *Document, extensions []*Document, missing *Document) (*Resolved, error) {
	resolved := &Resolved{
		Properties: make(map[string]*Property),
		Required:   make(map[string]bool),
	}
	if base == nil {
		return nil, fmt.Errorf("base schema is missing")
	}
	mergeDocument(resolved, base)

	for i, ext := range extensions {
		if ext == nil {
			return nil, fmt.Errorf("extension schema %d is missing", i)
		}
		if err := checkRequiredConflicts(resolved, ext); err != nil {
			return nil, err
		}
		mergeDocument(resolved, ext)
	}

	if missing != nil {
		if err := checkRequiredConflicts(resolved, missing); err != nil {
			return nil, err
		}
		for name := range missing.Properties {
			// The fragment only fills gaps; defined properties keep
			// their base or extension declaration.
			if _, defined := resolved.Properties[name]; defined {
				continue
			}
			resolved.Properties[name] = missing.Properties[name]
		}
		for _, name := range missing.Required {
			resolved.Required[name] = true
		}
	}

	for name := range resolved.Required {
		if _, ok := resolved.Properties[name]; !ok {
			return nil, fmt.Errorf("property %q is marked required but has no schema", name)
		}
	}
	return resolved, nil
}

func mergeDocument(resolved *Resolved, doc *Document) {
	for name, prop := range doc.Properties {
		resolved.Properties[name] = prop
	}
	for _, name := range doc.Required {
		resolved.Required[name] = true
	}
}

// checkRequiredConflicts rejects a source that redeclares an already
// known property with a different type when either side marks that
// property required.
func checkRequiredConflicts(resolved *Resolved, doc *Document) error {
	incomingRequired := make(map[string]bool, len(doc.Required))
	for _, name := range doc.Required {
		incomingRequired[name] = true
	}
	for name, prop := range doc.Properties {
		existing, ok := resolved.Properties[name]
		if !ok || existing.Type == prop.Type {
			continue
		}
		if resolved.Required[name] || incomingRequired[name] {
			return fmt.Errorf("conflicting types for required property %q: %s vs %s",
				name, existing.Type, prop.Type)
		}
	}
	return nil
}

// Covers verifies that every given column name has an entry in the
// resolved schema.
func (r *Resolved) Covers(columns []string) error {
	for _, name := range columns {
		if _, ok := r.Properties[name]; !ok {
			return fmt.Errorf("column %q has no schema definition", name)
		}
	}
	return nil
}
