package updaterequest

import "sort"

// ConflictSchema declares, per updateable type, which parts of a payload
// conflict as a unit. Wholesale keys are collections replaced in full on
// apply, so a change to any element disputes the whole key. The content
// field is free-form structured content where a change to any nested key
// disputes the entire field.
type ConflictSchema struct {
	Wholesale    []string
	ContentField string
}

var conflictSchemas = map[Type]ConflictSchema{
	TypeOrganisation: {
		Wholesale: []string{"social_medias", "category_taxonomies"},
	},
	TypeService: {
		Wholesale: []string{"useful_infos", "offerings", "social_medias", "gallery_items", "tags", "category_taxonomies"},
	},
	TypePage: {
		ContentField: "content",
	},
	TypeEvent: {
		Wholesale: []string{"category_taxonomies"},
	},
}

// SchemaFor returns the conflict schema for an existing-entity type. Types
// without a declared schema fall back to an empty one, under which every
// leaf path is disputed individually.
func SchemaFor(t Type) ConflictSchema {
	return conflictSchemas[t]
}

func (s ConflictSchema) isWholesale(key string) bool {
	if key == s.ContentField && s.ContentField != "" {
		return true
	}
	for _, w := range s.Wholesale {
		if w == key {
			return true
		}
	}
	return false
}

// Path addresses a value inside a payload by its chain of object keys.
type Path []string

// DisputedPaths computes the field paths a payload puts in dispute.
// Wholesale and content keys dispute at the top level regardless of how
// deep the change sits; nested objects elsewhere dispute per leaf. Paths
// are returned in deterministic order.
func (s ConflictSchema) DisputedPaths(data map[string]any) []Path {
	var paths []Path
	for _, key := range sortedKeys(data) {
		if s.isWholesale(key) {
			paths = append(paths, Path{key})
			continue
		}
		paths = append(paths, leafPaths(Path{key}, data[key])...)
	}
	return paths
}

func leafPaths(prefix Path, value any) []Path {
	nested, ok := value.(map[string]any)
	if !ok || len(nested) == 0 {
		return []Path{prefix}
	}
	var paths []Path
	for _, key := range sortedKeys(nested) {
		child := append(append(Path{}, prefix...), key)
		paths = append(paths, leafPaths(child, nested[key])...)
	}
	return paths
}

// Prune removes every disputed path from a sibling payload, dropping any
// nested object emptied by a removal. It reports whether anything changed.
func Prune(data map[string]any, disputed []Path) (map[string]any, bool) {
	changed := false
	for _, path := range disputed {
		if removePath(data, path) {
			changed = true
		}
	}
	return data, changed
}

func removePath(data map[string]any, path Path) bool {
	if len(path) == 0 {
		return false
	}
	if len(path) == 1 {
		if _, ok := data[path[0]]; !ok {
			return false
		}
		delete(data, path[0])
		return true
	}
	nested, ok := data[path[0]].(map[string]any)
	if !ok {
		return false
	}
	removed := removePath(nested, path[1:])
	if removed && len(nested) == 0 {
		delete(data, path[0])
	}
	return removed
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
