package value

import "sort"

// MergeMaps merges multiple map-like values into a single lazy map object.
//
// Later values override earlier ones when keys overlap. Sources that are
// not map-like are skipped. A single source is returned unchanged and no
// sources yield an empty map.
func MergeMaps(sources ...Value) Value {
	kept := sources[:0:0]
	for _, src := range sources {
		if src.Kind() == KindMap || src.Kind() == KindPlain {
			kept = append(kept, src)
		}
	}
	switch len(kept) {
	case 0:
		return FromMap(map[string]Value{})
	case 1:
		return kept[0]
	}
	return FromObject(&mergedMap{sources: kept})
}

type mergedMap struct {
	sources []Value
}

func (m *mergedMap) Keys() []string {
	keySet := make(map[string]struct{})
	for _, src := range m.sources {
		for _, key := range keysForValue(src) {
			keySet[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (m *mergedMap) GetAttr(name string) Value {
	for i := len(m.sources) - 1; i >= 0; i-- {
		val := m.sources[i].Member(name)
		if !val.IsUndefined() {
			return val
		}
	}
	return Undefined()
}

func keysForValue(v Value) []string {
	if m, ok := v.data.(map[string]Value); ok {
		keys := make([]string, 0, len(m))
		for key := range m {
			keys = append(keys, key)
		}
		return keys
	}
	if obj, ok := v.AsObject(); ok {
		if m, ok := obj.(MapObject); ok {
			return m.Keys()
		}
	}
	return nil
}
