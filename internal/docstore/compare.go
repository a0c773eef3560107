package docstore

import (
	"reflect"
	"sort"
	"strings"
)

// type classes, in the order Firestore sorts mixed-type values
const (
	classNull = iota
	classBool
	classNumber
	classString
	classArray
	classMap
	classOther
)

func class(v any) int {
	switch v.(type) {
	case nil:
		return classNull
	case bool:
		return classBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, Increment:
		return classNumber
	case string:
		return classString
	case []any:
		return classArray
	case map[string]any:
		return classMap
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return classArray
	case reflect.Map:
		return classMap
	}
	return classOther
}

func toFloat(v any) float64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return 0
}

func toSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func toMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out
}

// compareValues orders two values: first by type class, then by value.
func compareValues(a, b any) int {
	ca, cb := class(a), class(b)
	if ca != cb {
		if ca < cb {
			return -1
		}
		return 1
	}
	switch ca {
	case classNull:
		return 0
	case classBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		}
		return 1
	case classNumber:
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case classString:
		return strings.Compare(a.(string), b.(string))
	case classArray:
		sa, sb := toSlice(a), toSlice(b)
		for i := 0; i < len(sa) && i < len(sb); i++ {
			if c := compareValues(sa[i], sb[i]); c != 0 {
				return c
			}
		}
		return compareInts(len(sa), len(sb))
	case classMap:
		ma, mb := toMap(a), toMap(b)
		ka, kb := sortedKeys(ma), sortedKeys(mb)
		for i := 0; i < len(ka) && i < len(kb); i++ {
			if c := strings.Compare(ka[i], kb[i]); c != 0 {
				return c
			}
			if c := compareValues(ma[ka[i]], mb[kb[i]]); c != 0 {
				return c
			}
		}
		return compareInts(len(ka), len(kb))
	}
	if reflect.DeepEqual(a, b) {
		return 0
	}
	return -1
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func equalValues(a, b any) bool {
	return class(a) == class(b) && compareValues(a, b) == 0
}

// Lookup resolves a dotted path inside a document.
func Lookup(data map[string]any, path string) (any, bool) {
	var cur any = data
	for _, part := range SplitPath(path) {
		m := toMap(cur)
		if m == nil {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}
