package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// Compact returns a copy of m without its falsy top-level values: nil, false,
// "", numeric zero and NaN. Empty slices and maps are kept.
//
// Updates merge maps into stored documents, so an absent key means "leave the
// stored value alone". Serializing through Compact is what keeps zero values
// of a freshly built record from overwriting data on a merge.
func Compact(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if IsFalsy(v) {
			continue
		}
		out[k] = v
	}
	return out
}

// IsFalsy reports whether v is nil, false, "", a numeric zero or NaN.
func IsFalsy(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return !rv.Bool()
	case reflect.String:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == 0 || math.IsNaN(f)
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// Normalize converts v into plain maps, slices, strings, bools, int64 and
// float64 values, the shape every document store adapter accepts.
func Normalize(v any) (map[string]any, error) {
	n, err := NormalizeValue(v)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return map[string]any{}, nil
	}
	m, ok := n.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("normalize: %T is not an object", v)
	}
	return m, nil
}

// NormalizeValue is Normalize for arbitrary values.
func NormalizeValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return fixNumbers(out), nil
}

func fixNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = fixNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = fixNumbers(e)
		}
		return t
	}
	return v
}

// decode fills out from a store map. Unknown keys are ignored and numbers of
// any width are converted to the field type.
func decode(m map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     out,
		DecodeHook: recordHook,
	})
	if err != nil {
		return err
	}
	return dec.Decode(m)
}

// mapLoader is implemented by *Record[T]; it lets nested records decode
// through their own FromMap logic.
type mapLoader interface {
	loadMap(m map[string]any) error
}

func recordHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}
	t := to
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return data, nil
	}
	v := reflect.New(t)
	l, ok := v.Interface().(mapLoader)
	if !ok {
		return data, nil
	}
	if err := l.loadMap(m); err != nil {
		return nil, err
	}
	if to.Kind() == reflect.Ptr {
		return v.Interface(), nil
	}
	return v.Elem().Interface(), nil
}
