package fieldchat

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"strconv"
	"sync"
)

// Values maps field names to values. Used for demos and live inputs; never mutated by this package.
type Values map[string]any

// ParsedFields maps output field names to their recovered text.
type ParsedFields map[string]string

type payloadField struct {
	index int
	tag   string
}

type payloadSchema struct {
	fields []payloadField
}

var payloadCache sync.Map // reflect.Type -> *payloadSchema

// ValuesFromStruct builds Values from a struct (or pointer to struct) whose fields carry
// `field:"name"` tags. Untagged fields and fields tagged "-" are skipped. Field layout is
// cached per type.
func ValuesFromStruct(payload any) (Values, error) {
	if payload == nil {
		return nil, ErrInvalidPayload
	}
	typ := reflect.TypeOf(payload)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, ErrInvalidPayload
	}
	v := reflect.ValueOf(payload)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, ErrInvalidPayload
		}
		v = v.Elem()
	}
	var schema *payloadSchema
	if cached, ok := payloadCache.Load(typ); ok {
		schema = cached.(*payloadSchema)
	} else {
		schema = &payloadSchema{}
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			tag := f.Tag.Get("field")
			if tag == "" || tag == "-" || !f.IsExported() {
				continue
			}
			schema.fields = append(schema.fields, payloadField{index: i, tag: tag})
		}
		if len(schema.fields) == 0 {
			return nil, ErrInvalidPayload
		}
		payloadCache.Store(typ, schema)
	}
	out := make(Values, len(schema.fields))
	for _, fi := range schema.fields {
		out[fi.tag] = v.Field(fi.index).Interface()
	}
	return out, nil
}

// with returns a copy of v with key set to value.
func (v Values) with(key string, value any) Values {
	out := maps.Clone(v)
	if out == nil {
		out = make(Values, 1)
	}
	out[key] = value
	return out
}

// renderValue converts a field value to the text written after its marker.
// Strings are verbatim, scalars use their natural formatting, slices/maps/structs become compact JSON.
func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct, reflect.Pointer:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

// isZeroValue reports whether v is absent or falsy (nil, zero value, empty slice/map/string).
func isZeroValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return rv.IsZero()
	}
}
