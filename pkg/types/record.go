package types

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Record is a read-only view over an upstream result row. Catalog payloads arrive
// either as decoded JSON maps or as typed structs; both satisfy Record.
type Record interface {
	Field(name string) (any, bool)
}

type MapRecord map[string]any

func (m MapRecord) Field(name string) (any, bool) {
	v, ok := m[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// StructRecord exposes exported struct fields by Go name or by json tag name.
type StructRecord struct{ V any }

func (s StructRecord) Field(name string) (any, bool) {
	rv := reflect.ValueOf(s.V)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if f.Name != name && tag != name && !strings.EqualFold(f.Name, name) {
			continue
		}
		fv := rv.Field(i)
		if (fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface) && fv.IsNil() {
			return nil, false
		}
		if fv.Kind() == reflect.Pointer {
			fv = fv.Elem()
		}
		if fv.IsZero() {
			return nil, false
		}
		return fv.Interface(), true
	}
	return nil, false
}

// FirstString returns the first field among names that has a non-empty string form.
func FirstString(r Record, names ...string) string {
	for _, n := range names {
		v, ok := r.Field(n)
		if !ok {
			continue
		}
		s := strings.TrimSpace(stringOf(v))
		if s != "" && s != "None" && s != "<nil>" {
			return s
		}
	}
	return ""
}

// FirstInt returns the first field among names that parses as an integer.
func FirstInt(r Record, names ...string) (int, bool) {
	for _, n := range names {
		v, ok := r.Field(n)
		if !ok {
			continue
		}
		switch x := v.(type) {
		case int:
			return x, true
		case int64:
			return int(x), true
		case float64:
			return int(x), true
		}
		if n, err := strconv.Atoi(strings.TrimSpace(stringOf(v))); err == nil {
			return n, true
		}
	}
	return 0, false
}

func stringOf(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
