package validation

import (
	"reflect"
	"strconv"
	"strings"
)

// joinPath builds an indexed JSON path like "contact_ids.0".
func joinPath(field string, index int) string {
	return field + "." + strconv.Itoa(index)
}

// presence is implemented by the flexible scalar types in internal/model.
type presence interface {
	Set() bool
}

// providedFields returns the JSON names of the fields actually present in a
// decoded input struct: non-nil pointers and slices, and flexible scalars
// whose Set flag is on. The partial-update heuristics key off this list.
func providedFields(input interface{}) []string {
	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()

	var names []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		if fieldProvided(v.Field(i)) {
			names = append(names, name)
		}
	}
	return names
}

func fieldProvided(v reflect.Value) bool {
	if v.CanInterface() {
		if p, ok := v.Interface().(presence); ok {
			return p.Set()
		}
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map:
		return !v.IsNil()
	case reflect.Bool:
		return v.Bool()
	default:
		return !v.IsZero()
	}
}

// subsetOf reports whether every name in fields is contained in allowed.
func subsetOf(fields []string, allowed map[string]struct{}) bool {
	for _, f := range fields {
		if _, ok := allowed[f]; !ok {
			return false
		}
	}
	return true
}
