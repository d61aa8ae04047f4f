// Package schema decodes "Prefix: value" lines into structs declared with
// `prefix` struct tags, replacing cascades of strings.HasPrefix checks.
//
//	type Experience struct {
//		Company string `prefix:"Company Name:"`
//		Title   string `prefix:"Title:"`
//	}
package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Field describes one tagged struct field.
type Field struct {
	Name   string
	Prefix string
	// List fields split the value on commas.
	List bool
}

// Fields returns the tagged fields of v, which must be a struct or pointer to struct.
func Fields(v any) ([]Field, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, fmt.Errorf("schema: nil value")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: expected a struct, got %s", t.Kind())
	}

	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		prefix := f.Tag.Get("prefix")
		if prefix == "" || !f.IsExported() {
			continue
		}
		switch {
		case f.Type.Kind() == reflect.String:
			fields = append(fields, Field{Name: f.Name, Prefix: prefix})
		case f.Type.Kind() == reflect.Slice && f.Type.Elem().Kind() == reflect.String:
			fields = append(fields, Field{Name: f.Name, Prefix: prefix, List: true})
		default:
			return nil, fmt.Errorf("schema: field %s must be string or []string, got %s", f.Name, f.Type)
		}
	}
	return fields, nil
}

// Decode fills the tagged fields of the struct pointed to by v from lines.
// The first line matching a prefix wins. It returns the number of fields set.
func Decode(lines []string, v any) (int, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return 0, fmt.Errorf("schema: Decode needs a non-nil pointer")
	}
	fields, err := Fields(v)
	if err != nil {
		return 0, err
	}
	elem := rv.Elem()

	matched := 0
	for _, f := range fields {
		value, ok := lookup(lines, f.Prefix)
		if !ok || value == "" {
			continue
		}
		fv := elem.FieldByName(f.Name)
		if f.List {
			fv.Set(reflect.ValueOf(splitList(value)))
		} else {
			fv.SetString(value)
		}
		matched++
	}
	return matched, nil
}

func lookup(lines []string, prefix string) (string, bool) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
