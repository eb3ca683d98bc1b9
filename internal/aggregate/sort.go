package aggregate

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection defaults to ascending for anything but "desc".
func ParseDirection(raw string) Direction {
	if strings.EqualFold(strings.TrimSpace(raw), string(Descending)) {
		return Descending
	}
	return Ascending
}

var timeType = reflect.TypeOf(time.Time{})

// SortTable returns a copy of rows ordered by the struct field whose JSON
// name is column. Strings compare case-insensitively, numbers and times by
// value. The sort is stable and equal values keep their input order. An
// unknown column returns the rows in their original order.
func SortTable[T any](rows []T, column string, dir Direction) []T {
	out := slices.Clone(rows)
	if len(out) < 2 {
		return out
	}

	index, ok := fieldByJSONName(reflect.TypeOf(out[0]), column)
	if !ok {
		return out
	}

	fold := cases.Fold()
	slices.SortStableFunc(out, func(a, b T) int {
		av := reflect.ValueOf(a).FieldByIndex(index)
		bv := reflect.ValueOf(b).FieldByIndex(index)
		c := compareValues(fold, av, bv)
		if dir == Descending {
			return -c
		}
		return c
	})
	return out
}

func fieldByJSONName(t reflect.Type, column string) ([]int, bool) {
	if t.Kind() != reflect.Struct || column == "" {
		return nil, false
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" {
			name = field.Name
		}
		if name == column {
			return field.Index, true
		}
	}
	return nil, false
}

// compareValues is a three-way comparison returning 0 on ties. Nil pointers
// sort before set ones.
func compareValues(fold cases.Caser, a, b reflect.Value) int {
	if a.Kind() == reflect.Pointer {
		switch {
		case a.IsNil() && b.IsNil():
			return 0
		case a.IsNil():
			return -1
		case b.IsNil():
			return 1
		}
		return compareValues(fold, a.Elem(), b.Elem())
	}

	if a.Type() == timeType {
		return a.Interface().(time.Time).Compare(b.Interface().(time.Time))
	}

	switch a.Kind() {
	case reflect.String:
		return cmp.Compare(fold.String(a.String()), fold.String(b.String()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	case reflect.Bool:
		switch {
		case a.Bool() == b.Bool():
			return 0
		case !a.Bool():
			return -1
		default:
			return 1
		}
	default:
		return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	}
}
