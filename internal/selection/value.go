package selection

import (
	"reflect"
	"strings"
)

// projectValue walks a dotted path of exported struct fields and string
// map keys. An empty path yields the item itself.
func projectValue(item any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return item, true
	}
	current := reflect.ValueOf(item)
	for _, name := range strings.Split(path, ".") {
		for current.Kind() == reflect.Pointer || current.Kind() == reflect.Interface {
			if current.IsNil() {
				return nil, false
			}
			current = current.Elem()
		}
		switch current.Kind() {
		case reflect.Struct:
			field, ok := current.Type().FieldByName(name)
			if !ok || !field.IsExported() {
				return nil, false
			}
			next, err := current.FieldByIndexErr(field.Index)
			if err != nil {
				return nil, false
			}
			current = next
		case reflect.Map:
			if current.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			current = current.MapIndex(reflect.ValueOf(name).Convert(current.Type().Key()))
			if !current.IsValid() {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	if !current.IsValid() || !current.CanInterface() {
		return nil, false
	}
	return current.Interface(), true
}
