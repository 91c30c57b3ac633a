package utils

import "reflect"

// LoopOverStructFields calls fieldHandler for every exported field of value,
// dereferencing value first when it is a pointer.
func LoopOverStructFields(value reflect.Value, fieldHandler func(fieldDefinition reflect.StructField, fieldValue reflect.Value) error) error {
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}

	for i := range value.NumField() {
		fieldValue := value.Field(i)
		fieldDefinition := value.Type().Field(i)

		if !fieldDefinition.IsExported() {
			continue
		}

		if err := fieldHandler(fieldDefinition, fieldValue); err != nil {
			return err
		}
	}

	return nil
}

// IsNil reports whether v is nil or a typed nil (pointer, map, slice, interface).
func IsNil(v any) bool {
	if v == nil {
		return true
	}

	value := reflect.ValueOf(v)
	switch value.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return value.IsNil()
	}

	return false
}

// Deref returns the value a non-nil pointer points at, or v itself.
func Deref(v any) any {
	value := reflect.ValueOf(v)
	if value.Kind() == reflect.Pointer && !value.IsNil() {
		return value.Elem().Interface()
	}

	return v
}
