package reflect

import "reflect"

func DeReferencePointer(v reflect.Type) reflect.Type {
	if v.Kind() == reflect.Ptr {
		return v.Elem()
	}
	return v
}

// IsStructType reports whether t is a struct or a pointer to one.
func IsStructType(t reflect.Type) bool {
	return DeReferencePointer(t).Kind() == reflect.Struct
}

// Indirect follows pointers down to a non-pointer value, allocating nil pointers on the way.
func Indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}
	return v
}

// EntityName is the name a Go type is registered under in the metamodel.
func EntityName(t reflect.Type) string {
	t = DeReferencePointer(t)
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
