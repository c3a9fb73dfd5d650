package mapper

import (
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/raunlo/pgx-entity-metamodel/metamodel"
	reflectutils "github.com/raunlo/pgx-entity-metamodel/reflect_utils"
)

var (
	ErrNoRows = errors.New("no rows found")
)

func getTooManyRowsError(entityType reflect.Type) error {
	return errors.New(fmt.Sprintf("Too many rows for entity(name=%s)", entityType))
}

// ScanOne scans rows into one object. Rows repeating the same identifier are folded into the first one.
func ScanOne(rows pgx.Rows, dest interface{}) error {
	destinationType := reflect.TypeOf(dest)
	if destinationType == nil {
		rows.Close()
		return errors.New("dest cannot be nil")
	}

	if destinationType.Kind() != reflect.Ptr {
		rows.Close()
		return errors.New("dest must be a pointer")
	}
	// de-reference pointer
	destinationType = reflectutils.DeReferencePointer(destinationType)

	if destinationType.Kind() != reflect.Struct {
		rows.Close()
		return errors.New("dest must be a pointer to a struct")
	}

	info, err := mappingInfoFor(destinationType)
	if err != nil {
		rows.Close()
		return err
	}
	states, err := ScanStates(rows, info.Entity)
	if err != nil {
		return err
	}
	states, err = distinctByIdentifier(info.Entity, states)
	if err != nil {
		return err
	}

	switch len(states) {
	case 0:
		return ErrNoRows
	case 1:
		return info.assign(reflect.ValueOf(dest).Elem(), states[0].State)
	default:
		return getTooManyRowsError(destinationType)
	}
}

// ScanMany scans rows into a slice of structs or struct pointers, one element per identifier in
// the order the identifiers first appear.
func ScanMany(rows pgx.Rows, dest interface{}) error {
	destinationPtrValue := reflect.ValueOf(dest)
	if dest == nil {
		rows.Close()
		return errors.New("dest cannot be nil")
	}

	if destinationPtrValue.Kind() != reflect.Ptr {
		rows.Close()
		return errors.New("dest must be a pointer")
	}

	destinationValue := destinationPtrValue.Elem()
	destinationType := destinationValue.Type()

	if destinationType.Kind() != reflect.Slice || !reflectutils.IsStructType(destinationType.Elem()) {
		rows.Close()
		return errors.New("dest must be a slice of structs")
	}

	elType := destinationType.Elem()
	info, err := mappingInfoFor(elType)
	if err != nil {
		rows.Close()
		return err
	}
	states, err := ScanStates(rows, info.Entity)
	if err != nil {
		return err
	}
	states, err = distinctByIdentifier(info.Entity, states)
	if err != nil {
		return err
	}

	result := reflect.MakeSlice(destinationType, 0, len(states))
	for _, state := range states {
		obj := reflect.New(reflectutils.DeReferencePointer(elType))
		if err := info.assign(obj.Elem(), state.State); err != nil {
			return err
		}
		if elType.Kind() != reflect.Ptr {
			obj = obj.Elem()
		}
		result = reflect.Append(result, obj)
	}
	destinationValue.Set(result)
	return nil
}

// distinctByIdentifier keeps the first state of every identifier value, in row order.
func distinctByIdentifier(entity *metamodel.EntityMappingType, states []EntityState) ([]EntityState, error) {
	seen := make(map[any]struct{}, len(states))
	distinct := states[:0]
	for _, state := range states {
		id, loaded := entity.Identifier().Values(state.State)[0].Get()
		if !loaded {
			return nil, errors.New("no key field found in values")
		}
		key := identityKey(id)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		distinct = append(distinct, state)
	}
	return distinct, nil
}

func identityKey(id any) any {
	if reflect.TypeOf(id).Comparable() {
		return id
	}
	return fmt.Sprintf("%T:%v", id, id)
}

// assign copies loaded slots into the struct. Unfetched and null slots leave the field untouched.
func (info *MappingInfo) assign(obj reflect.Value, state []metamodel.Value) error {
	var err error
	info.Entity.ForEachFetchable(func(index int, fetchable metamodel.Fetchable) {
		if err != nil {
			return
		}
		value, loaded := state[index].Get()
		if !loaded {
			return
		}
		path, mapped := info.FieldIndexes[fetchable]
		if !mapped {
			return
		}
		if setErr := setFieldValue(obj.FieldByIndex(path), value); setErr != nil {
			err = errors.Wrapf(setErr, "failed to map column %s", fetchable.ColumnName())
		}
	})
	return err
}

// Function to Convert Database Value to Go Struct Field
func setFieldValue(field reflect.Value, value interface{}) error {
	if !field.CanSet() {
		return errors.New("field is not settable")
	}
	field = reflectutils.Indirect(field)

	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}

	switch field.Kind() {
	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8,
		reflect.Uint, reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8,
		reflect.Float32, reflect.Float64:
		return setNumericField(field, value, v)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.Uint8 && v.Kind() != reflect.Slice {
			return setSingleElementSlice(field, v)
		}
	}

	switch {
	case v.Type().AssignableTo(field.Type()):
		field.Set(v)
	case v.Type().ConvertibleTo(field.Type()) && v.Kind() == field.Kind():
		field.Set(v.Convert(field.Type()))
	case v.Kind() == reflect.Slice && field.Kind() == reflect.Slice:
		return setSliceField(field, v)
	default:
		return fmt.Errorf("type mismatch: expected %s, got %T", field.Type(), value)
	}
	return nil
}

func setNumericField(field reflect.Value, value interface{}, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8:
		if isUnsigned(field.Kind()) && v.Int() < 0 {
			return fmt.Errorf("cannot assign negative value %d to uint field", v.Int())
		}
	case reflect.Uint, reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8:
	case reflect.Float32, reflect.Float64:
		if isUnsigned(field.Kind()) && v.Float() < 0 {
			return fmt.Errorf("cannot assign negative value %v to uint field", v.Float())
		}
	default:
		return fmt.Errorf("type mismatch: expected %s, got %T", field.Type(), value)
	}
	field.Set(v.Convert(field.Type()))
	return nil
}

func isUnsigned(kind reflect.Kind) bool {
	switch kind {
	case reflect.Uint, reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8:
		return true
	}
	return false
}

func setSliceField(field reflect.Value, v reflect.Value) error {
	elemType := field.Type().Elem()
	slice := reflect.MakeSlice(field.Type(), 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		switch {
		case elem.Type().AssignableTo(elemType):
		case elem.Type().ConvertibleTo(elemType):
			elem = elem.Convert(elemType)
		default:
			return fmt.Errorf("cannot assign or convert %s to %s", elem.Type(), elemType)
		}
		slice = reflect.Append(slice, elem)
	}
	field.Set(slice)
	return nil
}

func setSingleElementSlice(field reflect.Value, v reflect.Value) error {
	elemType := field.Type().Elem()
	if !v.Type().ConvertibleTo(elemType) {
		return fmt.Errorf("cannot assign or convert %s to %s", v.Type(), elemType)
	}
	field.Set(reflect.Append(reflect.MakeSlice(field.Type(), 0, 1), v.Convert(elemType)))
	return nil
}
