package reflect

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name string
}

func TestDeReferencePointer(t *testing.T) {
	var intPtr *int
	intType := reflect.TypeOf(intPtr)
	derefType := DeReferencePointer(intType)
	if derefType.Kind() != reflect.Int {
		t.Errorf("Expected kind %v, got %v", reflect.Int, derefType.Kind())
	}

	intType = reflect.TypeOf(0)
	derefType = DeReferencePointer(intType)
	if derefType.Kind() != reflect.Int {
		t.Errorf("Expected kind %v, got %v", reflect.Int, derefType.Kind())
	}
}

func TestIsStructType(t *testing.T) {
	assert.True(t, IsStructType(reflect.TypeOf(sample{})))
	assert.True(t, IsStructType(reflect.TypeOf(&sample{})))
	assert.False(t, IsStructType(reflect.TypeOf(1)))
	assert.False(t, IsStructType(reflect.TypeOf([]sample{})))
}

func TestIndirectAllocatesNilPointers(t *testing.T) {
	var target **int
	value := Indirect(reflect.ValueOf(&target).Elem())
	value.SetInt(3)

	assert.NotNil(t, target)
	assert.Equal(t, 3, **target)
}

func TestEntityName(t *testing.T) {
	assert.Equal(t, "sample", EntityName(reflect.TypeOf(&sample{})))
	assert.Equal(t, "struct { A int }", EntityName(reflect.TypeOf(struct{ A int }{})))
}
