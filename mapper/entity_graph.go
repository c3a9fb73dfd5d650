package mapper

import (
	"reflect"
	"sync"

	"github.com/raunlo/pgx-entity-metamodel/metamodel"
)

// MappingInfo ties a Go struct to the entity mapping built from its tags.
type MappingInfo struct {
	Entity       *metamodel.EntityMappingType
	FieldIndexes map[metamodel.AttributeMapping][]int // attribute -> struct field index path
}

var (
	globalEntityMappingInfo = sync.Map{}
)

func GetEntityMappingInfo(key reflect.Type) (*MappingInfo, bool) {
	value, exists := globalEntityMappingInfo.Load(key)
	if !exists {
		return nil, false
	}
	return value.(*MappingInfo), true
}

// SetEntityMappingInfo stores value unless another goroutine got there first and returns the
// info that is now cached.
func SetEntityMappingInfo(key reflect.Type, value *MappingInfo) *MappingInfo {
	actual, _ := globalEntityMappingInfo.LoadOrStore(key, value)
	return actual.(*MappingInfo)
}
