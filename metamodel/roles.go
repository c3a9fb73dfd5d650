package metamodel

import (
	"math"
	"reflect"
)

// IdentifierMapping classifies the attribute(s) that make up object identity.
type IdentifierMapping struct {
	attributes []AttributeMapping
}

func (m *IdentifierMapping) Attributes() []AttributeMapping {
	return append([]AttributeMapping(nil), m.attributes...)
}

func (m *IdentifierMapping) IsComposite() bool { return len(m.attributes) > 1 }

// Values picks the identifier slots out of a state array extracted for the owning hierarchy.
func (m *IdentifierMapping) Values(state []Value) []Value {
	return pickSlots(m.attributes, state)
}

// VersionMapping classifies the optimistic-concurrency attribute.
type VersionMapping struct {
	attribute AttributeMapping
}

func (m *VersionMapping) Attribute() AttributeMapping { return m.attribute }

func (m *VersionMapping) Value(state []Value) Value {
	return pickSlots([]AttributeMapping{m.attribute}, state)[0]
}

// DiscriminatorMapping classifies the attribute holding the per-row subtype marker.
type DiscriminatorMapping struct {
	attribute AttributeMapping
	subTypes  map[any]*EntityMappingType
}

func (m *DiscriminatorMapping) Attribute() AttributeMapping { return m.attribute }

// Resolve returns the concrete type registered for a marker value.
func (m *DiscriminatorMapping) Resolve(marker any) (*EntityMappingType, bool) {
	if marker == nil {
		return nil, false
	}
	key := normalizeMarker(marker)
	if !reflect.TypeOf(key).Comparable() {
		return nil, false
	}
	entity, ok := m.subTypes[key]
	return entity, ok
}

// NaturalIdMapping classifies a secondary unique business key.
type NaturalIdMapping struct {
	attributes []AttributeMapping
	mutable    bool
}

func (m *NaturalIdMapping) Attributes() []AttributeMapping {
	return append([]AttributeMapping(nil), m.attributes...)
}

func (m *NaturalIdMapping) IsMutable() bool { return m.mutable }

func (m *NaturalIdMapping) Values(state []Value) []Value {
	return pickSlots(m.attributes, state)
}

func pickSlots(attributes []AttributeMapping, state []Value) []Value {
	values := make([]Value, len(attributes))
	for i, attribute := range attributes {
		values[i] = Unfetched()
		contributor, ok := attribute.(StateArrayContributor)
		if !ok {
			continue
		}
		if position := contributor.StateArrayPosition(); position >= 0 && position < len(state) {
			values[i] = state[position]
		}
	}
	return values
}

// Markers read from a database come back as int16/int32/int64 or string depending on the column,
// while definitions carry yaml ints. Integers are compared as int64.
func normalizeMarker(marker any) any {
	switch v := marker.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v)
		}
		return v
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}
		return v
	case []byte:
		return string(v)
	default:
		return marker
	}
}
