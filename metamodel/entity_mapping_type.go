package metamodel

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// TraversalStrategy decides how a node fans out to attributes of other hierarchy levels.
type TraversalStrategy uint8

const (
	// TraversalLeaf is a node without super type or subtypes: no fan-out at all.
	TraversalLeaf TraversalStrategy = iota
	// TraversalPolymorphicRoot is a root with subtypes: fans out to subtypes only.
	TraversalPolymorphicRoot
	// TraversalPolymorphicMid is any node with a super type: fans out both ways.
	TraversalPolymorphicMid
)

func (s TraversalStrategy) String() string {
	switch s {
	case TraversalLeaf:
		return "leaf"
	case TraversalPolymorphicRoot:
		return "polymorphic-root"
	case TraversalPolymorphicMid:
		return "polymorphic-mid"
	default:
		return "unknown"
	}
}

// Unscoped returns the scope (nil) that makes ForEachAttributeScoped include attributes
// contributed by subtypes.
func Unscoped() *EntityMappingType { return nil }

// EntityMappingType is one node of an entity hierarchy. Nodes are only created by Build and are
// never mutated afterwards, so they are safe for concurrent use without locking.
type EntityMappingType struct {
	persister Persister
	superType *EntityMappingType
	subTypes  []*EntityMappingType
	strategy  TraversalStrategy

	declared *orderedmap.OrderedMap[string, AttributeMapping]
	// root first, declared order within each level
	slots []AttributeMapping

	identifier         *IdentifierMapping
	version            *VersionMapping
	discriminator      *DiscriminatorMapping
	discriminatorValue any
	naturalID          *NaturalIdMapping
}

// Persister is the safety-net accessor to the collaborator that owns the entity name.
func (e *EntityMappingType) Persister() Persister { return e.persister }

func (e *EntityMappingType) EntityName() string { return e.persister.EntityName() }

func (e *EntityMappingType) String() string { return e.EntityName() }

// SuperType returns the parent node or nil at the root.
func (e *EntityMappingType) SuperType() *EntityMappingType { return e.superType }

// SubTypes returns the direct subtypes in definition order.
func (e *EntityMappingType) SubTypes() []*EntityMappingType {
	return append([]*EntityMappingType(nil), e.subTypes...)
}

func (e *EntityMappingType) Strategy() TraversalStrategy { return e.strategy }

// Root walks up to the hierarchy root.
func (e *EntityMappingType) Root() *EntityMappingType {
	root := e
	for root.superType != nil {
		root = root.superType
	}
	return root
}

// DeclaredAttribute looks up an attribute declared on this node. Ancestors are not searched.
func (e *EntityMappingType) DeclaredAttribute(name string) (AttributeMapping, bool) {
	return e.declared.Get(name)
}

func (e *EntityMappingType) DeclaredAttributeCount() int { return e.declared.Len() }

func (e *EntityMappingType) ForEachDeclaredAttribute(visit func(AttributeMapping)) {
	for pair := e.declared.Oldest(); pair != nil; pair = pair.Next() {
		visit(pair.Value)
	}
}

// FindAttributeMapping searches every attribute of the node, inherited ones included.
func (e *EntityMappingType) FindAttributeMapping(name string) (AttributeMapping, bool) {
	for node := e; node != nil; node = node.superType {
		if attribute, ok := node.declared.Get(name); ok {
			return attribute, true
		}
	}
	return nil, false
}

// IsTypeOrSuperType reports whether target is this node or one of its ancestors.
func (e *EntityMappingType) IsTypeOrSuperType(target *EntityMappingType) bool {
	if target == nil {
		return false
	}
	for node := e; node != nil; node = node.superType {
		if node == target {
			return true
		}
	}
	return false
}

// NumberOfAttributeMappings is the length of every state array extracted for this node.
func (e *EntityMappingType) NumberOfAttributeMappings() int { return len(e.slots) }

// AttributeMappings returns the canonical slots, inherited attributes first.
func (e *EntityMappingType) AttributeMappings() []AttributeMapping {
	return append([]AttributeMapping(nil), e.slots...)
}

func (e *EntityMappingType) Identifier() *IdentifierMapping { return e.identifier }

// Version returns nil when the hierarchy is not versioned.
func (e *EntityMappingType) Version() *VersionMapping { return e.version }

// Discriminator returns nil unless the hierarchy shares one row layout across subtypes.
func (e *EntityMappingType) Discriminator() *DiscriminatorMapping { return e.discriminator }

// DiscriminatorValue is the marker identifying rows of this concrete type, or nil.
func (e *EntityMappingType) DiscriminatorValue() any { return e.discriminatorValue }

func (e *EntityMappingType) NaturalID() *NaturalIdMapping { return e.naturalID }
