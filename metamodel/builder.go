package metamodel

import (
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

// Metamodel is a set of frozen entity hierarchies.
type Metamodel struct {
	entities map[string]*EntityMappingType
	order    []*EntityMappingType
}

func (m *Metamodel) EntityMappingType(name string) (*EntityMappingType, bool) {
	entity, ok := m.entities[name]
	return entity, ok
}

// Entities returns every node in definition order.
func (m *Metamodel) Entities() []*EntityMappingType {
	return append([]*EntityMappingType(nil), m.order...)
}

func (m *Metamodel) Roots() []*EntityMappingType {
	var roots []*EntityMappingType
	for _, entity := range m.order {
		if entity.superType == nil {
			roots = append(roots, entity)
		}
	}
	return roots
}

type builder struct {
	definitions map[string]*EntityDefinition
	nodes       map[string]*EntityMappingType
	done        map[string]bool
	visiting    map[string]bool
}

// Build validates the definitions, links them into hierarchies and freezes the result.
// Super types may be defined after their subtypes.
func Build(definitions ...EntityDefinition) (*Metamodel, error) {
	b := &builder{
		definitions: make(map[string]*EntityDefinition, len(definitions)),
		nodes:       make(map[string]*EntityMappingType, len(definitions)),
		done:        make(map[string]bool, len(definitions)),
		visiting:    make(map[string]bool),
	}
	model := &Metamodel{entities: b.nodes}

	for i := range definitions {
		def := &definitions[i]
		name := def.entityName()
		if name == "" {
			return nil, incomplete("<unnamed>", "entity definition #%d has no name", i)
		}
		if def.Name != "" && def.Persister != nil && def.Persister.EntityName() != def.Name {
			return nil, incomplete(def.Name, "persister names the entity %s", def.Persister.EntityName())
		}
		if _, exists := b.definitions[name]; exists {
			return nil, incomplete(name, "defined more than once")
		}
		node, err := newNode(name, def)
		if err != nil {
			return nil, err
		}
		b.definitions[name] = def
		b.nodes[name] = node
		model.order = append(model.order, node)
	}

	for i := range definitions {
		if err := b.complete(definitions[i].entityName()); err != nil {
			return nil, err
		}
	}

	for _, node := range model.order {
		switch {
		case node.superType != nil:
			node.strategy = TraversalPolymorphicMid
		case len(node.subTypes) > 0:
			node.strategy = TraversalPolymorphicRoot
		default:
			node.strategy = TraversalLeaf
		}
		zap.S().Debugw("metamodel: entity mapping frozen",
			"entity", node.EntityName(),
			"strategy", node.strategy.String(),
			"declared", node.DeclaredAttributeCount(),
			"slots", node.NumberOfAttributeMappings())
	}
	return model, nil
}

func newNode(name string, def *EntityDefinition) (*EntityMappingType, error) {
	persister := def.Persister
	if persister == nil {
		persister = NamedPersister(name)
	}
	node := &EntityMappingType{
		persister: persister,
		declared:  orderedmap.New[string, AttributeMapping](),
	}
	for _, attributeDef := range def.Attributes {
		if attributeDef.Name == "" {
			return nil, incomplete(name, "attribute without name")
		}
		attribute := newBasicAttribute(attributeDef)
		attribute.declaringType = node
		if _, present := node.declared.Set(attributeDef.Name, attribute); present {
			return nil, incomplete(name, "attribute %s declared twice", attributeDef.Name)
		}
	}
	for _, attribute := range def.Mappings {
		if attribute == nil {
			return nil, incomplete(name, "nil attribute mapping")
		}
		if _, present := node.declared.Set(attribute.AttributeName(), attribute); present {
			return nil, incomplete(name, "attribute %s declared twice", attribute.AttributeName())
		}
	}
	return node, nil
}

// complete links a node to its super type (completing that first), fixes its canonical slots and
// resolves its roles.
func (b *builder) complete(name string) error {
	if b.done[name] {
		return nil
	}
	if b.visiting[name] {
		return incomplete(name, "inheritance cycle")
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	def, node := b.definitions[name], b.nodes[name]
	if def.Extends != "" {
		super, ok := b.nodes[def.Extends]
		if !ok {
			return incomplete(name, "unknown super type %s", def.Extends)
		}
		if err := b.complete(def.Extends); err != nil {
			return err
		}
		node.superType = super
		super.subTypes = append(super.subTypes, node)
	}

	if err := node.layoutSlots(); err != nil {
		return err
	}
	if err := node.resolveRoles(def); err != nil {
		return err
	}
	b.done[name] = true
	return nil
}

func (e *EntityMappingType) layoutSlots() error {
	var inherited []AttributeMapping
	if e.superType != nil {
		inherited = e.superType.slots
	}
	e.slots = make([]AttributeMapping, 0, len(inherited)+e.declared.Len())
	e.slots = append(e.slots, inherited...)
	for pair := e.declared.Oldest(); pair != nil; pair = pair.Next() {
		if e.superType != nil {
			if _, shadowed := e.superType.FindAttributeMapping(pair.Key); shadowed {
				return incomplete(e.EntityName(), "attribute %s is already declared by a super type", pair.Key)
			}
		}
		if attribute, ok := pair.Value.(*BasicAttribute); ok {
			attribute.position = len(e.slots)
		}
		e.slots = append(e.slots, pair.Value)
	}
	return nil
}

func (e *EntityMappingType) resolveRoles(def *EntityDefinition) error {
	name := e.EntityName()
	super := e.superType

	if super == nil {
		if len(def.Identifier) == 0 {
			return incomplete(name, "hierarchy root has no identifier")
		}
		attributes, err := e.resolveAttributes(def.Identifier)
		if err != nil {
			return err
		}
		e.identifier = &IdentifierMapping{attributes: attributes}

		if def.Version != "" {
			attributes, err := e.resolveAttributes([]string{def.Version})
			if err != nil {
				return err
			}
			e.version = &VersionMapping{attribute: attributes[0]}
		}
		if def.Discriminator != "" {
			attributes, err := e.resolveAttributes([]string{def.Discriminator})
			if err != nil {
				return err
			}
			e.discriminator = &DiscriminatorMapping{attribute: attributes[0], subTypes: map[any]*EntityMappingType{}}
		}
	} else {
		if len(def.Identifier) > 0 || def.Version != "" || def.Discriminator != "" {
			return incomplete(name, "identifier, version and discriminator can only be declared on the hierarchy root")
		}
		e.identifier = super.identifier
		e.version = super.version
		e.discriminator = super.discriminator
		e.naturalID = super.naturalID
	}

	if len(def.NaturalID) > 0 {
		attributes, err := e.resolveAttributes(def.NaturalID)
		if err != nil {
			return err
		}
		e.naturalID = &NaturalIdMapping{attributes: attributes, mutable: def.NaturalIDMutable}
	}

	if def.DiscriminatorValue != nil {
		if e.discriminator == nil {
			return incomplete(name, "discriminator value given but the hierarchy has no discriminator")
		}
		if !reflect.TypeOf(def.DiscriminatorValue).Comparable() {
			return incomplete(name, "discriminator value %v is not a scalar", def.DiscriminatorValue)
		}
		marker := normalizeMarker(def.DiscriminatorValue)
		if other, taken := e.discriminator.subTypes[marker]; taken {
			return incomplete(name, "discriminator value %v already used by %s", def.DiscriminatorValue, other.EntityName())
		}
		e.discriminator.subTypes[marker] = e
		e.discriminatorValue = def.DiscriminatorValue
	}
	return nil
}

func (e *EntityMappingType) resolveAttributes(names []string) ([]AttributeMapping, error) {
	attributes := make([]AttributeMapping, 0, len(names))
	for _, attributeName := range names {
		attribute, ok := e.FindAttributeMapping(attributeName)
		if !ok {
			return nil, incomplete(e.EntityName(), "unknown attribute %s", attributeName)
		}
		attributes = append(attributes, attribute)
	}
	return attributes, nil
}
