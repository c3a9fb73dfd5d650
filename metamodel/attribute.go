package metamodel

// AttributeMapping describes one persistent attribute of an entity type.
// Two mappings are the same attribute only if they are the same instance.
type AttributeMapping interface {
	AttributeName() string
}

// Fetchable is an attribute that can be populated from a row during materialization.
type Fetchable interface {
	AttributeMapping
	ColumnName() string
}

// StateArrayContributor is a fetchable attribute that occupies a slot in the state array.
type StateArrayContributor interface {
	Fetchable
	StateArrayPosition() int
}

// Persister supplies the entity name. The metamodel never stores the name itself.
type Persister interface {
	EntityName() string
}

// NamedPersister is the simplest Persister: the name is the value.
type NamedPersister string

func (p NamedPersister) EntityName() string { return string(p) }

// RowCursor is an opaque per-row token. It is handed to assemblers unchanged.
type RowCursor any

// Assembler produces the value of one attribute for the row the cursor points at.
type Assembler interface {
	Assemble(cursor RowCursor) any
}

// AssemblerFunc adapts a function to Assembler.
type AssemblerFunc func(cursor RowCursor) any

func (f AssemblerFunc) Assemble(cursor RowCursor) any { return f(cursor) }

// AssemblerBinding maps attributes to assemblers bound to one row cursor.
// Attributes not loaded for the row are simply absent.
type AssemblerBinding map[AttributeMapping]Assembler

// BasicAttribute is the attribute implementation produced by Build.
type BasicAttribute struct {
	name          string
	column        string
	position      int
	declaringType *EntityMappingType
}

func newBasicAttribute(def AttributeDefinition) *BasicAttribute {
	column := def.Column
	if column == "" {
		column = def.Name
	}
	return &BasicAttribute{name: def.Name, column: column, position: -1}
}

func (a *BasicAttribute) AttributeName() string { return a.name }

func (a *BasicAttribute) ColumnName() string { return a.column }

// StateArrayPosition is the slot index of the attribute. Inherited attributes keep the same
// position in every subtype because subtypes only append slots.
func (a *BasicAttribute) StateArrayPosition() int { return a.position }

// DeclaringType returns the node that declares the attribute.
func (a *BasicAttribute) DeclaringType() *EntityMappingType { return a.declaringType }

func (a *BasicAttribute) String() string {
	if a.declaringType == nil {
		return a.name
	}
	return a.declaringType.EntityName() + "." + a.name
}
