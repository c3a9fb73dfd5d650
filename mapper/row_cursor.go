package mapper

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/raunlo/pgx-entity-metamodel/metamodel"
	"go.uber.org/zap"
)

// RowCursor holds the decoded values of the row pgx.Rows is positioned on.
type RowCursor struct {
	values []any
}

func NewRowCursor(rows pgx.Rows) (*RowCursor, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, err
	}
	return &RowCursor{values: values}, nil
}

// ColumnAssembler reads one result column of the current row.
type ColumnAssembler struct {
	Index int
}

func (a ColumnAssembler) Assemble(cursor metamodel.RowCursor) any {
	values := cursor.(*RowCursor).values
	if a.Index >= len(values) {
		return nil
	}
	return values[a.Index]
}

// BindColumns binds every fetchable attribute of entity and of its subtypes whose column is part of
// the result. Attributes whose column was not selected stay unbound and extract as unfetched.
func BindColumns(entity *metamodel.EntityMappingType, fields []pgconn.FieldDescription) metamodel.AssemblerBinding {
	columns := make(map[string]int, len(fields))
	for index, field := range fields {
		if _, exists := columns[field.Name]; !exists {
			columns[field.Name] = index
		}
	}

	binding := make(metamodel.AssemblerBinding, len(fields))
	entity.ForEachAttributeScoped(metamodel.Unscoped(), func(attribute metamodel.AttributeMapping) {
		fetchable, ok := attribute.(metamodel.Fetchable)
		if !ok {
			return
		}
		if index, selected := columns[fetchable.ColumnName()]; selected {
			binding[attribute] = ColumnAssembler{Index: index}
		}
	})
	return binding
}

// EntityState is one extracted row together with the concrete type it was extracted for.
type EntityState struct {
	Type  *metamodel.EntityMappingType
	State []metamodel.Value
}

// ScanStates extracts the state of every row. When entity has a discriminator the row's marker
// selects the concrete subtype; unknown markers fall back to entity.
func ScanStates(rows pgx.Rows, entity *metamodel.EntityMappingType) ([]EntityState, error) {
	defer rows.Close()

	binding := BindColumns(entity, rows.FieldDescriptions())
	states := make([]EntityState, 0)
	for rows.Next() {
		cursor, err := NewRowCursor(rows)
		if err != nil {
			return nil, err
		}
		concrete := resolveConcreteType(entity, binding, cursor)
		states = append(states, EntityState{
			Type:  concrete,
			State: concrete.ExtractConcreteTypeState(binding, cursor),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return states, nil
}

func resolveConcreteType(entity *metamodel.EntityMappingType, binding metamodel.AssemblerBinding, cursor *RowCursor) *metamodel.EntityMappingType {
	discriminator := entity.Discriminator()
	if discriminator == nil {
		return entity
	}
	assembler, bound := binding[discriminator.Attribute()]
	if !bound {
		return entity
	}
	marker := assembler.Assemble(cursor)
	if concrete, ok := discriminator.Resolve(marker); ok && concrete.IsTypeOrSuperType(entity) {
		return concrete
	}
	if marker != nil {
		zap.S().Warnw("mapper: discriminator value does not resolve to a subtype",
			"entity", entity.EntityName(),
			"value", marker)
	}
	return entity
}
