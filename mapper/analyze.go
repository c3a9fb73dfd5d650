package mapper

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/raunlo/pgx-entity-metamodel/metamodel"
	reflectutils "github.com/raunlo/pgx-entity-metamodel/reflect_utils"
)

// mappingInfoFor returns the cached mapping of a struct type, analyzing it on first use.
func mappingInfoFor(entityType reflect.Type) (*MappingInfo, error) {
	entityType = reflectutils.DeReferencePointer(entityType)
	if info, exists := GetEntityMappingInfo(entityType); exists {
		return info, nil
	}
	info, err := analyzeEntity(entityType)
	if err != nil {
		return nil, err
	}
	return SetEntityMappingInfo(entityType, info), nil
}

// analyzeEntity builds the entity hierarchy of a tagged struct. An embedded struct without
// mapping tags is the super type; fields tagged primaryKey, version, naturalId or db are attributes
// named after the Go field and mapped to the tag's column.
func analyzeEntity(entityType reflect.Type) (*MappingInfo, error) {
	if entityType.Kind() != reflect.Struct {
		return nil, errors.Errorf("entity(%s) is not a struct", entityType)
	}

	var definitions []metamodel.EntityDefinition
	fieldPaths := make(map[string][]int)
	if err := describeLevel(entityType, nil, &definitions, fieldPaths); err != nil {
		return nil, err
	}

	model, err := metamodel.Build(definitions...)
	if err != nil {
		return nil, errors.Wrapf(err, "analyze entity(%s)", entityType)
	}
	entity, _ := model.EntityMappingType(reflectutils.EntityName(entityType))

	info := &MappingInfo{
		Entity:       entity,
		FieldIndexes: make(map[metamodel.AttributeMapping][]int, len(fieldPaths)),
	}
	for name, path := range fieldPaths {
		attribute, _ := entity.FindAttributeMapping(name)
		info.FieldIndexes[attribute] = path
	}
	return info, nil
}

func describeLevel(levelType reflect.Type, prefix []int, definitions *[]metamodel.EntityDefinition, fieldPaths map[string][]int) error {
	definition := metamodel.EntityDefinition{Name: reflectutils.EntityName(levelType)}

	for index := 0; index < levelType.NumField(); index++ {
		field := levelType.Field(index)
		path := append(append([]int(nil), prefix...), index)

		primaryKeyTag := field.Tag.Get("primaryKey")
		versionTag := field.Tag.Get("version")
		naturalIDTag := field.Tag.Get("naturalId")
		dbTag := field.Tag.Get("db")

		column := ""
		switch {
		case primaryKeyTag != "":
			if len(definition.Identifier) > 0 {
				return errors.New("multiple primary key fields found")
			}
			column = primaryKeyTag
			definition.Identifier = []string{field.Name}
		case versionTag != "":
			column = versionTag
			definition.Version = field.Name
		case naturalIDTag != "":
			column = naturalIDTag
			definition.NaturalID = append(definition.NaturalID, field.Name)
		case dbTag != "":
			column = dbTag
		case field.Anonymous && field.Type.Kind() == reflect.Struct:
			if definition.Extends != "" {
				return errors.Errorf("entity(%s) embeds more than one super type", levelType)
			}
			definition.Extends = reflectutils.EntityName(field.Type)
			if err := describeLevel(field.Type, path, definitions, fieldPaths); err != nil {
				return err
			}
			continue
		default:
			continue
		}

		definition.Attributes = append(definition.Attributes, metamodel.AttributeDefinition{Name: field.Name, Column: column})
		fieldPaths[field.Name] = path
	}

	*definitions = append(*definitions, definition)
	return nil
}
