package metamodel

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type AttributeDefinition struct {
	Name   string `yaml:"name"`
	Column string `yaml:"column"` // defaults to Name
}

// EntityDefinition is the declarative description Build turns into an EntityMappingType.
type EntityDefinition struct {
	Name       string                `yaml:"name"`
	Extends    string                `yaml:"extends"`
	Attributes []AttributeDefinition `yaml:"attributes"`
	Identifier []string              `yaml:"identifier"`
	Version    string                `yaml:"version"`

	// Discriminator names the attribute holding the subtype marker. Root only.
	Discriminator      string   `yaml:"discriminator"`
	DiscriminatorValue any      `yaml:"discriminatorValue"`
	NaturalID          []string `yaml:"naturalId"`
	NaturalIDMutable   bool     `yaml:"naturalIdMutable"`

	// Persister overrides the default NamedPersister(Name). When both are set they must agree
	// on the entity name.
	Persister Persister `yaml:"-"`
	// Mappings are declared after Attributes, as is. Build does not assign them positions.
	Mappings []AttributeMapping `yaml:"-"`
}

type definitionsDocument struct {
	Entities []EntityDefinition `yaml:"entities"`
}

// DecodeDefinitions reads a yaml document with a top level "entities" list.
func DecodeDefinitions(data []byte) ([]EntityDefinition, error) {
	var document definitionsDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, errors.Wrap(err, "decode entity definitions")
	}
	return document.Entities, nil
}

func (d *EntityDefinition) entityName() string {
	if d.Name == "" && d.Persister != nil {
		return d.Persister.EntityName()
	}
	return d.Name
}
