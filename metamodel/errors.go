package metamodel

import (
	"github.com/pkg/errors"
)

var (
	// ErrIncompleteMapping is returned by Build when a definition does not supply something a
	// mapping type cannot do without (identifier on a root, a resolvable super type, ...).
	ErrIncompleteMapping = errors.New("incomplete entity mapping")
	// ErrCapabilityMismatch is raised (as a panic) when an attribute occupying a state array slot
	// does not implement StateArrayContributor.
	ErrCapabilityMismatch = errors.New("attribute capability mismatch")
)

func incomplete(entityName string, format string, args ...any) error {
	return errors.Wrapf(ErrIncompleteMapping, "entity(name=%s): "+format, append([]any{entityName}, args...)...)
}

func capabilityMismatch(entityName string, attribute AttributeMapping) error {
	return errors.Wrapf(ErrCapabilityMismatch, "attribute %s of entity(name=%s) is not a state array contributor",
		attribute.AttributeName(), entityName)
}
