package metamodel

// ForEachAttribute visits the canonical slots of the node: root level first, declared order within
// each level. This is the order every state array uses.
func (e *EntityMappingType) ForEachAttribute(visit func(AttributeMapping)) {
	for _, attribute := range e.slots {
		visit(attribute)
	}
}

// ForEachAttributeScoped visits attributes limited by scopeTo:
//   - this node or an ancestor: attributes declared from scopeTo down to this node
//   - Unscoped (nil): every canonical slot followed by the attributes of all subtypes
//   - a subtype (treated reference): the canonical slots of that subtype
//
// Any other node yields nothing.
func (e *EntityMappingType) ForEachAttributeScoped(scopeTo *EntityMappingType, visit func(AttributeMapping)) {
	switch {
	case scopeTo == nil:
		e.ForEachAttribute(visit)
		e.ForEachSubTypeAttribute(visit)
	case e.IsTypeOrSuperType(scopeTo):
		var chain []*EntityMappingType
		for node := e; node != scopeTo; node = node.superType {
			chain = append(chain, node)
		}
		chain = append(chain, scopeTo)
		for i := len(chain) - 1; i >= 0; i-- {
			chain[i].ForEachDeclaredAttribute(visit)
		}
	case scopeTo.IsTypeOrSuperType(e):
		scopeTo.ForEachAttribute(visit)
	}
}

// ForEachSubTypeAttribute visits the attributes declared by every descendant, depth first.
func (e *EntityMappingType) ForEachSubTypeAttribute(visit func(AttributeMapping)) {
	if e.strategy == TraversalLeaf {
		return
	}
	for _, sub := range e.subTypes {
		sub.ForEachDeclaredAttribute(visit)
		sub.ForEachSubTypeAttribute(visit)
	}
}

// ForEachSuperTypeAttribute visits the attributes declared by every ancestor, root first.
func (e *EntityMappingType) ForEachSuperTypeAttribute(visit func(AttributeMapping)) {
	if e.strategy != TraversalPolymorphicMid {
		return
	}
	inherited := len(e.slots) - e.declared.Len()
	for _, attribute := range e.slots[:inherited] {
		visit(attribute)
	}
}

// ForEachFetchable visits the fetchable slots together with their slot index.
func (e *EntityMappingType) ForEachFetchable(visit func(index int, fetchable Fetchable)) {
	for i, attribute := range e.slots {
		if fetchable, ok := attribute.(Fetchable); ok {
			visit(i, fetchable)
		}
	}
}

// ForEachStateArrayContributor visits every slot as a StateArrayContributor. A slot without that
// capability means the metamodel was built wrong and panics with ErrCapabilityMismatch.
func (e *EntityMappingType) ForEachStateArrayContributor(visit func(StateArrayContributor)) {
	e.ForEachAttribute(func(attribute AttributeMapping) {
		contributor, ok := attribute.(StateArrayContributor)
		if !ok {
			panic(capabilityMismatch(e.EntityName(), attribute))
		}
		visit(contributor)
	})
}

// ExtractConcreteTypeState builds the state array for the row under cursor. Slots whose attribute
// has no assembler in binding are Unfetched; the others hold the assembled value unchanged.
// The result always has NumberOfAttributeMappings entries.
func (e *EntityMappingType) ExtractConcreteTypeState(binding AssemblerBinding, cursor RowCursor) []Value {
	values := make([]Value, len(e.slots))
	for i, attribute := range e.slots {
		values[i] = Unfetched()
		if _, ok := attribute.(Fetchable); !ok {
			continue
		}
		if assembler, ok := binding[attribute]; ok && !isNilAssembler(assembler) {
			values[i] = LoadedValue(assembler.Assemble(cursor))
		}
	}
	return values
}

// A binding entry holding a nil assembler (including a nil AssemblerFunc) counts as unbound.
func isNilAssembler(assembler Assembler) bool {
	if assembler == nil {
		return true
	}
	f, isFunc := assembler.(AssemblerFunc)
	return isFunc && f == nil
}
