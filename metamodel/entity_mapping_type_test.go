package metamodel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Customer <- DomesticCustomer <- OtherCustomer, plus an unrelated Invoice.
func customerModel(t *testing.T) *Metamodel {
	t.Helper()
	model, err := Build(
		EntityDefinition{
			Name:          "Customer",
			Attributes:    []AttributeDefinition{{Name: "id"}, {Name: "name", Column: "customer_name"}, {Name: "kind"}, {Name: "rev"}},
			Identifier:    []string{"id"},
			Version:       "rev",
			Discriminator: "kind",
			NaturalID:     []string{"name"},
		},
		EntityDefinition{
			Name:               "DomesticCustomer",
			Extends:            "Customer",
			Attributes:         []AttributeDefinition{{Name: "taxCode", Column: "tax_code"}},
			DiscriminatorValue: "D",
		},
		EntityDefinition{
			Name:               "OtherCustomer",
			Extends:            "DomesticCustomer",
			Attributes:         []AttributeDefinition{{Name: "extra"}, {Name: "note"}},
			DiscriminatorValue: "O",
		},
		EntityDefinition{
			Name:       "Invoice",
			Attributes: []AttributeDefinition{{Name: "number"}},
			Identifier: []string{"number"},
		},
	)
	require.NoError(t, err)
	return model
}

func entity(t *testing.T, model *Metamodel, name string) *EntityMappingType {
	t.Helper()
	e, ok := model.EntityMappingType(name)
	require.True(t, ok, "entity %s", name)
	return e
}

func names(visit func(func(AttributeMapping))) []string {
	var result []string
	visit(func(a AttributeMapping) { result = append(result, a.AttributeName()) })
	return result
}

func TestHierarchyNavigation(t *testing.T) {
	model := customerModel(t)
	root := entity(t, model, "Customer")
	mid := entity(t, model, "DomesticCustomer")
	leaf := entity(t, model, "OtherCustomer")
	invoice := entity(t, model, "Invoice")

	assert.Nil(t, root.SuperType())
	assert.Same(t, root, mid.SuperType())
	assert.Same(t, mid, leaf.SuperType())
	assert.Equal(t, []*EntityMappingType{mid}, root.SubTypes())
	assert.Same(t, root, leaf.Root())
	assert.Equal(t, []*EntityMappingType{root, invoice}, model.Roots())
	assert.Equal(t, "OtherCustomer", leaf.EntityName())

	assert.Equal(t, TraversalPolymorphicRoot, root.Strategy())
	assert.Equal(t, TraversalPolymorphicMid, mid.Strategy())
	assert.Equal(t, TraversalPolymorphicMid, leaf.Strategy())
	assert.Equal(t, TraversalLeaf, invoice.Strategy())

	t.Run("IsTypeOrSuperType walks the super chain", func(t *testing.T) {
		for _, e := range model.Entities() {
			assert.True(t, e.IsTypeOrSuperType(e), e.EntityName())
		}
		assert.True(t, leaf.IsTypeOrSuperType(root))
		assert.True(t, leaf.IsTypeOrSuperType(mid))
		assert.False(t, root.IsTypeOrSuperType(leaf))
		assert.False(t, leaf.IsTypeOrSuperType(invoice))
		assert.False(t, leaf.IsTypeOrSuperType(nil))
	})

	t.Run("declared attributes exclude inherited ones", func(t *testing.T) {
		assert.Equal(t, []string{"extra", "note"}, names(leaf.ForEachDeclaredAttribute))
		for _, e := range model.Entities() {
			assert.Equal(t, e.DeclaredAttributeCount(), len(names(e.ForEachDeclaredAttribute)))
		}

		_, found := leaf.DeclaredAttribute("id")
		assert.False(t, found)
		extra, found := leaf.DeclaredAttribute("extra")
		require.True(t, found)
		assert.Equal(t, "extra", extra.AttributeName())

		id, found := leaf.FindAttributeMapping("id")
		require.True(t, found)
		rootID, _ := root.DeclaredAttribute("id")
		assert.Same(t, rootID, id)
	})
}

func TestCanonicalSlots(t *testing.T) {
	model := customerModel(t)
	leaf := entity(t, model, "OtherCustomer")

	assert.Equal(t, []string{"id", "name", "kind", "rev", "taxCode", "extra", "note"}, names(leaf.ForEachAttribute))
	assert.Equal(t, 7, leaf.NumberOfAttributeMappings())
	assert.Equal(t, 4, entity(t, model, "Customer").NumberOfAttributeMappings())

	var positions []int
	leaf.ForEachStateArrayContributor(func(c StateArrayContributor) {
		positions = append(positions, c.StateArrayPosition())
	})
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, positions)

	name, _ := leaf.FindAttributeMapping("name")
	assert.Equal(t, "customer_name", name.(Fetchable).ColumnName())
	assert.Equal(t, "Customer.name", name.(*BasicAttribute).String())
}

func TestAttributeTraversal(t *testing.T) {
	model := customerModel(t)
	root := entity(t, model, "Customer")
	mid := entity(t, model, "DomesticCustomer")
	leaf := entity(t, model, "OtherCustomer")
	invoice := entity(t, model, "Invoice")

	t.Run("scoped to self or an ancestor", func(t *testing.T) {
		assert.Equal(t, []string{"extra", "note"}, names(func(v func(AttributeMapping)) { leaf.ForEachAttributeScoped(leaf, v) }))
		assert.Equal(t, []string{"taxCode", "extra", "note"}, names(func(v func(AttributeMapping)) { leaf.ForEachAttributeScoped(mid, v) }))
		assert.Equal(t, names(leaf.ForEachAttribute), names(func(v func(AttributeMapping)) { leaf.ForEachAttributeScoped(root, v) }))
	})

	t.Run("unscoped includes subtypes", func(t *testing.T) {
		assert.Nil(t, Unscoped())
		assert.Equal(t,
			[]string{"id", "name", "kind", "rev", "taxCode", "extra", "note"},
			names(func(v func(AttributeMapping)) { root.ForEachAttributeScoped(Unscoped(), v) }))
	})

	t.Run("scoped to a subtype", func(t *testing.T) {
		assert.Equal(t,
			[]string{"id", "name", "kind", "rev", "taxCode"},
			names(func(v func(AttributeMapping)) { root.ForEachAttributeScoped(mid, v) }))
	})

	t.Run("scoped to an unrelated type", func(t *testing.T) {
		assert.Empty(t, names(func(v func(AttributeMapping)) { leaf.ForEachAttributeScoped(invoice, v) }))
	})

	t.Run("sub and super type fan-out", func(t *testing.T) {
		assert.Equal(t, []string{"taxCode", "extra", "note"}, names(root.ForEachSubTypeAttribute))
		assert.Empty(t, names(root.ForEachSuperTypeAttribute))
		assert.Equal(t, []string{"id", "name", "kind", "rev", "taxCode"}, names(leaf.ForEachSuperTypeAttribute))
		assert.Empty(t, names(leaf.ForEachSubTypeAttribute))
		assert.Empty(t, names(invoice.ForEachSubTypeAttribute))
		assert.Empty(t, names(invoice.ForEachSuperTypeAttribute))
	})

	t.Run("fetchables carry their slot index", func(t *testing.T) {
		var indexes []int
		mid.ForEachFetchable(func(i int, f Fetchable) { indexes = append(indexes, i) })
		assert.Equal(t, []int{0, 1, 2, 3, 4}, indexes)
	})
}

func TestSpecialRoles(t *testing.T) {
	model := customerModel(t)
	root := entity(t, model, "Customer")
	mid := entity(t, model, "DomesticCustomer")
	leaf := entity(t, model, "OtherCustomer")
	invoice := entity(t, model, "Invoice")

	require.NotNil(t, leaf.Identifier())
	assert.Same(t, root.Identifier(), leaf.Identifier())
	assert.False(t, leaf.Identifier().IsComposite())
	assert.Equal(t, "id", leaf.Identifier().Attributes()[0].AttributeName())

	require.NotNil(t, leaf.Version())
	assert.Equal(t, "rev", leaf.Version().Attribute().AttributeName())
	assert.Nil(t, invoice.Version())

	require.NotNil(t, leaf.NaturalID())
	assert.False(t, leaf.NaturalID().IsMutable())
	assert.Nil(t, invoice.NaturalID())

	require.NotNil(t, leaf.Discriminator())
	assert.Nil(t, invoice.Discriminator())
	resolved, ok := root.Discriminator().Resolve("O")
	assert.True(t, ok)
	assert.Same(t, leaf, resolved)
	resolved, ok = root.Discriminator().Resolve([]byte("D"))
	assert.True(t, ok)
	assert.Same(t, mid, resolved)
	_, ok = root.Discriminator().Resolve("X")
	assert.False(t, ok)
	_, ok = root.Discriminator().Resolve(nil)
	assert.False(t, ok)
	assert.Equal(t, "D", mid.DiscriminatorValue())
	assert.Nil(t, root.DiscriminatorValue())

	state := leaf.ExtractConcreteTypeState(AssemblerBinding{
		leaf.Identifier().Attributes()[0]: AssemblerFunc(func(RowCursor) any { return int64(7) }),
	}, nil)
	id, _ := leaf.Identifier().Values(state)[0].Get()
	assert.Equal(t, int64(7), id)
	assert.Equal(t, NotFetched, leaf.Version().Value(state).State())
	assert.Equal(t, NotFetched, leaf.NaturalID().Values(state)[0].State())
}

func TestIntegerDiscriminatorValues(t *testing.T) {
	model, err := Build(
		EntityDefinition{Name: "Vehicle", Attributes: []AttributeDefinition{{Name: "id"}, {Name: "type"}}, Identifier: []string{"id"}, Discriminator: "type"},
		EntityDefinition{Name: "Car", Extends: "Vehicle", DiscriminatorValue: 1},
		EntityDefinition{Name: "Truck", Extends: "Vehicle", DiscriminatorValue: 2},
	)
	require.NoError(t, err)
	vehicle := entity(t, model, "Vehicle")

	truck, ok := vehicle.Discriminator().Resolve(int32(2))
	assert.True(t, ok)
	assert.Equal(t, "Truck", truck.EntityName())
	car, ok := vehicle.Discriminator().Resolve(int64(1))
	assert.True(t, ok)
	assert.Equal(t, "Car", car.EntityName())

	truck, ok = vehicle.Discriminator().Resolve(uint64(2))
	assert.True(t, ok)
	assert.Equal(t, "Truck", truck.EntityName())
	car, ok = vehicle.Discriminator().Resolve(uint(1))
	assert.True(t, ok)
	assert.Equal(t, "Car", car.EntityName())
	_, ok = vehicle.Discriminator().Resolve(uint64(1) << 63)
	assert.False(t, ok)
}

func TestConcurrentReads(t *testing.T) {
	model := customerModel(t)
	leaf := entity(t, model, "OtherCustomer")
	id, _ := leaf.FindAttributeMapping("id")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(row int) {
			defer wg.Done()
			binding := AssemblerBinding{id: AssemblerFunc(func(cursor RowCursor) any { return cursor })}
			state := leaf.ExtractConcreteTypeState(binding, row)
			value, _ := state[0].Get()
			assert.Equal(t, row, value)
			assert.True(t, leaf.IsTypeOrSuperType(leaf.Root()))
		}(i)
	}
	wg.Wait()
}
