package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookupIsCaseAndSpaceInsensitive(t *testing.T) {
	t.Parallel()

	registry := NewRegistry([]Ingredient{{ID: 4, Name: "Palm Oil", Unit: "l", CurrentCostCents: 180000}})

	for _, name := range []string{"Palm Oil", "palm oil", "  PALM OIL "} {
		ingredient, ok := registry.Lookup(name)
		require.Truef(t, ok, "lookup %q", name)
		assert.Equal(t, uint(4), ingredient.ID)
	}
	_, ok := registry.Lookup("Palm")
	assert.False(t, ok)
}

func TestRegistryFirstEntryWinsOnCollision(t *testing.T) {
	t.Parallel()

	registry := NewRegistry([]Ingredient{
		{ID: 1, Name: "Salt", CurrentCostCents: 100},
		{ID: 2, Name: "Onion", CurrentCostCents: 500},
		{ID: 3, Name: " salt", CurrentCostCents: 900},
		{ID: 4, Name: "SALT", CurrentCostCents: 50},
		{ID: 5, Name: "   "},
	})

	assert.Equal(t, 2, registry.Len())
	salt, ok := registry.Lookup("salt")
	require.True(t, ok)
	assert.Equal(t, uint(1), salt.ID)

	collisions := registry.Collisions()
	require.Len(t, collisions, 1)
	assert.Equal(t, "salt", collisions[0].Key)
	assert.Equal(t, []uint{1, 3, 4}, collisions[0].IDs)
	assert.Equal(t, []string{"Salt", " salt", "SALT"}, collisions[0].Names)

	names := make([]string, 0)
	for _, ingredient := range registry.Ingredients() {
		names = append(names, ingredient.Name)
	}
	assert.Equal(t, []string{"Salt", "Onion"}, names)
}

func TestNilRegistry(t *testing.T) {
	t.Parallel()

	var registry *Registry
	_, ok := registry.Lookup("anything")
	assert.False(t, ok)
	assert.Zero(t, registry.Len())
	assert.Nil(t, registry.Ingredients())
	assert.Nil(t, registry.Collisions())
}

func TestIngredientUnitCost(t *testing.T) {
	t.Parallel()

	cost, grounded := Ingredient{CurrentCostCents: 700}.unitCost()
	assert.Equal(t, int64(700), cost)
	assert.False(t, grounded)

	cost, grounded = Ingredient{CurrentCostCents: 700, MarketPriceCents: int64Ptr(0)}.unitCost()
	assert.Equal(t, int64(0), cost)
	assert.True(t, grounded)

	cost, _ = Ingredient{CurrentCostCents: -10}.unitCost()
	assert.Equal(t, int64(0), cost)
}
