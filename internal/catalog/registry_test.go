package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCoversEveryCategory(t *testing.T) {
	r := NewRegistry()

	for _, c := range Categories {
		spec, ok := r.Resolve(c)
		require.True(t, ok, "category %s", c)
		assert.Equal(t, c, spec.Category)
		assert.NotEmpty(t, spec.Table)
		assert.NotEmpty(t, spec.Fields)
	}
}

func TestRegistryResolverAgreesWithAttributeFields(t *testing.T) {
	r := NewRegistry()

	for _, c := range Categories {
		spec, ok := r.Resolve(c)
		require.True(t, ok)
		assert.Equal(t, spec.Fields, r.AttributeFields(c))
	}
}

func TestRegistryUnknownCategory(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Resolve(Category("hat"))
	assert.False(t, ok)
	assert.Nil(t, r.AttributeFields(Category("hat")))
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("Shoe")
	require.True(t, ok)
	assert.Equal(t, CategoryShoe, c)

	_, ok = ParseCategory("sock")
	assert.False(t, ok)
}

func TestAttributeFieldSets(t *testing.T) {
	r := NewRegistry()

	names := func(c Category) []string {
		var out []string
		for _, f := range r.AttributeFields(c) {
			out = append(out, f.Name)
		}
		return out
	}

	assert.Equal(t, []string{"size", "color"}, names(CategoryShoe))
	assert.Equal(t, []string{"height_cm", "chest_cm", "waist_cm", "color"}, names(CategorySuit))
	assert.Equal(t, []string{"height_cm", "collar_cm", "color"}, names(CategoryShirt))
	assert.Equal(t, []string{"color"}, names(CategoryBackpack))
}

func TestSpecDisplayName(t *testing.T) {
	r := NewRegistry()
	spec, _ := r.Resolve(CategoryShoe)

	v := Variant{Attrs: map[string]string{"size": "42", "color": "Black"}}
	assert.Equal(t, "Derby Classic (Size: 42, Color: Black)", spec.DisplayName("Derby Classic", v))

	// a nulled color reference drops out of the rendered name
	v.Attrs["color"] = ""
	assert.Equal(t, "Derby Classic (Size: 42)", spec.DisplayName("Derby Classic", v))
}
