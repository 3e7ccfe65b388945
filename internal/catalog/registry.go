package catalog

import (
	"fmt"
	"strings"
)

// FieldKind tells the engine and the store how an attribute column is typed.
type FieldKind int

const (
	// FieldDecimal is a numeric column; query values must parse as decimals.
	FieldDecimal FieldKind = iota
	// FieldColor is a nullable reference into the colors table, queried and
	// faceted by the color's display name.
	FieldColor
)

// AttributeField describes one filterable/facetable field of a variant type.
type AttributeField struct {
	// Name is the field name as it appears in query strings and Variant.Attrs.
	Name string
	// QueryPath is the SQL path used to select the canonical value. For plain
	// columns this is the column itself; for the color reference it points at
	// the related display name.
	QueryPath string
	// Label is the human readable form used in facet UI and display names.
	Label string
	Kind  FieldKind
}

// Spec is the full descriptor of one concrete variant type: which table holds
// it and which of its columns are attribute fields, in order.
type Spec struct {
	Category Category
	// Table is the variant table for this category.
	Table  string
	Fields []AttributeField
	// SortedFacets requests sorted facet values when the type is browsed
	// catalog-wide instead of first-seen ordering.
	SortedFacets bool
}

// Field looks up an attribute field by name.
func (s Spec) Field(name string) (AttributeField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return AttributeField{}, false
}

// DisplayName renders the frozen order-line name for a variant, e.g.
// "Derby Classic (Size: 42, Color: Black)".
func (s Spec) DisplayName(productName string, v Variant) string {
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if val := v.Attrs[f.Name]; val != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Label, val))
		}
	}
	if len(parts) == 0 {
		return productName
	}
	return fmt.Sprintf("%s (%s)", productName, strings.Join(parts, ", "))
}

// Registry maps each category to its variant type descriptor. It is built once
// at startup and passed to the components that need it; the set of variant
// types is closed and exhaustively enumerable.
type Registry struct {
	specs map[Category]Spec
}

func NewRegistry() *Registry {
	colorField := AttributeField{Name: "color", QueryPath: "colors.name", Label: "Color", Kind: FieldColor}

	specs := []Spec{
		{
			Category: CategoryShoe,
			Table:    "product_shoes",
			Fields: []AttributeField{
				{Name: "size", QueryPath: "size", Label: "Size", Kind: FieldDecimal},
				colorField,
			},
			SortedFacets: true,
		},
		{
			Category: CategorySuit,
			Table:    "product_suits",
			Fields: []AttributeField{
				{Name: "height_cm", QueryPath: "height_cm", Label: "Height", Kind: FieldDecimal},
				{Name: "chest_cm", QueryPath: "chest_cm", Label: "Chest", Kind: FieldDecimal},
				{Name: "waist_cm", QueryPath: "waist_cm", Label: "Waist", Kind: FieldDecimal},
				colorField,
			},
			SortedFacets: true,
		},
		{
			Category: CategoryShirt,
			Table:    "product_shirts",
			Fields: []AttributeField{
				{Name: "height_cm", QueryPath: "height_cm", Label: "Height", Kind: FieldDecimal},
				{Name: "collar_cm", QueryPath: "collar_cm", Label: "Collar", Kind: FieldDecimal},
				colorField,
			},
			SortedFacets: true,
		},
		{
			Category: CategoryBackpack,
			Table:    "product_backpacks",
			Fields:   []AttributeField{colorField},
		},
	}

	r := &Registry{specs: make(map[Category]Spec, len(specs))}
	for _, s := range specs {
		r.specs[s.Category] = s
	}
	return r
}

// Resolve maps a product's category to its variant type descriptor. A missing
// or unrecognized category reports false, meaning no catalog data exists for
// the product.
func (r *Registry) Resolve(c Category) (Spec, bool) {
	s, ok := r.specs[c]
	return s, ok
}

// AttributeFields returns the ordered attribute fields for a category, or nil
// for an unknown one. Always agrees with Resolve on the field set.
func (r *Registry) AttributeFields(c Category) []AttributeField {
	s, ok := r.specs[c]
	if !ok {
		return nil
	}
	return s.Fields
}
