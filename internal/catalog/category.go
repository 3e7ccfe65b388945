package catalog

import "strings"

// Category identifies which concrete variant table a product's variants live in.
type Category string

const (
	CategoryShoe     Category = "shoe"
	CategorySuit     Category = "suit"
	CategoryShirt    Category = "shirt"
	CategoryBackpack Category = "backpack"
)

// Categories in declaration order, used to build the registry and nav menus.
var Categories = []Category{CategoryShoe, CategorySuit, CategoryShirt, CategoryBackpack}

var categoryLabels = map[Category]string{
	CategoryShoe:     "Shoe",
	CategorySuit:     "Suit",
	CategoryShirt:    "Shirt",
	CategoryBackpack: "Backpack",
}

var categoryPlurals = map[Category]string{
	CategoryShoe:     "Shoes",
	CategorySuit:     "Suits",
	CategoryShirt:    "Shirts",
	CategoryBackpack: "Backpacks",
}

// ParseCategory matches a category code case-insensitively.
// It reports false for anything outside the closed set.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryLabels[c]; !ok {
		return "", false
	}
	return c, true
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) Label() string {
	return categoryLabels[c]
}

func (c Category) Plural() string {
	return categoryPlurals[c]
}
