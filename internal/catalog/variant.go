package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Variant is one purchasable configuration of a product (a specific size/color
// combination and so on). Attribute values are stored as canonical strings, the
// same representation the filter engine and facet output use: decimals without
// trailing zeros ("42", not "42.0") and related objects by display name ("Black").
// A nil color reference shows up as the empty string.
type Variant struct {
	ID        int64             `json:"id"`
	ProductID int64             `json:"product_id"`
	Category  Category          `json:"category"`
	Available bool              `json:"available"`
	Attrs     map[string]string `json:"attributes"`
	CreatedAt time.Time         `json:"created_at"`
}

// FullID is the composite key addressing a variant within cart/session state.
func (v Variant) FullID() string {
	return fmt.Sprintf("%d_%d", v.ProductID, v.ID)
}

// ParseFullID splits a "{product_id}_{variant_id}" composite key.
func ParseFullID(s string) (productID, variantID int64, err error) {
	left, right, ok := strings.Cut(s, "_")
	if !ok {
		return 0, 0, fmt.Errorf("malformed variant key %q", s)
	}
	productID, err = strconv.ParseInt(left, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed variant key %q", s)
	}
	variantID, err = strconv.ParseInt(right, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed variant key %q", s)
	}
	return productID, variantID, nil
}
