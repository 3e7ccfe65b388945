package store

import (
	"fmt"

	hashids "github.com/speps/go-hashids/v2"
)

// OrderNumberGenerator derives the customer-facing order reference from the
// database id, so numbers are short, non-sequential-looking and reproducible.
type OrderNumberGenerator struct {
	h *hashids.HashID
}

func NewOrderNumberGenerator(salt string) (*OrderNumberGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	data.Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("order number generator: %w", err)
	}
	return &OrderNumberGenerator{h: h}, nil
}

func (g *OrderNumberGenerator) Generate(orderID int64) (string, error) {
	enc, err := g.h.EncodeInt64([]int64{orderID})
	if err != nil {
		return "", fmt.Errorf("encode order number: %w", err)
	}
	return "SHOP-" + enc, nil
}
