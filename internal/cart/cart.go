// Package cart keeps the session-scoped quantity ledger for purchasable
// variants. Entries are keyed by the "{product_id}_{variant_id}" composite key
// and live in the visitor's session, never in Postgres, until checkout.
package cart

// Cart maps variant composite keys to quantities.
type Cart map[string]int

// Add increments the quantity for a variant by one, creating the entry if
// absent.
func (c Cart) Add(fullID string) {
	c[fullID]++
}

// Remove decrements the quantity for a variant, deleting the entry when it
// reaches zero. It reports false when the variant was not in the cart.
func (c Cart) Remove(fullID string) bool {
	if _, ok := c[fullID]; !ok {
		return false
	}
	c[fullID]--
	if c[fullID] <= 0 {
		delete(c, fullID)
	}
	return true
}

// Count is the total number of items across all entries.
func (c Cart) Count() int {
	n := 0
	for _, qty := range c {
		n += qty
	}
	return n
}

func (c Cart) Empty() bool {
	return len(c) == 0
}
