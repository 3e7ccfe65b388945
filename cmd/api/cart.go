package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"shop/internal/cart"
	"shop/internal/catalog"
	"shop/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// CartItem is one resolved cart entry: the live variant joined back to its
// product, priced at the product's current discounted price.
type CartItem struct {
	FullID      string          `json:"full_id"`
	ProductID   int64           `json:"product_id"`
	VariantID   int64           `json:"variant_id"`
	DisplayName string          `json:"display_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type CartStatus struct {
	Items []CartItem      `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// resolveCartItems joins cart entries back to the live catalog. Entries whose
// product or variant has disappeared since they were added are pruned rather
// than failing the whole cart; pruned reports whether that happened so the
// caller can persist the cleaned cart.
func (app *application) resolveCartItems(ctx context.Context, c cart.Cart) (items []CartItem, pruned bool, err error) {
	for fullID, qty := range c {
		productID, variantID, err := catalog.ParseFullID(fullID)
		if err != nil {
			app.logger.Warnw("dropping malformed cart entry", "full_id", fullID)
			delete(c, fullID)
			pruned = true
			continue
		}

		product, err := app.store.Products.GetByID(ctx, productID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				app.logger.Warnw("dropping cart entry for vanished product", "full_id", fullID)
				delete(c, fullID)
				pruned = true
				continue
			}
			return nil, pruned, err
		}

		variant, err := app.store.Variants.GetByID(ctx, product, variantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				app.logger.Warnw("dropping cart entry for vanished variant", "full_id", fullID)
				delete(c, fullID)
				pruned = true
				continue
			}
			return nil, pruned, err
		}

		spec, _ := app.registry.Resolve(product.Category)
		unit := product.CurrentPrice()

		items = append(items, CartItem{
			FullID:      fullID,
			ProductID:   productID,
			VariantID:   variantID,
			DisplayName: spec.DisplayName(product.Name, *variant),
			UnitPrice:   unit,
			Quantity:    qty,
			LineTotal:   unit.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	return items, pruned, nil
}

func (app *application) cartStatus(items []CartItem, c cart.Cart) CartStatus {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return CartStatus{Items: items, Count: c.Count(), Total: total}
}

func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := app.sessionID(w, r)
	ctx := r.Context()

	c, err := app.carts.Get(ctx, sessionID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	items, pruned, err := app.resolveCartItems(ctx, c)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if pruned {
		if err := app.carts.Save(ctx, sessionID, c); err != nil {
			app.internalServerError(w, r, err)
			return
		}
	}

	if err := app.jsonResponse(w, http.StatusOK, app.cartStatus(items, c)); err != nil {
		app.internalServerError(w, r, err)
	}
}

type AddCartItemPayload struct {
	ProductID int64             `json:"product_id" validate:"required"`
	Selection map[string]string `json:"selection" validate:"required"`
}

// addCartItemHandler resolves the buyer's attribute selection to exactly one
// purchasable variant and adds it to the session cart. A selection matching
// more than one variant means the catalog violates its uniqueness constraint,
// which is a server fault, not a user error.
func (app *application) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	var payload AddCartItemPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	product, err := app.store.Products.GetByID(ctx, payload.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	spec, found := app.registry.Resolve(product.Category)
	if !found {
		app.internalServerError(w, r, fmt.Errorf("no variant type registered for category %q", product.Category))
		return
	}

	variants, err := app.store.Variants.ListByProduct(ctx, product)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	q := catalog.Query{}
	for field, value := range payload.Selection {
		q[field] = []string{value}
	}

	variant, err := catalog.ResolveExact(spec, variants, q)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrIncompleteSelection), errors.Is(err, catalog.ErrNoMatch):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, catalog.ErrVariantConflict):
			app.internalServerError(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	sessionID := app.sessionID(w, r)
	c, err := app.carts.Get(ctx, sessionID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	c.Add(variant.FullID())
	if err := app.carts.Save(ctx, sessionID, c); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := struct {
		FullID      string `json:"full_id"`
		DisplayName string `json:"display_name"`
		Count       int    `json:"count"`
	}{
		FullID:      variant.FullID(),
		DisplayName: spec.DisplayName(product.Name, *variant),
		Count:       c.Count(),
	}

	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	fullID := chi.URLParam(r, "fullID")
	if _, _, err := catalog.ParseFullID(fullID); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sessionID := app.sessionID(w, r)
	ctx := r.Context()

	c, err := app.carts.Get(ctx, sessionID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if !c.Remove(fullID) {
		app.logger.Warnw("attempt to remove absent cart entry", "full_id", fullID)
	} else if err := app.carts.Save(ctx, sessionID, c); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]int{"count": c.Count()}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := app.sessionID(w, r)

	if err := app.carts.Clear(r.Context(), sessionID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
