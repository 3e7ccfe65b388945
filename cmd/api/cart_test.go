package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shop/internal/cart"
	"shop/internal/catalog"
	"shop/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shoeFixtures() (*mockProductsStore, *mockVariantsStore) {
	products := &mockProductsStore{products: map[int64]*store.Product{
		1: {
			ID:       1,
			Name:     "Trail Runner",
			Price:    decimal.NewFromInt(100),
			Category: catalog.CategoryShoe,
			Discount: 10,
		},
	}}
	variants := &mockVariantsStore{variants: []catalog.Variant{
		{ID: 11, ProductID: 1, Category: catalog.CategoryShoe, Available: true, Attrs: map[string]string{"size": "42", "color": "Black"}},
		{ID: 12, ProductID: 1, Category: catalog.CategoryShoe, Available: true, Attrs: map[string]string{"size": "43", "color": "Black"}},
		{ID: 13, ProductID: 1, Category: catalog.CategoryShoe, Available: false, Attrs: map[string]string{"size": "44", "color": "Black"}},
	}}
	return products, variants
}

func withSession(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-1"})
	return r
}

func TestAddCartItemResolvesExactVariant(t *testing.T) {
	app := newTestApplication()
	products, variants := shoeFixtures()
	app.store = store.Storage{Products: products, Variants: variants}
	mux := app.mount()

	body := `{"product_id":1,"selection":{"size":"42","color":"Black"}}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/v1/cart/items", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data struct {
			FullID      string `json:"full_id"`
			DisplayName string `json:"display_name"`
			Count       int    `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "1_11", resp.Data.FullID)
	assert.Equal(t, "Trail Runner (Size: 42, Color: Black)", resp.Data.DisplayName)
	assert.Equal(t, 1, resp.Data.Count)

	saved, err := app.carts.Get(req.Context(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, saved["1_11"])
}

func TestAddCartItemNormalizesDecimalSelection(t *testing.T) {
	app := newTestApplication()
	products, variants := shoeFixtures()
	app.store = store.Storage{Products: products, Variants: variants}
	mux := app.mount()

	// "42.0" and "42" are the same size
	body := `{"product_id":1,"selection":{"size":"42.0","color":"Black"}}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/v1/cart/items", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAddCartItemIncompleteSelection(t *testing.T) {
	app := newTestApplication()
	products, variants := shoeFixtures()
	app.store = store.Storage{Products: products, Variants: variants}
	mux := app.mount()

	body := `{"product_id":1,"selection":{"size":"42"}}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/v1/cart/items", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddCartItemUnavailableVariant(t *testing.T) {
	app := newTestApplication()
	products, variants := shoeFixtures()
	app.store = store.Storage{Products: products, Variants: variants}
	mux := app.mount()

	body := `{"product_id":1,"selection":{"size":"44","color":"Black"}}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/v1/cart/items", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddCartItemAmbiguousMatchIsServerFault(t *testing.T) {
	app := newTestApplication()
	products, variants := shoeFixtures()
	// a second variant with identical attributes, which the unique
	// constraint should have prevented
	variants.variants = append(variants.variants, catalog.Variant{
		ID: 99, ProductID: 1, Category: catalog.CategoryShoe, Available: true,
		Attrs: map[string]string{"size": "42", "color": "Black"},
	})
	app.store = store.Storage{Products: products, Variants: variants}
	mux := app.mount()

	body := `{"product_id":1,"selection":{"size":"42","color":"Black"}}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/v1/cart/items", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRemoveAbsentCartItemIsNotAnError(t *testing.T) {
	app := newTestApplication()
	products, variants := shoeFixtures()
	app.store = store.Storage{Products: products, Variants: variants}
	mux := app.mount()

	req := withSession(httptest.NewRequest(http.MethodDelete, "/v1/cart/items/1_999", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetCartPrunesVanishedEntries(t *testing.T) {
	app := newTestApplication()
	products, variants := shoeFixtures()
	app.store = store.Storage{Products: products, Variants: variants}
	mux := app.mount()

	seed := cart.Cart{"1_11": 2, "404_1": 1}
	require.NoError(t, app.carts.Save(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "sess-1", seed))

	req := withSession(httptest.NewRequest(http.MethodGet, "/v1/cart", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data CartStatus `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "1_11", resp.Data.Items[0].FullID)
	assert.Equal(t, 2, resp.Data.Count)
	// unit price carries the 10% discount
	assert.True(t, resp.Data.Items[0].UnitPrice.Equal(decimal.RequireFromString("90")))
	assert.True(t, resp.Data.Total.Equal(decimal.RequireFromString("180")))

	saved, err := app.carts.Get(req.Context(), "sess-1")
	require.NoError(t, err)
	_, stillThere := saved["404_1"]
	assert.False(t, stillThere)
}
