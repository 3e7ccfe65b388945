package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shop/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBasicAuth(req *http.Request) *http.Request {
	req.SetBasicAuth("admin", "admin")
	return req
}

func TestCreateProducerThenProduct(t *testing.T) {
	app := newTestApplication()
	producers := &mockProducersStore{producers: map[int64]*store.Producer{}}
	app.store = store.Storage{Producers: producers, Products: &mockProductsStore{products: map[int64]*store.Product{}}}
	mux := app.mount()

	body := `{"name":"Acme Shoes","address":"1 Factory Rd","city":"Leeds","phone":"+44 113 000000"}`
	req := withBasicAuth(httptest.NewRequest(http.MethodPost, "/v1/producers", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data store.Producer `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Acme Shoes", resp.Data.Name)
	require.NotZero(t, resp.Data.ID)

	// a product can now reference the new producer
	productBody := `{"name":"Trail Runner","description":"A shoe","price":"100.00","producer_id":1,"category":"shoe"}`
	req = withBasicAuth(httptest.NewRequest(http.MethodPost, "/v1/products", strings.NewReader(productBody)))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateProducerDuplicateName(t *testing.T) {
	app := newTestApplication()
	producers := &mockProducersStore{producers: map[int64]*store.Producer{}}
	app.store = store.Storage{Producers: producers}
	mux := app.mount()

	body := `{"name":"Acme Shoes"}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := withBasicAuth(httptest.NewRequest(http.MethodPost, "/v1/producers", strings.NewReader(body)))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "attempt %d", i)
	}
}

func TestProducersRequireBasicAuth(t *testing.T) {
	app := newTestApplication()
	app.store = store.Storage{Producers: &mockProducersStore{producers: map[int64]*store.Producer{}}}
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/producers", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateAndDeleteProducer(t *testing.T) {
	app := newTestApplication()
	producers := &mockProducersStore{
		producers: map[int64]*store.Producer{1: {ID: 1, Name: "Acme Shoes"}},
		nextID:    1,
	}
	app.store = store.Storage{Producers: producers}
	mux := app.mount()

	req := withBasicAuth(httptest.NewRequest(http.MethodPut, "/v1/producers/1", strings.NewReader(`{"name":"Acme Footwear","city":"Leeds"}`)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Footwear", producers.producers[1].Name)

	req = withBasicAuth(httptest.NewRequest(http.MethodDelete, "/v1/producers/1", nil))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, producers.producers)

	req = withBasicAuth(httptest.NewRequest(http.MethodDelete, "/v1/producers/1", nil))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
