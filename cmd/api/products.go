package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"shop/internal/catalog"
	"shop/internal/params"
	"shop/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CreateProductPayload struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Price       string `json:"price" validate:"required"`
	ProducerID  int64  `json:"producer_id" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Promoted    bool   `json:"promoted"`
	Discount    int    `json:"discount" validate:"min=0,max=100"`
}

func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid price: %w", err))
		return
	}

	category, ok := catalog.ParseCategory(payload.Category)
	if !ok {
		app.badRequestResponse(w, r, fmt.Errorf("unknown category %q", payload.Category))
		return
	}

	product := &store.Product{
		Name:        payload.Name,
		Description: payload.Description,
		Price:       price,
		ProducerID:  payload.ProducerID,
		Category:    category,
		Promoted:    payload.Promoted,
		Discount:    payload.Discount,
	}

	if err := app.store.Products.Create(r.Context(), product); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateName):
			app.conflictResponse(w, r, err)
		case errors.Is(err, store.ErrProducerMissing), errors.Is(err, store.ErrInvalidDiscount):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	var filters store.ProductFilters
	if raw := q.Get("category"); raw != "" {
		category, ok := catalog.ParseCategory(raw)
		if !ok {
			app.badRequestResponse(w, r, fmt.Errorf("unknown category %q", raw))
			return
		}
		filters.Category = category
	}
	if raw := q.Get("promoted"); raw != "" {
		promoted, err := strconv.ParseBool(raw)
		if err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("invalid promoted flag: %w", err))
			return
		}
		filters.Promoted = &promoted
	}

	products, total, err := app.store.Products.List(r.Context(), filters, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	resp := struct {
		Products   []*store.Product  `json:"products"`
		Pagination params.Pagination `json:"pagination"`
	}{
		Products:   products,
		Pagination: p,
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ProductDetail is the product page payload: the product itself, its images
// with the main one first, the variants matching the current filter selection,
// and the facet listing that drives the filter UI.
type ProductDetail struct {
	Product  *store.Product       `json:"product"`
	Images   []store.ProductImage `json:"images"`
	Variants []catalog.Variant    `json:"variants"`
	Facets   []catalog.Facet      `json:"facets"`
}

func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := app.productFromRequest(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

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

	images, err := app.store.Images.ListByProduct(ctx, product.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	q := catalog.Query(r.URL.Query())
	detail := ProductDetail{
		Product:  product,
		Images:   images,
		Variants: catalog.Filter(spec, variants, q),
		Facets:   catalog.Facets(spec, variants, q, true),
	}

	if err := app.jsonResponse(w, http.StatusOK, detail); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateProductPayload struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Price       string `json:"price" validate:"required"`
	Promoted    bool   `json:"promoted"`
	Discount    int    `json:"discount" validate:"min=0,max=100"`
}

// updateProductHandler replaces the mutable fields of a product. The category
// is deliberately not updatable: existing variants live in the category's
// table and would be orphaned by a change.
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := app.productFromRequest(w, r)
	if !ok {
		return
	}

	var payload UpdateProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid price: %w", err))
		return
	}

	product.Name = payload.Name
	product.Description = payload.Description
	product.Price = price
	product.Promoted = payload.Promoted
	product.Discount = payload.Discount

	if err := app.store.Products.Update(r.Context(), product); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateName):
			app.conflictResponse(w, r, err)
		case errors.Is(err, store.ErrInvalidDiscount):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid product id"))
		return
	}

	if err := app.store.Products.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type AddRatingPayload struct {
	Value int `json:"value" validate:"required,min=1,max=5"`
}

func (app *application) addRatingHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := app.productFromRequest(w, r)
	if !ok {
		return
	}

	var payload AddRatingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Ratings.Add(r.Context(), product.ID, payload.Value); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, map[string]string{"status": "rated"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// productFromRequest resolves the {productID} URL param to a stored product,
// writing the error response itself when that fails.
func (app *application) productFromRequest(w http.ResponseWriter, r *http.Request) (*store.Product, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid product id"))
		return nil, false
	}

	product, err := app.store.Products.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return nil, false
	}
	return product, true
}
