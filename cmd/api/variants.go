package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"shop/internal/catalog"
	"shop/internal/store"

	"github.com/go-chi/chi/v5"
)

func (app *application) getVariantHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := app.productFromRequest(w, r)
	if !ok {
		return
	}

	variantID, err := strconv.ParseInt(chi.URLParam(r, "variantID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid variant id"))
		return
	}

	variant, err := app.store.Variants.GetByID(r.Context(), product, variantID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	spec, _ := app.registry.Resolve(product.Category)

	resp := struct {
		Variant     *catalog.Variant `json:"variant"`
		DisplayName string           `json:"display_name"`
	}{
		Variant:     variant,
		DisplayName: spec.DisplayName(product.Name, *variant),
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateVariantPayload struct {
	Category   string            `json:"category" validate:"required"`
	Attributes map[string]string `json:"attributes" validate:"required"`
	Available  bool              `json:"available"`
}

func (app *application) createVariantHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := app.productFromRequest(w, r)
	if !ok {
		return
	}

	var payload CreateVariantPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	category, found := catalog.ParseCategory(payload.Category)
	if !found {
		app.badRequestResponse(w, r, fmt.Errorf("unknown category %q", payload.Category))
		return
	}

	variant, err := app.store.Variants.Create(r.Context(), product, category, payload.Attributes, payload.Available)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateVariant):
			app.conflictResponse(w, r, err)
		case errors.Is(err, store.ErrCategoryMismatch),
			errors.Is(err, store.ErrColorNotFound),
			errors.Is(err, store.ErrInvalidAttribute):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, variant); err != nil {
		app.internalServerError(w, r, err)
	}
}

type SetAvailabilityPayload struct {
	Available *bool `json:"available" validate:"required"`
}

func (app *application) setVariantAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := app.productFromRequest(w, r)
	if !ok {
		return
	}

	variantID, err := strconv.ParseInt(chi.URLParam(r, "variantID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid variant id"))
		return
	}

	var payload SetAvailabilityPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Variants.SetAvailability(r.Context(), product, variantID, *payload.Available); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]bool{"available": *payload.Available}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteVariantHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := app.productFromRequest(w, r)
	if !ok {
		return
	}

	variantID, err := strconv.ParseInt(chi.URLParam(r, "variantID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid variant id"))
		return
	}

	if err := app.store.Variants.Delete(r.Context(), product, variantID); err != nil {
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
