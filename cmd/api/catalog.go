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

// browseCategoryHandler is the category browse page: every purchasable variant
// in the category, narrowed by the filter query, plus the cross-filtered facet
// listing built from the full variant set.
func (app *application) browseCategoryHandler(w http.ResponseWriter, r *http.Request) {
	category, found := catalog.ParseCategory(chi.URLParam(r, "category"))
	if !found {
		app.notFoundResponse(w, r, fmt.Errorf("unknown category %q", chi.URLParam(r, "category")))
		return
	}

	spec, found := app.registry.Resolve(category)
	if !found {
		app.notFoundResponse(w, r, fmt.Errorf("no variant type registered for category %q", category))
		return
	}

	variants, err := app.store.Variants.ListByCategory(r.Context(), category)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	q := catalog.Query(r.URL.Query())

	resp := struct {
		Category catalog.Category  `json:"category"`
		Label    string            `json:"label"`
		Variants []catalog.Variant `json:"variants"`
		Facets   []catalog.Facet   `json:"facets"`
	}{
		Category: category,
		Label:    category.Plural(),
		Variants: catalog.Filter(spec, variants, q),
		Facets:   catalog.Facets(spec, variants, q, true),
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listColorsHandler(w http.ResponseWriter, r *http.Request) {
	colors, err := app.store.Colors.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, colors); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateColorPayload struct {
	Name string `json:"name" validate:"required,max=50"`
}

func (app *application) createColorHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateColorPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	color := &store.Color{Name: payload.Name}
	if err := app.store.Colors.Create(r.Context(), color); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateColor):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, color); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteColorHandler(w http.ResponseWriter, r *http.Request) {
	colorID, err := strconv.ParseInt(chi.URLParam(r, "colorID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Colors.Delete(r.Context(), colorID); err != nil {
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
