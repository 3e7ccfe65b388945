package main

import (
	"errors"
	"net/http"
	"strconv"

	"shop/internal/store"

	"github.com/go-chi/chi/v5"
)

type ProducerPayload struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address" validate:"max=255"`
	City    string `json:"city" validate:"max=100"`
	Phone   string `json:"phone" validate:"max=30"`
}

func (app *application) listProducersHandler(w http.ResponseWriter, r *http.Request) {
	producers, err := app.store.Producers.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, producers); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) createProducerHandler(w http.ResponseWriter, r *http.Request) {
	var payload ProducerPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	producer := &store.Producer{
		Name:    payload.Name,
		Address: payload.Address,
		City:    payload.City,
		Phone:   payload.Phone,
	}
	if err := app.store.Producers.Create(r.Context(), producer); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateProducer):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, producer); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) updateProducerHandler(w http.ResponseWriter, r *http.Request) {
	producerID, err := strconv.ParseInt(chi.URLParam(r, "producerID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ProducerPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	producer := &store.Producer{
		ID:      producerID,
		Name:    payload.Name,
		Address: payload.Address,
		City:    payload.City,
		Phone:   payload.Phone,
	}
	if err := app.store.Producers.Update(r.Context(), producer); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrDuplicateProducer):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, producer); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteProducerHandler(w http.ResponseWriter, r *http.Request) {
	producerID, err := strconv.ParseInt(chi.URLParam(r, "producerID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Producers.Delete(r.Context(), producerID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrProducerInUse):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
