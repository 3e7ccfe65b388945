package main

import (
	"errors"
	"io"
	"net/http"

	"shop/internal/mailer"
	"shop/internal/payments"
	"shop/internal/store"
)

const signatureHeader = "X-Payment-Signature"

// paymentWebhookHandler receives signed provider notifications. Anything with
// a bad signature is rejected before the payload is even parsed; events we do
// not care about are acknowledged and dropped.
func (app *application) paymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 65536))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := payments.VerifySignature(payload, r.Header.Get(signatureHeader), app.config.payment.webhookSecret); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	event, err := payments.ParseEvent(payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if event.Type != payments.EventCheckoutCompleted {
		app.logger.Infow("ignoring webhook event", "type", event.Type)
		if err := app.jsonResponse(w, http.StatusOK, map[string]bool{"received": true}); err != nil {
			app.internalServerError(w, r, err)
		}
		return
	}

	order, err := app.store.Orders.MarkPaid(r.Context(), event.Email, event.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.logger.Infow("order paid", "order", order.OrderNumber, "session", event.SessionID)

	go func() {
		vars := struct {
			OrderNumber string
			Total       string
		}{
			OrderNumber: order.OrderNumber,
			Total:       order.Total.StringFixed(2),
		}
		if _, err := app.mailer.Send(mailer.PaymentReceivedTemplate, order.Email, order.Email, vars); err != nil {
			app.logger.Warnw("error sending payment received email", "order", order.OrderNumber, "error", err)
		}
	}()

	if err := app.jsonResponse(w, http.StatusOK, map[string]bool{"received": true}); err != nil {
		app.internalServerError(w, r, err)
	}
}
