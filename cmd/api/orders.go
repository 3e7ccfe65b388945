package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"shop/internal/mailer"
	"shop/internal/params"
	"shop/internal/payments"
	"shop/internal/store"
	"shop/internal/token"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// orderCooldown is the minimum gap between two orders from the same email,
// to absorb double-submitted checkout forms.
const orderCooldown = 60 * time.Second

type CheckoutPayload struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

func (app *application) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	var payload CheckoutPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()
	sessionID := app.sessionID(w, r)

	c, err := app.carts.Get(ctx, sessionID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if c.Empty() {
		app.badRequestResponse(w, r, fmt.Errorf("cart is empty"))
		return
	}

	items, _, err := app.resolveCartItems(ctx, c)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if len(items) == 0 {
		app.badRequestResponse(w, r, fmt.Errorf("cart holds no purchasable items"))
		return
	}

	last, err := app.store.Orders.LastOrderTime(ctx, payload.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		app.internalServerError(w, r, err)
		return
	}
	if err == nil {
		if wait := orderCooldown - time.Since(last); wait > 0 {
			app.rateLimitExceededResponse(w, r, wait.Round(time.Second).String())
			return
		}
	}

	order := &store.Order{Email: payload.Email}

	// Tie the order to an existing account with the same address; guests
	// stay anonymous.
	if user, err := app.store.Users.GetByEmail(ctx, payload.Email); err == nil {
		order.UserID = &user.ID
	} else if !errors.Is(err, store.ErrNotFound) {
		app.internalServerError(w, r, err)
		return
	}

	lines := make([]store.OrderLine, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		lines = append(lines, store.OrderLine{
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			DisplayName: item.DisplayName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
		total = total.Add(item.LineTotal)
	}
	order.Total = total

	if err := app.store.Orders.CreateWithLines(ctx, order, lines); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	checkoutLines := make([]payments.CheckoutLine, 0, len(lines))
	for _, line := range lines {
		checkoutLines = append(checkoutLines, payments.CheckoutLine{
			Name:      line.DisplayName,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	// The order already exists at this point. If the payment provider is
	// down we keep it unpaid, tell the user, and let payment be retried
	// later instead of failing the whole checkout.
	var paymentURL, paymentWarning string
	session, err := app.gateway.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		Reference:     order.OrderNumber,
		CustomerEmail: order.Email,
		SuccessURL:    app.config.frontendURL + "/orders/success",
		CancelURL:     app.config.frontendURL + "/orders/cancelled",
		Lines:         checkoutLines,
	})
	if err != nil {
		app.logger.Warnw("error creating payment session", "order", order.OrderNumber, "error", err)
		paymentWarning = "payment could not be started; your order is saved and payment can be retried later"
	} else {
		if err := app.store.Orders.SetPaymentSession(ctx, order.ID, session.ID); err != nil {
			app.internalServerError(w, r, err)
			return
		}
		order.PaymentSessionID = &session.ID
		paymentURL = session.PaymentURL
	}

	if err := app.carts.Clear(ctx, sessionID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// The order stands whether or not the confirmation email makes it out,
	// so delivery failures only get logged.
	confirmToken := app.orderTokens.Make(token.Order{ID: order.ID, Email: order.Email, Confirmed: order.Confirmed})
	go func() {
		confirmationURL := fmt.Sprintf("%s/orders/confirm/%d/%s", app.config.frontendURL, order.ID, confirmToken)
		vars := struct {
			OrderNumber     string
			Total           string
			ConfirmationURL string
			TTLHours        int
		}{
			OrderNumber:     order.OrderNumber,
			Total:           order.Total.StringFixed(2),
			ConfirmationURL: confirmationURL,
			TTLHours:        int(app.config.payment.orderTokenExp.Hours()),
		}
		if _, err := app.mailer.Send(mailer.OrderConfirmationTemplate, order.Email, order.Email, vars); err != nil {
			app.logger.Warnw("error sending order confirmation email", "order", order.OrderNumber, "error", err)
		}
	}()

	resp := struct {
		Order      *store.Order `json:"order"`
		PaymentURL string       `json:"payment_url,omitempty"`
		Warning    string       `json:"warning,omitempty"`
	}{
		Order:      order,
		PaymentURL: paymentURL,
		Warning:    paymentWarning,
	}

	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// confirmOrderHandler redeems an emailed confirmation link. The token hashes
// over the confirmed flag, so a link that already confirmed its order no
// longer validates.
func (app *application) confirmOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid order id"))
		return
	}
	tok := chi.URLParam(r, "token")

	ctx := r.Context()

	order, err := app.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	subject := token.Order{ID: order.ID, Email: order.Email, Confirmed: order.Confirmed}
	if !app.orderTokens.Check(subject, tok) {
		app.badRequestResponse(w, r, fmt.Errorf("confirmation link is invalid or expired"))
		return
	}

	if err := app.store.Orders.Confirm(ctx, order.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	order.Confirmed = true

	if err := app.jsonResponse(w, http.StatusOK, order); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listMyOrdersHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	p := params.ParsePagination(r.URL.Query())

	orders, total, err := app.store.Orders.ListByEmail(r.Context(), user.Email, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	resp := struct {
		Orders     []store.Order     `json:"orders"`
		Pagination params.Pagination `json:"pagination"`
	}{
		Orders:     orders,
		Pagination: p,
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid order id"))
		return
	}

	detail, err := app.store.Orders.GetDetail(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	owned := detail.Order.UserID != nil && *detail.Order.UserID == user.ID
	if !owned && detail.Order.Email != user.Email {
		app.forbiddenResponse(w, r)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, detail); err != nil {
		app.internalServerError(w, r, err)
	}
}
