// Package payments integrates the external billing provider. The provider is
// a collaborator with a simple call/return contract: we create a checkout
// session for an order's line items and later receive a signed webhook when
// the customer completes payment.
package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

type CheckoutLine struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type CheckoutRequest struct {
	// Reference is our order number, echoed back by the provider.
	Reference     string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Lines         []CheckoutLine
}

type CheckoutSession struct {
	ID         string
	PaymentURL string
}

// Gateway creates hosted checkout sessions with the billing provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
}
