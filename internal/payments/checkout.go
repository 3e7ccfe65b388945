package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// BillingAdapter talks to the billing provider's checkout API.
type BillingAdapter struct {
	apiBase    string
	secretKey  string
	httpClient *http.Client
}

func NewBillingAdapter(apiBase, secretKey string) *BillingAdapter {
	return &BillingAdapter{
		apiBase:    apiBase,
		secretKey:  secretKey,
		httpClient: http.DefaultClient,
	}
}

func (b *BillingAdapter) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	lines := make([]map[string]any, 0, len(req.Lines))
	for _, l := range req.Lines {
		// provider expects minor units
		lines = append(lines, map[string]any{
			"name":        l.Name,
			"unit_amount": l.UnitPrice.Mul(hundred).IntPart(),
			"quantity":    l.Quantity,
		})
	}

	payload := map[string]any{
		"reference":      req.Reference,
		"customer_email": req.CustomerEmail,
		"success_url":    req.SuccessURL,
		"cancel_url":     req.CancelURL,
		"line_items":     lines,
	}

	body, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiBase+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("checkout request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("checkout request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return CheckoutSession{}, fmt.Errorf("checkout session failed: status %d body %s", resp.StatusCode, raw)
	}

	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return CheckoutSession{}, fmt.Errorf("decode checkout session: %w", err)
	}
	if out.ID == "" {
		return CheckoutSession{}, fmt.Errorf("checkout session response missing id")
	}

	return CheckoutSession{ID: out.ID, PaymentURL: out.URL}, nil
}
