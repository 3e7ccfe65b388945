package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var (
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrInvalidPayload   = errors.New("webhook payload is malformed")
)

// Event is a completed-checkout notification from the billing provider,
// matched back to an order by (email, session id).
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Email     string `json:"customer_email"`
	Reference string `json:"reference"`
}

const EventCheckoutCompleted = "checkout.completed"

// signatureTolerance bounds how stale a signed webhook may be before it is
// rejected as a possible replay.
const signatureTolerance = 5 * time.Minute

// VerifySignature checks the provider's signature header, formatted as
// "t=<unix>,v1=<hex hmac>" where the MAC covers "<t>.<payload>" under the
// shared webhook secret.
func VerifySignature(payload []byte, header, secret string) error {
	return verifySignatureAt(payload, header, secret, time.Now())
}

func verifySignatureAt(payload []byte, header, secret string, now time.Time) error {
	var ts int64
	var sig string

	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			ts = parsed
		case "v1":
			sig = value
		}
	}
	if ts == 0 || sig == "" {
		return ErrInvalidSignature
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrInvalidSignature
	}
	return nil
}

// SignPayload produces the signature header for a payload; used by tests and
// by local tooling that replays webhooks.
func SignPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

// ParseEvent decodes a verified webhook payload.
func ParseEvent(payload []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, ErrInvalidPayload
	}
	if ev.Type == "" || ev.SessionID == "" || ev.Email == "" {
		return nil, ErrInvalidPayload
	}
	return &ev, nil
}
